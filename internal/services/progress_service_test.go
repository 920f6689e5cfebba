package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
)

// mockProgressRepository is a mock implementation of ProgressRepository
type mockProgressRepository struct {
	progress        *models.Progress
	getErr          error
	createErr       error
	startErr        error
	completeErr     error
	lastCompletion  *time.Time
	subjectProgress []models.SubjectProgress
}

func (m *mockProgressRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.Progress, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.progress, nil
}

func (m *mockProgressRepository) Create(ctx context.Context, progress *models.Progress) error {
	return m.createErr
}

func (m *mockProgressRepository) Start(ctx context.Context, id int) error {
	return m.startErr
}

// Complete keeps lastCompletion at the latest completed row, matching the
// MAX(completed_at) query the real repository runs.
func (m *mockProgressRepository) Complete(ctx context.Context, id int, status models.ProgressStatus, score float64, timeSpent int, completedAt time.Time) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	if status == models.ProgressStatusCompleted {
		if m.lastCompletion == nil || completedAt.After(*m.lastCompletion) {
			c := completedAt
			m.lastCompletion = &c
		}
	}
	return nil
}

func (m *mockProgressRepository) GetByUser(ctx context.Context, userID int) ([]models.Progress, error) {
	return nil, nil
}

func (m *mockProgressRepository) GetSubjectProgress(ctx context.Context, userID, gradeLevel int) ([]models.SubjectProgress, error) {
	return m.subjectProgress, nil
}

func (m *mockProgressRepository) LastCompletionDate(ctx context.Context, userID int) (*time.Time, error) {
	return m.lastCompletion, nil
}

// mockUserProgressRepository is a mock implementation of UserProgressRepository
type mockUserProgressRepository struct {
	user     *models.User
	getErr   error
	addXPErr error
}

func (m *mockUserProgressRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserProgressRepository) AddXP(ctx context.Context, userID, xp, newLevel, streakDays int) error {
	return m.addXPErr
}

// mockBadgeRepository is a mock implementation of BadgeRepository
type mockBadgeRepository struct {
	badges   []models.Badge
	earned   map[int]bool
	awardErr error
}

func (m *mockBadgeRepository) GetAll(ctx context.Context) ([]models.Badge, error) {
	return m.badges, nil
}

func (m *mockBadgeRepository) GetEarnedIDs(ctx context.Context, userID int) (map[int]bool, error) {
	if m.earned == nil {
		return map[int]bool{}, nil
	}
	return m.earned, nil
}

func (m *mockBadgeRepository) Award(ctx context.Context, userID, badgeID int, earnedAt time.Time) error {
	return m.awardErr
}

// mockActivityProgressRepository is a mock implementation of ActivityProgressRepository
type mockActivityProgressRepository struct {
	activities []models.ActivityLog
	err        error
}

func (m *mockActivityProgressRepository) Create(ctx context.Context, activity *models.ActivityLog) error {
	return m.err
}

func (m *mockActivityProgressRepository) GetRecentByUser(ctx context.Context, userID, limit int) ([]models.ActivityLog, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.activities) {
		return m.activities[:limit], nil
	}
	return m.activities, nil
}

// mockLessonRepository is a mock implementation of LessonRepository
type mockLessonRepository struct {
	lesson    *models.Lesson
	lessons   []models.Lesson
	listItems []models.LessonListItem
	next      *models.Lesson
	err       error
	createErr error
}

func (m *mockLessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.lesson, nil
}

func (m *mockLessonRepository) GetAll(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	return m.lessons, m.err
}

func (m *mockLessonRepository) GetAllWithStatus(ctx context.Context, filter models.LessonFilter, userID int) ([]models.LessonListItem, error) {
	return m.listItems, m.err
}

func (m *mockLessonRepository) GetNextForSubject(ctx context.Context, subjectID, gradeLevel, userID int) (*models.Lesson, error) {
	return m.next, m.err
}

func (m *mockLessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return m.createErr
}

func (m *mockLessonRepository) Update(ctx context.Context, id int, req *models.UpdateLessonRequest) error {
	return m.err
}

func (m *mockLessonRepository) Delete(ctx context.Context, id int) error {
	return m.err
}

func scoreOf(v float64) *float64 {
	return &v
}

func newProgressService(
	progressRepo *mockProgressRepository,
	userRepo *mockUserProgressRepository,
	badgeRepo *mockBadgeRepository,
	lessonRepo *mockLessonRepository,
) *progressService {
	logger, _ := zap.NewDevelopment()
	return NewProgressService(progressRepo, userRepo, badgeRepo, &mockActivityProgressRepository{}, lessonRepo, logger)
}

func TestProgressService_StartLesson(t *testing.T) {
	lesson := &models.Lesson{ID: 10, Title: "Fractions", XPValue: 21}

	t.Run("first contact creates the row", func(t *testing.T) {
		svc := newProgressService(
			&mockProgressRepository{getErr: errors.New("progress not found")},
			&mockUserProgressRepository{},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		progress, err := svc.StartLesson(context.Background(), 2, 10)

		require.NoError(t, err)
		assert.Equal(t, models.ProgressStatusInProgress, progress.Status)
		assert.Equal(t, 1, progress.Attempts)
	})

	t.Run("retry bumps the attempt counter", func(t *testing.T) {
		svc := newProgressService(
			&mockProgressRepository{progress: &models.Progress{ID: 5, Status: models.ProgressStatusFailed, Attempts: 1}},
			&mockUserProgressRepository{},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		progress, err := svc.StartLesson(context.Background(), 2, 10)

		require.NoError(t, err)
		assert.Equal(t, models.ProgressStatusInProgress, progress.Status)
		assert.Equal(t, 2, progress.Attempts)
	})

	t.Run("completed lesson cannot be restarted", func(t *testing.T) {
		svc := newProgressService(
			&mockProgressRepository{progress: &models.Progress{ID: 5, Status: models.ProgressStatusCompleted}},
			&mockUserProgressRepository{},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		_, err := svc.StartLesson(context.Background(), 2, 10)

		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		svc := newProgressService(
			&mockProgressRepository{},
			&mockUserProgressRepository{},
			&mockBadgeRepository{},
			&mockLessonRepository{err: errors.New("lesson not found")},
		)

		_, err := svc.StartLesson(context.Background(), 2, 10)

		assert.Error(t, err)
	})
}

func TestProgressService_CompleteLesson(t *testing.T) {
	lesson := &models.Lesson{ID: 10, Title: "Fractions", XPValue: 21}
	inProgress := func() *mockProgressRepository {
		return &mockProgressRepository{progress: &models.Progress{ID: 5, Status: models.ProgressStatusInProgress, Attempts: 1}}
	}

	t.Run("passing score awards xp", func(t *testing.T) {
		svc := newProgressService(
			inProgress(),
			&mockUserProgressRepository{user: &models.User{ID: 2, TotalXP: 90, CurrentLevel: 1, LessonsDone: 4}},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		result, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(95)})

		require.NoError(t, err)
		assert.Equal(t, models.ProgressStatusCompleted, result.Status)
		assert.Equal(t, 21, result.XPAwarded)
		assert.Equal(t, 111, result.TotalXP)
		assert.Equal(t, 2, result.Level)
		assert.True(t, result.LeveledUp)
		assert.Equal(t, 1, result.StreakDays)
	})

	t.Run("failing score awards nothing", func(t *testing.T) {
		svc := newProgressService(
			inProgress(),
			&mockUserProgressRepository{user: &models.User{ID: 2}},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		result, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(60)})

		require.NoError(t, err)
		assert.Equal(t, models.ProgressStatusFailed, result.Status)
		assert.Zero(t, result.XPAwarded)
		assert.Zero(t, result.TotalXP)
	})

	t.Run("score exactly at the threshold passes", func(t *testing.T) {
		svc := newProgressService(
			inProgress(),
			&mockUserProgressRepository{user: &models.User{ID: 2, TotalXP: 10, CurrentLevel: 1}},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		result, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(models.PassingScore)})

		require.NoError(t, err)
		assert.Equal(t, models.ProgressStatusCompleted, result.Status)
		assert.False(t, result.LeveledUp)
	})

	t.Run("already completed", func(t *testing.T) {
		svc := newProgressService(
			&mockProgressRepository{progress: &models.Progress{ID: 5, Status: models.ProgressStatusCompleted}},
			&mockUserProgressRepository{user: &models.User{ID: 2}},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		_, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(95)})

		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("missing score", func(t *testing.T) {
		svc := newProgressService(
			inProgress(),
			&mockUserProgressRepository{user: &models.User{ID: 2}},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		_, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "score is required")
	})

	t.Run("score out of range", func(t *testing.T) {
		svc := newProgressService(
			inProgress(),
			&mockUserProgressRepository{user: &models.User{ID: 2}},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		for _, score := range []float64{-1, 101} {
			_, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(score)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "score must be between 0 and 100")
		}
	})

	t.Run("threshold badges are awarded once", func(t *testing.T) {
		badges := []models.Badge{
			{ID: 1, Name: "First Steps", Criterion: models.BadgeCriterionLessons, Threshold: 1},
			{ID: 2, Name: "Scholar", Criterion: models.BadgeCriterionLessons, Threshold: 10},
			{ID: 3, Name: "Centurion", Criterion: models.BadgeCriterionXP, Threshold: 100},
		}
		svc := newProgressService(
			inProgress(),
			&mockUserProgressRepository{user: &models.User{ID: 2, TotalXP: 90, CurrentLevel: 1, LessonsDone: 4}},
			&mockBadgeRepository{badges: badges, earned: map[int]bool{1: true}},
			&mockLessonRepository{lesson: lesson},
		)

		result, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(100)})

		require.NoError(t, err)
		// Badge 1 was already earned, badge 2 is still out of reach
		require.Len(t, result.NewBadges, 1)
		assert.Equal(t, "Centurion", result.NewBadges[0].Name)
	})
}

func TestProgressService_Streak(t *testing.T) {
	lesson := &models.Lesson{ID: 10, Title: "Fractions", XPValue: 21}
	now := time.Now()

	tests := []struct {
		name           string
		lastCompletion *time.Time
		streakDays     int
		expectedStreak int
	}{
		{
			name:           "first ever completion",
			lastCompletion: nil,
			streakDays:     0,
			expectedStreak: 1,
		},
		{
			name: "same day keeps the streak",
			lastCompletion: func() *time.Time {
				d := now.Add(-time.Minute)
				return &d
			}(),
			streakDays:     3,
			expectedStreak: 3,
		},
		{
			// Late on the previous calendar day, so the clock gap to now
			// can be under 24 hours and must still count as the next day.
			name: "next day extends the streak",
			lastCompletion: func() *time.Time {
				d := dayOf(now).Add(-time.Hour)
				return &d
			}(),
			streakDays:     3,
			expectedStreak: 4,
		},
		{
			name: "missed day resets the streak",
			lastCompletion: func() *time.Time {
				d := dayOf(now).AddDate(0, 0, -3)
				return &d
			}(),
			streakDays:     9,
			expectedStreak: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newProgressService(
				&mockProgressRepository{
					progress:       &models.Progress{ID: 5, Status: models.ProgressStatusInProgress},
					lastCompletion: tt.lastCompletion,
				},
				&mockUserProgressRepository{user: &models.User{ID: 2, CurrentLevel: 1, StreakDays: tt.streakDays}},
				&mockBadgeRepository{},
				&mockLessonRepository{lesson: lesson},
			)

			result, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(100)})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStreak, result.StreakDays)
		})
	}

	// The completion row written during the call must not feed the streak,
	// or the previous completion date would always be "just now" and the
	// streak could never grow past 1.
	t.Run("streak reads the previous completion, not the one being written", func(t *testing.T) {
		yesterday := dayOf(now).Add(-time.Hour)
		repo := &mockProgressRepository{
			progress:       &models.Progress{ID: 5, Status: models.ProgressStatusInProgress},
			lastCompletion: &yesterday,
		}
		svc := newProgressService(
			repo,
			&mockUserProgressRepository{user: &models.User{ID: 2, CurrentLevel: 1, StreakDays: 3}},
			&mockBadgeRepository{},
			&mockLessonRepository{lesson: lesson},
		)

		result, err := svc.CompleteLesson(context.Background(), 2, 10, &models.CompleteLessonRequest{Score: scoreOf(95)})

		require.NoError(t, err)
		assert.Equal(t, 4, result.StreakDays)
		// The mock advanced lastCompletion to the new row, like the real table
		require.NotNil(t, repo.lastCompletion)
		assert.True(t, repo.lastCompletion.After(yesterday))
	})
}

func TestProgressService_GetRecentActivity(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	activities := make([]models.ActivityLog, 30)
	for i := range activities {
		activities[i] = models.ActivityLog{ID: i + 1, UserID: 2, ActivityType: "lesson_complete"}
	}

	svc := NewProgressService(
		&mockProgressRepository{},
		&mockUserProgressRepository{},
		&mockBadgeRepository{},
		&mockActivityProgressRepository{activities: activities},
		&mockLessonRepository{},
		logger,
	)

	// Out-of-range limits fall back to the default page size
	got, err := svc.GetRecentActivity(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, got, 20)

	got, err = svc.GetRecentActivity(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
