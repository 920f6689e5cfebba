package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
)

// ErrAlreadyCompleted is returned when a lesson the child already completed
// is completed again. No XP is awarded twice.
var ErrAlreadyCompleted = fmt.Errorf("lesson already completed")

// ProgressRepository is the interface that wraps progress table access
type ProgressRepository interface {
	GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.Progress, error)
	Create(ctx context.Context, progress *models.Progress) error
	Start(ctx context.Context, id int) error
	Complete(ctx context.Context, id int, status models.ProgressStatus, score float64, timeSpent int, completedAt time.Time) error
	GetByUser(ctx context.Context, userID int) ([]models.Progress, error)
	GetSubjectProgress(ctx context.Context, userID, gradeLevel int) ([]models.SubjectProgress, error)
	LastCompletionDate(ctx context.Context, userID int) (*time.Time, error)
}

// UserProgressRepository is the user table access the progress service needs
type UserProgressRepository interface {
	GetByID(ctx context.Context, userID int) (*models.User, error)
	AddXP(ctx context.Context, userID, xp, newLevel, streakDays int) error
}

// BadgeRepository is the interface that wraps badge table access
type BadgeRepository interface {
	GetAll(ctx context.Context) ([]models.Badge, error)
	GetEarnedIDs(ctx context.Context, userID int) (map[int]bool, error)
	Award(ctx context.Context, userID, badgeID int, earnedAt time.Time) error
}

// ActivityProgressRepository is the activity log access the progress service needs
type ActivityProgressRepository interface {
	Create(ctx context.Context, activity *models.ActivityLog) error
	GetRecentByUser(ctx context.Context, userID, limit int) ([]models.ActivityLog, error)
}

// CompletionResult reports everything a completion changed for the child
type CompletionResult struct {
	Status     models.ProgressStatus `json:"status"`
	Score      float64               `json:"score"`
	XPAwarded  int                   `json:"xpAwarded"`
	TotalXP    int                   `json:"totalXp"`
	Level      int                   `json:"level"`
	LeveledUp  bool                  `json:"leveledUp"`
	StreakDays int                   `json:"streakDays"`
	NewBadges  []models.Badge        `json:"newBadges,omitempty"`
}

// progressService implements lesson progress and the gamification rules
type progressService struct {
	progressRepo ProgressRepository
	userRepo     UserProgressRepository
	badgeRepo    BadgeRepository
	activityRepo ActivityProgressRepository
	lessonRepo   LessonRepository
	logger       *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(
	progressRepo ProgressRepository,
	userRepo UserProgressRepository,
	badgeRepo BadgeRepository,
	activityRepo ActivityProgressRepository,
	lessonRepo LessonRepository,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		progressRepo: progressRepo,
		userRepo:     userRepo,
		badgeRepo:    badgeRepo,
		activityRepo: activityRepo,
		lessonRepo:   lessonRepo,
		logger:       logger,
	}
}

// StartLesson marks a lesson as in progress for a child, creating the
// progress row on first contact and bumping the attempt counter otherwise.
func (s *progressService) StartLesson(ctx context.Context, userID, lessonID int) (*models.Progress, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.GetByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		progress = &models.Progress{
			UserID:   userID,
			LessonID: lessonID,
			Status:   models.ProgressStatusInProgress,
			Attempts: 1,
		}
		if err := s.progressRepo.Create(ctx, progress); err != nil {
			return nil, err
		}
	} else {
		if progress.Status == models.ProgressStatusCompleted {
			return nil, ErrAlreadyCompleted
		}
		if err := s.progressRepo.Start(ctx, progress.ID); err != nil {
			return nil, err
		}
		progress.Status = models.ProgressStatusInProgress
		progress.Attempts++
	}

	s.logActivity(userID, "lesson_start", fmt.Sprintf("started lesson %q", lesson.Title), map[string]any{
		"lessonId": lessonID,
	})

	return progress, nil
}

// CompleteLesson records a lesson outcome. A score at or above the passing
// threshold completes the lesson and triggers the XP, level, streak and
// badge updates; a lower score records a failed attempt.
func (s *progressService) CompleteLesson(ctx context.Context, userID, lessonID int, req *models.CompleteLessonRequest) (*CompletionResult, error) {
	if req.Score == nil {
		return nil, fmt.Errorf("score is required")
	}
	score := *req.Score
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("score must be between 0 and 100")
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.GetByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		progress = &models.Progress{
			UserID:   userID,
			LessonID: lessonID,
			Status:   models.ProgressStatusInProgress,
			Attempts: 1,
		}
		if err := s.progressRepo.Create(ctx, progress); err != nil {
			return nil, err
		}
	}
	if progress.Status == models.ProgressStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := time.Now()
	status := models.ProgressStatusFailed
	if score >= models.PassingScore {
		status = models.ProgressStatusCompleted
	}

	result := &CompletionResult{
		Status: status,
		Score:  score,
	}

	if status == models.ProgressStatusFailed {
		if err := s.progressRepo.Complete(ctx, progress.ID, status, score, req.TimeSpent, now); err != nil {
			return nil, err
		}
		s.logActivity(userID, "lesson_failed", fmt.Sprintf("failed lesson %q", lesson.Title), map[string]any{
			"lessonId": lessonID,
			"score":    score,
		})
		return result, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The streak looks at the previous completion date, so it has to be
	// computed before this completion is written.
	streak, err := s.nextStreak(ctx, user, now)
	if err != nil {
		s.logger.Warn("failed to compute streak", zap.Int("userId", userID), zap.Error(err))
		streak = user.StreakDays
	}

	if err := s.progressRepo.Complete(ctx, progress.ID, status, score, req.TimeSpent, now); err != nil {
		return nil, err
	}

	newTotalXP := user.TotalXP + lesson.XPValue
	newLevel := models.LevelForXP(newTotalXP)

	if err := s.userRepo.AddXP(ctx, userID, lesson.XPValue, newLevel, streak); err != nil {
		return nil, err
	}

	result.XPAwarded = lesson.XPValue
	result.TotalXP = newTotalXP
	result.Level = newLevel
	result.LeveledUp = newLevel > user.CurrentLevel
	result.StreakDays = streak

	// Badge checks run against the post-award counters
	updated := *user
	updated.TotalXP = newTotalXP
	updated.LessonsDone = user.LessonsDone + 1
	updated.StreakDays = streak

	newBadges, err := s.evaluateBadges(ctx, &updated, now)
	if err != nil {
		s.logger.Warn("failed to evaluate badges", zap.Int("userId", userID), zap.Error(err))
	}
	result.NewBadges = newBadges

	s.logActivity(userID, "lesson_complete", fmt.Sprintf("completed lesson %q", lesson.Title), map[string]any{
		"lessonId": lessonID,
		"score":    score,
		"xp":       lesson.XPValue,
	})
	if result.LeveledUp {
		s.logActivity(userID, "level_up", fmt.Sprintf("reached level %d", newLevel), nil)
	}
	for _, badge := range newBadges {
		s.logActivity(userID, "badge_earned", fmt.Sprintf("earned badge %q", badge.Name), map[string]any{
			"badgeId": badge.ID,
		})
	}

	return result, nil
}

// nextStreak applies the consecutive-day rule: a completion the day after
// the previous one extends the streak, a same-day completion keeps it, and
// anything else resets it to 1.
func (s *progressService) nextStreak(ctx context.Context, user *models.User, now time.Time) (int, error) {
	last, err := s.progressRepo.LastCompletionDate(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 1, nil
	}

	// Calendar days in the server's timezone, not 24-hour buckets, so a
	// 23:30 completion followed by one at 00:30 still counts as two days.
	lastDay := dayOf(last.In(now.Location()))
	today := dayOf(now)

	switch {
	case lastDay.Equal(today):
		if user.StreakDays == 0 {
			return 1, nil
		}
		return user.StreakDays, nil
	case lastDay.AddDate(0, 0, 1).Equal(today):
		return user.StreakDays + 1, nil
	default:
		return 1, nil
	}
}

// dayOf truncates a time to midnight of its calendar day
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// evaluateBadges awards every badge whose threshold the user now meets
func (s *progressService) evaluateBadges(ctx context.Context, user *models.User, now time.Time) ([]models.Badge, error) {
	badges, err := s.badgeRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	earned, err := s.badgeRepo.GetEarnedIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var newBadges []models.Badge
	for _, badge := range badges {
		if earned[badge.ID] {
			continue
		}

		var counter int
		switch badge.Criterion {
		case models.BadgeCriterionLessons:
			counter = user.LessonsDone
		case models.BadgeCriterionXP:
			counter = user.TotalXP
		case models.BadgeCriterionStreak:
			counter = user.StreakDays
		default:
			continue
		}

		if counter >= badge.Threshold {
			if err := s.badgeRepo.Award(ctx, user.ID, badge.ID, now); err != nil {
				s.logger.Warn("failed to award badge",
					zap.Int("userId", user.ID), zap.Int("badgeId", badge.ID), zap.Error(err))
				continue
			}
			newBadges = append(newBadges, badge)
		}
	}

	return newBadges, nil
}

// GetOverview retrieves a child's per-subject aggregates
func (s *progressService) GetOverview(ctx context.Context, userID int) ([]models.SubjectProgress, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.progressRepo.GetSubjectProgress(ctx, userID, user.GradeLevel)
}

// GetRecentActivity retrieves a user's most recent activity log rows
func (s *progressService) GetRecentActivity(ctx context.Context, userID, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.activityRepo.GetRecentByUser(ctx, userID, limit)
}

// logActivity writes an activity row in the background, failures only logged
func (s *progressService) logActivity(userID int, activityType, description string, metadata map[string]any) {
	go func() {
		activity := &models.ActivityLog{
			UserID:       userID,
			ActivityType: activityType,
			Description:  description,
		}
		if metadata != nil {
			blob, err := json.Marshal(metadata)
			if err == nil {
				activity.Metadata = string(blob)
			}
		}
		if err := s.activityRepo.Create(context.Background(), activity); err != nil {
			s.logger.Warn("failed to log activity",
				zap.Int("userId", userID), zap.String("type", activityType), zap.Error(err))
		}
	}()
}
