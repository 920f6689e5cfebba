package main

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
	"github.com/savagehomeschool/backend/internal/tasks"
)

type mockReportUserRepository struct {
	users    []models.User
	children map[int][]models.ChildSummary
	err      error
}

func (m *mockReportUserRepository) GetAll(ctx context.Context, role *models.Role) ([]models.User, error) {
	return m.users, m.err
}

func (m *mockReportUserRepository) GetChildrenByParentID(ctx context.Context, parentID int) ([]models.ChildSummary, error) {
	return m.children[parentID], nil
}

type mockReportProgressRepository struct {
	count int
	xp    int
	err   error
}

func (m *mockReportProgressRepository) CountCompletedSince(ctx context.Context, userID int, since time.Time) (int, int, error) {
	return m.count, m.xp, m.err
}

type mockBackupRunner struct {
	name string
	err  error
	runs int
}

func (m *mockBackupRunner) Run(ctx context.Context) (string, error) {
	m.runs++
	return m.name, m.err
}

type mockVideoPrefetcher struct {
	topics []string
}

func (m *mockVideoPrefetcher) SearchVideos(ctx context.Context, topic string, gradeLevel, limit int) ([]models.Video, error) {
	m.topics = append(m.topics, topic)
	return nil, nil
}

type mockContentPrefetcher struct {
	queries []string
}

func (m *mockContentPrefetcher) Search(ctx context.Context, query, subject string, gradeLevel int) ([]models.ContentItem, error) {
	m.queries = append(m.queries, query)
	return nil, nil
}

type mockAPODPrefetcher struct {
	calls int
}

func (m *mockAPODPrefetcher) APOD(ctx context.Context, date string) (*models.APOD, error) {
	m.calls++
	return &models.APOD{Title: "test"}, nil
}

type mockSender struct {
	recipients []string
	subjects   []string
	bodies     []string
	err        error
}

func (m *mockSender) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.recipients = append(m.recipients, to)
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return nil
}

func newTestWorker(t *testing.T) (*Worker, *mockReportUserRepository, *mockBackupRunner, *mockVideoPrefetcher, *mockContentPrefetcher, *mockAPODPrefetcher, *mockSender) {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	users := &mockReportUserRepository{
		users: []models.User{
			{ID: 1, Username: "mom", Email: "mom@example.com", Role: models.RoleParent, Status: models.UserStatusActive},
			{ID: 2, Username: "noemail", Role: models.RoleParent, Status: models.UserStatusActive},
		},
		children: map[int][]models.ChildSummary{
			1: {{ID: 3, Username: "alice", GradeLevel: 4, TotalXP: 200, CurrentLevel: 3, StreakDays: 2}},
		},
	}
	progress := &mockReportProgressRepository{count: 5, xp: 110}
	backup := &mockBackupRunner{name: "backup_20260830_020000.zip"}
	videos := &mockVideoPrefetcher{}
	library := &mockContentPrefetcher{}
	astronomy := &mockAPODPrefetcher{}
	sender := &mockSender{}

	worker := NewWorker(logger, users, progress, backup, videos, library, astronomy, sender)
	return worker, users, backup, videos, library, astronomy, sender
}

func TestWorker_HandleBackup(t *testing.T) {
	worker, _, backup, _, _, _, _ := newTestWorker(t)

	err := worker.HandleBackup(context.Background(), tasks.NewBackupTask())
	require.NoError(t, err)
	assert.Equal(t, 1, backup.runs)
}

func TestWorker_HandlePrefetch(t *testing.T) {
	worker, _, _, videos, library, astronomy, _ := newTestWorker(t)

	task, err := tasks.NewPrefetchTask([]string{"fractions", "volcanoes"})
	require.NoError(t, err)

	err = worker.HandlePrefetch(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, []string{"fractions", "volcanoes"}, videos.topics)
	assert.Equal(t, []string{"fractions", "volcanoes"}, library.queries)
	assert.Equal(t, 1, astronomy.calls)
}

func TestWorker_HandlePrefetchBadPayload(t *testing.T) {
	worker, _, _, _, _, _, _ := newTestWorker(t)

	err := worker.HandlePrefetch(context.Background(), asynq.NewTask(tasks.TypePrefetch, []byte("not json")))
	require.Error(t, err)
}

func TestWorker_HandleWeeklyReport(t *testing.T) {
	worker, _, _, _, _, _, sender := newTestWorker(t)

	err := worker.HandleWeeklyReport(context.Background(), tasks.NewWeeklyReportTask())
	require.NoError(t, err)

	// Only the parent with an email address gets a report.
	require.Len(t, sender.recipients, 1)
	assert.Equal(t, "mom@example.com", sender.recipients[0])
	assert.Contains(t, sender.bodies[0], "alice (grade 4)")
	assert.Contains(t, sender.bodies[0], "Lessons completed this week: 5")
	assert.Contains(t, sender.bodies[0], "XP earned this week: 110")
}

func TestWorker_HandleWeeklyReportSendFailure(t *testing.T) {
	worker, _, _, _, _, _, sender := newTestWorker(t)
	sender.err = assert.AnError

	// Delivery failures are logged per parent, not retried for everyone.
	err := worker.HandleWeeklyReport(context.Background(), tasks.NewWeeklyReportTask())
	require.NoError(t, err)
	assert.Empty(t, sender.recipients)
}
