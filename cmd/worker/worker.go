package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/mailer"
	"github.com/savagehomeschool/backend/internal/models"
	"github.com/savagehomeschool/backend/internal/tasks"
)

// ReportUserRepository defines the interface for user lookups used by the weekly report
type ReportUserRepository interface {
	// GetAll retrieves all users, optionally filtered by role
	//
	// "role" parameter filters the returned users by role; a nil value returns every user.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetAll(ctx context.Context, role *models.Role) ([]models.User, error)
	// GetChildrenByParentID retrieves summaries of the children linked to a parent
	//
	// "parentID" parameter is used to retrieve the children linked to a parent.
	//
	// If some error occurs during data retrieve, the error will be returned together with "nil" value.
	GetChildrenByParentID(ctx context.Context, parentID int) ([]models.ChildSummary, error)
}

// ReportProgressRepository defines the interface for progress aggregation used by the weekly report
type ReportProgressRepository interface {
	// CountCompletedSince counts completions and earned XP for a user since a cutoff
	//
	// "userID" parameter selects the user whose completions are counted.
	// "since" parameter is the inclusive cutoff for completions.
	//
	// If some error occurs during data retrieve, the error will be returned together with zero values.
	CountCompletedSince(ctx context.Context, userID int, since time.Time) (int, int, error)
}

// BackupRunner creates a backup archive.
type BackupRunner interface {
	Run(ctx context.Context) (string, error)
}

// VideoPrefetcher warms the video search cache.
type VideoPrefetcher interface {
	SearchVideos(ctx context.Context, topic string, gradeLevel, limit int) ([]models.Video, error)
}

// ContentPrefetcher warms the content search cache.
type ContentPrefetcher interface {
	Search(ctx context.Context, query, subject string, gradeLevel int) ([]models.ContentItem, error)
}

// APODPrefetcher warms the astronomy picture cache.
type APODPrefetcher interface {
	APOD(ctx context.Context, date string) (*models.APOD, error)
}

// Worker handles background task processing
type Worker struct {
	logger       *zap.Logger
	userRepo     ReportUserRepository
	progressRepo ReportProgressRepository
	backup       BackupRunner
	videos       VideoPrefetcher
	library      ContentPrefetcher
	astronomy    APODPrefetcher
	sender       mailer.Sender
}

// NewWorker creates a new worker instance
func NewWorker(
	logger *zap.Logger,
	userRepo ReportUserRepository,
	progressRepo ReportProgressRepository,
	backup BackupRunner,
	videos VideoPrefetcher,
	library ContentPrefetcher,
	astronomy APODPrefetcher,
	sender mailer.Sender,
) *Worker {
	return &Worker{
		logger:       logger,
		userRepo:     userRepo,
		progressRepo: progressRepo,
		backup:       backup,
		videos:       videos,
		library:      library,
		astronomy:    astronomy,
		sender:       sender,
	}
}

// HandleBackup creates a backup archive
func (w *Worker) HandleBackup(ctx context.Context, t *asynq.Task) error {
	name, err := w.backup.Run(ctx)
	if err != nil {
		return fmt.Errorf("backup task failed: %w", err)
	}
	w.logger.Info("Backup task completed", zap.String("file", name))
	return nil
}

// HandlePrefetch warms the external content caches for the configured topics
func (w *Worker) HandlePrefetch(ctx context.Context, t *asynq.Task) error {
	var payload tasks.PrefetchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to parse prefetch payload: %w", err)
	}

	for _, topic := range payload.Topics {
		if _, err := w.videos.SearchVideos(ctx, topic, 0, 10); err != nil {
			w.logger.Warn("Video prefetch failed", zap.String("topic", topic), zap.Error(err))
		}
		if _, err := w.library.Search(ctx, topic, "", 0); err != nil {
			w.logger.Warn("Library prefetch failed", zap.String("topic", topic), zap.Error(err))
		}
	}

	// Today's astronomy picture is requested regardless of topics.
	if _, err := w.astronomy.APOD(ctx, ""); err != nil {
		w.logger.Warn("APOD prefetch failed", zap.Error(err))
	}

	w.logger.Info("Prefetch task completed", zap.Int("topics", len(payload.Topics)))
	return nil
}

// HandleWeeklyReport sends each parent a summary of their children's week
func (w *Worker) HandleWeeklyReport(ctx context.Context, t *asynq.Task) error {
	role := models.RoleParent
	parents, err := w.userRepo.GetAll(ctx, &role)
	if err != nil {
		return fmt.Errorf("failed to list parents: %w", err)
	}

	weekEnding := time.Now()
	weekStart := weekEnding.AddDate(0, 0, -7)
	sent := 0

	for _, parent := range parents {
		if parent.Email == "" || parent.Status != models.UserStatusActive {
			continue
		}

		children, err := w.userRepo.GetChildrenByParentID(ctx, parent.ID)
		if err != nil {
			w.logger.Error("Failed to load children for report", zap.Int("parent_id", parent.ID), zap.Error(err))
			continue
		}

		weeks := make([]mailer.ChildWeek, 0, len(children))
		for _, child := range children {
			count, xp, err := w.progressRepo.CountCompletedSince(ctx, child.ID, weekStart)
			if err != nil {
				w.logger.Error("Failed to aggregate child week", zap.Int("child_id", child.ID), zap.Error(err))
				continue
			}
			weeks = append(weeks, mailer.ChildWeek{Child: child, LessonsCompleted: count, XPEarned: xp})
		}

		subject, body := mailer.RenderWeeklyReport(parent.Username, weekEnding, weeks)
		if err := w.sender.Send(parent.Email, subject, body); err != nil {
			w.logger.Error("Failed to send weekly report", zap.Int("parent_id", parent.ID), zap.Error(err))
			continue
		}
		sent++
	}

	w.logger.Info("Weekly report task completed", zap.Int("sent", sent))
	return nil
}
