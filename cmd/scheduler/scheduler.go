package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/tasks"
)

// guardTTL keeps the per-day run markers around long enough to survive
// restarts without blocking the next day's run.
const guardTTL = 48 * time.Hour

// Scheduler turns the configured cron expressions into queued tasks.
type Scheduler struct {
	redis       *redis.Client
	asynqClient *asynq.Client
	logger      *zap.Logger
	cron        *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(redisClient *redis.Client, asynqClient *asynq.Client, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		redis:       redisClient,
		asynqClient: asynqClient,
		logger:      logger,
		cron:        cron.New(),
	}
}

// Register adds a cron entry that enqueues build() when the schedule fires.
// The name keys the redis last-run guard.
func (s *Scheduler) Register(name, schedule string, build func() (*asynq.Task, error)) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.enqueue(name, build)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", name, err)
	}
	s.logger.Info("Registered schedule", zap.String("task", name), zap.String("cron", schedule))
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// enqueue pushes the task unless it already ran today. The SETNX guard
// keyed per task and day keeps a restarted scheduler from double-enqueueing.
func (s *Scheduler) enqueue(name string, build func() (*asynq.Task, error)) {
	ctx := context.Background()

	key := fmt.Sprintf("scheduler:lastrun:%s:%s", name, time.Now().Format("2006-01-02"))
	ok, err := s.redis.SetNX(ctx, key, time.Now().Format(time.RFC3339), guardTTL).Result()
	if err != nil {
		s.logger.Error("Failed to check last-run guard", zap.String("task", name), zap.Error(err))
		return
	}
	if !ok {
		s.logger.Debug("Task already enqueued today", zap.String("task", name))
		return
	}

	task, err := build()
	if err != nil {
		s.logger.Error("Failed to build task", zap.String("task", name), zap.Error(err))
		return
	}

	info, err := s.asynqClient.Enqueue(task, asynq.Queue("default"))
	if err != nil {
		// Release the guard so the next tick can retry.
		s.redis.Del(ctx, key)
		s.logger.Error("Failed to enqueue task", zap.String("task", name), zap.Error(err))
		return
	}

	s.logger.Info("Enqueued scheduled task", zap.String("task", name), zap.String("job_id", info.ID))
}

// registerAll wires the configured schedules.
func (s *Scheduler) registerAll(backupEnabled bool, backupSchedule, prefetchSchedule, reportSchedule string, topics []string) error {
	if backupEnabled {
		if err := s.Register(tasks.TypeBackup, backupSchedule, func() (*asynq.Task, error) {
			return tasks.NewBackupTask(), nil
		}); err != nil {
			return err
		}
	}

	if len(topics) > 0 {
		if err := s.Register(tasks.TypePrefetch, prefetchSchedule, func() (*asynq.Task, error) {
			return tasks.NewPrefetchTask(topics)
		}); err != nil {
			return err
		}
	}

	return s.Register(tasks.TypeWeeklyReport, reportSchedule, func() (*asynq.Task, error) {
		return tasks.NewWeeklyReportTask(), nil
	})
}
