// Package tasks defines the asynq task types shared by the API,
// scheduler and worker binaries.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names. The scheduler enqueues them, the worker handles them.
const (
	TypeBackup       = "backup:run"
	TypePrefetch     = "content:prefetch"
	TypeWeeklyReport = "report:weekly"
)

// PrefetchPayload carries the topics whose content caches should be warmed.
type PrefetchPayload struct {
	Topics []string `json:"topics"`
}

// NewBackupTask creates a backup task.
func NewBackupTask() *asynq.Task {
	return asynq.NewTask(TypeBackup, nil)
}

// NewPrefetchTask creates a content prefetch task for the given topics.
func NewPrefetchTask(topics []string) (*asynq.Task, error) {
	payload, err := json.Marshal(PrefetchPayload{Topics: topics})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prefetch payload: %w", err)
	}
	return asynq.NewTask(TypePrefetch, payload), nil
}

// NewWeeklyReportTask creates a weekly parent report task.
func NewWeeklyReportTask() *asynq.Task {
	return asynq.NewTask(TypeWeeklyReport, nil)
}
