package models

import "time"

// ProgressStatus represents the state of a user's work on a lesson
type ProgressStatus string

const (
	ProgressStatusNotStarted ProgressStatus = "not_started"
	ProgressStatusInProgress ProgressStatus = "in_progress"
	ProgressStatusCompleted  ProgressStatus = "completed"
	ProgressStatusFailed     ProgressStatus = "failed"
)

// PassingScore is the minimum percentage score that counts as completion
const PassingScore = 80.0

// Progress represents a user's progress on a single lesson
type Progress struct {
	ID          int            `json:"id"`
	UserID      int            `json:"userId"`
	LessonID    int            `json:"lessonId"`
	Status      ProgressStatus `json:"status"`
	Score       *float64       `json:"score,omitempty"`
	Attempts    int            `json:"attempts"`
	TimeSpent   int            `json:"timeSpent"` // seconds
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CompleteLessonRequest represents a lesson completion submission.
// Score is a pointer so an absent score can be told apart from zero.
type CompleteLessonRequest struct {
	Score     *float64 `json:"score"`
	TimeSpent int      `json:"timeSpent,omitempty"` // seconds
}

// SubjectProgress represents per-subject aggregates for a child
type SubjectProgress struct {
	SubjectID        int    `json:"subjectId"`
	SubjectName      string `json:"subjectName"`
	TotalLessons     int    `json:"totalLessons"`
	CompletedLessons int    `json:"completedLessons"`
	EarnedXP         int    `json:"earnedXp"`
}

// ActivityLog represents a recorded user action
type ActivityLog struct {
	ID           int       `json:"id"`
	UserID       int       `json:"userId"`
	ActivityType string    `json:"activityType"` // login, lesson_start, lesson_complete, ...
	Description  string    `json:"description,omitempty"`
	Metadata     string    `json:"metadata,omitempty"` // JSON blob
	CreatedAt    time.Time `json:"createdAt"`
}

// LevelForXP computes the gamification level a child holds for a given XP total
func LevelForXP(totalXP int) int {
	return totalXP/100 + 1
}
