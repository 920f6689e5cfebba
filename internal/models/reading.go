package models

import "time"

// ReadingStatus represents the state of a reading log entry
type ReadingStatus string

const (
	ReadingStatusReading   ReadingStatus = "reading"
	ReadingStatusCompleted ReadingStatus = "completed"
	ReadingStatusAbandoned ReadingStatus = "abandoned"
)

// ReadingLog represents one book a child is reading or has read
type ReadingLog struct {
	ID          int           `json:"id"`
	UserID      int           `json:"userId"`
	BookTitle   string        `json:"bookTitle"`
	Author      string        `json:"author,omitempty"`
	ISBN        string        `json:"isbn,omitempty"`
	Rating      int           `json:"rating,omitempty"` // 1-5 stars
	Review      string        `json:"review,omitempty"`
	ReadingTime int           `json:"readingTime"` // minutes
	Status      ReadingStatus `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// CreateReadingLogRequest represents a request to start tracking a book
type CreateReadingLogRequest struct {
	BookTitle string `json:"bookTitle"`
	Author    string `json:"author,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
}

// UpdateReadingLogRequest represents a partial update of a reading log entry
type UpdateReadingLogRequest struct {
	Rating      *int          `json:"rating,omitempty"`
	Review      string        `json:"review,omitempty"`
	ReadingTime *int          `json:"readingTime,omitempty"`
	Status      ReadingStatus `json:"status,omitempty"`
}
