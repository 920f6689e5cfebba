package models

import "time"

// JournalEntry represents a child's journal entry
type JournalEntry struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	Tags      string    `json:"tags,omitempty"`
	Mood      string    `json:"mood"`
	IsDraft   bool      `json:"isDraft"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateJournalEntryRequest represents a request to create or draft an entry
type CreateJournalEntryRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Tags    string `json:"tags,omitempty"`
	Mood    string `json:"mood,omitempty"`
}

// JournalFilter holds list filters for journal entries
type JournalFilter struct {
	Since *time.Time
	Mood  string
}

// JournalStats represents aggregate journal counters for a child
type JournalStats struct {
	TotalEntries int `json:"totalEntries"`
	ThisMonth    int `json:"thisMonth"`
}
