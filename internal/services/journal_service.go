package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

// JournalRepository is the interface that wraps journal table access
type JournalRepository interface {
	GetByID(ctx context.Context, id int) (*models.JournalEntry, error)
	GetByUser(ctx context.Context, userID int, filter *models.JournalFilter) ([]models.JournalEntry, error)
	GetDraftByUser(ctx context.Context, userID int) (*models.JournalEntry, error)
	Create(ctx context.Context, entry *models.JournalEntry) error
	Update(ctx context.Context, id int, title, content, tags, mood string, isDraft bool) error
	Delete(ctx context.Context, id int) error
	GetStats(ctx context.Context, userID int) (*models.JournalStats, error)
}

// writingPrompts rotate daily to nudge children who do not know what to write
var writingPrompts = []string{
	"What was the best part of your day?",
	"Write about something new you learned this week.",
	"If you could visit anywhere in the world, where would you go and why?",
	"Describe your favorite book character and what you like about them.",
	"What is something you are proud of?",
	"Write about a time you helped someone.",
	"What would you invent to make life easier?",
	"Describe your perfect day from start to finish.",
	"What animal would you like to be for a day, and what would you do?",
	"Write about something that made you laugh recently.",
	"What do you want to be really good at, and how could you practice?",
	"If you could have dinner with anyone from history, who would it be?",
	"Write about your favorite place to spend time.",
	"What is the hardest thing you have ever learned to do?",
}

// journalService implements the child journal with drafts and daily prompts
type journalService struct {
	journalRepo JournalRepository
}

// NewJournalService creates a new journal service
func NewJournalService(journalRepo JournalRepository) *journalService {
	return &journalService{
		journalRepo: journalRepo,
	}
}

// CreateEntry saves a journal entry. When a draft exists it is overwritten
// and promoted to a saved entry instead of creating a second row.
func (s *journalService) CreateEntry(ctx context.Context, userID int, req *models.CreateJournalEntryRequest) (*models.JournalEntry, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("journal content cannot be empty")
	}

	draft, err := s.journalRepo.GetDraftByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		if err := s.journalRepo.Update(ctx, draft.ID, req.Title, req.Content, req.Tags, req.Mood, false); err != nil {
			return nil, err
		}
		draft.Title = req.Title
		draft.Content = req.Content
		draft.Tags = req.Tags
		draft.Mood = req.Mood
		draft.IsDraft = false
		return draft, nil
	}

	entry := &models.JournalEntry{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Mood:    req.Mood,
	}
	if err := s.journalRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// SaveDraft creates or overwrites the child's single draft
func (s *journalService) SaveDraft(ctx context.Context, userID int, req *models.CreateJournalEntryRequest) (*models.JournalEntry, error) {
	draft, err := s.journalRepo.GetDraftByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		if err := s.journalRepo.Update(ctx, draft.ID, req.Title, req.Content, req.Tags, req.Mood, true); err != nil {
			return nil, err
		}
		draft.Title = req.Title
		draft.Content = req.Content
		draft.Tags = req.Tags
		draft.Mood = req.Mood
		return draft, nil
	}

	entry := &models.JournalEntry{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Mood:    req.Mood,
		IsDraft: true,
	}
	if err := s.journalRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// GetDraft retrieves the child's current draft, nil when there is none
func (s *journalService) GetDraft(ctx context.Context, userID int) (*models.JournalEntry, error) {
	return s.journalRepo.GetDraftByUser(ctx, userID)
}

// GetEntry retrieves an entry. Children can only read their own entries,
// admins can read any.
func (s *journalService) GetEntry(ctx context.Context, userID int, role models.Role, id int) (*models.JournalEntry, error) {
	entry, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID && role != models.RoleAdmin {
		return nil, fmt.Errorf("journal entry not found")
	}

	return entry, nil
}

// ListEntries retrieves a child's saved entries with optional filters
func (s *journalService) ListEntries(ctx context.Context, userID int, filter *models.JournalFilter) ([]models.JournalEntry, error) {
	return s.journalRepo.GetByUser(ctx, userID, filter)
}

// DeleteEntry removes a child's own entry
func (s *journalService) DeleteEntry(ctx context.Context, userID, id int) error {
	entry, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.UserID != userID {
		return fmt.Errorf("journal entry not found")
	}

	return s.journalRepo.Delete(ctx, id)
}

// GetStats retrieves a child's journal counters
func (s *journalService) GetStats(ctx context.Context, userID int) (*models.JournalStats, error) {
	return s.journalRepo.GetStats(ctx, userID)
}

// ExportEntries renders a child's saved entries in the requested format,
// plain text when no format is given.
func (s *journalService) ExportEntries(ctx context.Context, userID int, format string) ([]byte, error) {
	entries, err := s.journalRepo.GetByUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	switch format {
	case "", "text":
		return renderJournalText(entries), nil
	case "json":
		return json.MarshalIndent(entries, "", "  ")
	default:
		return nil, fmt.Errorf("invalid export format %q", format)
	}
}

func renderJournalText(entries []models.JournalEntry) []byte {
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry.CreatedAt.Format("January 2, 2006"))
		if entry.Title != "" {
			sb.WriteString(" - ")
			sb.WriteString(entry.Title)
		}
		sb.WriteString("\n")
		if entry.Mood != "" {
			sb.WriteString("Mood: ")
			sb.WriteString(entry.Mood)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(entry.Content)
		sb.WriteString("\n\n---\n\n")
	}

	return []byte(sb.String())
}

// DailyPrompt returns the writing prompt for a given day
func DailyPrompt(day time.Time) string {
	return writingPrompts[day.YearDay()%len(writingPrompts)]
}
