package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savagehomeschool/backend/internal/models"
)

// mockJournalRepository is a mock implementation of JournalRepository
type mockJournalRepository struct {
	entry      *models.JournalEntry
	entries    []models.JournalEntry
	draft      *models.JournalEntry
	stats      *models.JournalStats
	err        error
	updateArgs *struct {
		id      int
		isDraft bool
	}
	deletedID int
}

func (m *mockJournalRepository) GetByID(ctx context.Context, id int) (*models.JournalEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entry, nil
}

func (m *mockJournalRepository) GetByUser(ctx context.Context, userID int, filter *models.JournalFilter) ([]models.JournalEntry, error) {
	return m.entries, m.err
}

func (m *mockJournalRepository) GetDraftByUser(ctx context.Context, userID int) (*models.JournalEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.draft, nil
}

func (m *mockJournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = 11
	return nil
}

func (m *mockJournalRepository) Update(ctx context.Context, id int, title, content, tags, mood string, isDraft bool) error {
	m.updateArgs = &struct {
		id      int
		isDraft bool
	}{id, isDraft}
	return m.err
}

func (m *mockJournalRepository) Delete(ctx context.Context, id int) error {
	m.deletedID = id
	return m.err
}

func (m *mockJournalRepository) GetStats(ctx context.Context, userID int) (*models.JournalStats, error) {
	return m.stats, m.err
}

func TestJournalService_CreateEntry(t *testing.T) {
	t.Run("plain create", func(t *testing.T) {
		repo := &mockJournalRepository{}
		svc := NewJournalService(repo)

		entry, err := svc.CreateEntry(context.Background(), 2, &models.CreateJournalEntryRequest{
			Title:   "My Day",
			Content: "We went to the museum.",
			Mood:    "happy",
		})

		require.NoError(t, err)
		assert.Equal(t, 11, entry.ID)
		assert.False(t, entry.IsDraft)
	})

	t.Run("existing draft is promoted, not duplicated", func(t *testing.T) {
		repo := &mockJournalRepository{draft: &models.JournalEntry{ID: 7, UserID: 2, IsDraft: true}}
		svc := NewJournalService(repo)

		entry, err := svc.CreateEntry(context.Background(), 2, &models.CreateJournalEntryRequest{
			Content: "Finished version.",
		})

		require.NoError(t, err)
		assert.Equal(t, 7, entry.ID)
		assert.False(t, entry.IsDraft)
		require.NotNil(t, repo.updateArgs)
		assert.Equal(t, 7, repo.updateArgs.id)
		assert.False(t, repo.updateArgs.isDraft)
	})

	t.Run("empty content", func(t *testing.T) {
		svc := NewJournalService(&mockJournalRepository{})

		_, err := svc.CreateEntry(context.Background(), 2, &models.CreateJournalEntryRequest{Content: "  "})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "journal content cannot be empty")
	})
}

func TestJournalService_SaveDraft(t *testing.T) {
	t.Run("first draft creates a row", func(t *testing.T) {
		svc := NewJournalService(&mockJournalRepository{})

		draft, err := svc.SaveDraft(context.Background(), 2, &models.CreateJournalEntryRequest{Content: "wip"})

		require.NoError(t, err)
		assert.True(t, draft.IsDraft)
	})

	t.Run("second save overwrites the same draft", func(t *testing.T) {
		repo := &mockJournalRepository{draft: &models.JournalEntry{ID: 7, UserID: 2, IsDraft: true}}
		svc := NewJournalService(repo)

		draft, err := svc.SaveDraft(context.Background(), 2, &models.CreateJournalEntryRequest{Content: "wip v2"})

		require.NoError(t, err)
		assert.Equal(t, 7, draft.ID)
		assert.Equal(t, "wip v2", draft.Content)
		require.NotNil(t, repo.updateArgs)
		assert.True(t, repo.updateArgs.isDraft)
	})
}

func TestJournalService_GetEntry(t *testing.T) {
	entry := &models.JournalEntry{ID: 7, UserID: 2, Content: "private"}

	t.Run("owner reads own entry", func(t *testing.T) {
		svc := NewJournalService(&mockJournalRepository{entry: entry})

		got, err := svc.GetEntry(context.Background(), 2, models.RoleChild, 7)

		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("admin reads any entry", func(t *testing.T) {
		svc := NewJournalService(&mockJournalRepository{entry: entry})

		_, err := svc.GetEntry(context.Background(), 99, models.RoleAdmin, 7)

		assert.NoError(t, err)
	})

	t.Run("other children are told nothing exists", func(t *testing.T) {
		svc := NewJournalService(&mockJournalRepository{entry: entry})

		_, err := svc.GetEntry(context.Background(), 3, models.RoleChild, 7)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "journal entry not found")
	})
}

func TestJournalService_DeleteEntry(t *testing.T) {
	entry := &models.JournalEntry{ID: 7, UserID: 2}

	t.Run("owner deletes", func(t *testing.T) {
		repo := &mockJournalRepository{entry: entry}
		svc := NewJournalService(repo)

		require.NoError(t, svc.DeleteEntry(context.Background(), 2, 7))
		assert.Equal(t, 7, repo.deletedID)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		repo := &mockJournalRepository{entry: entry}
		svc := NewJournalService(repo)

		err := svc.DeleteEntry(context.Background(), 3, 7)

		require.Error(t, err)
		assert.Zero(t, repo.deletedID)
	})
}

func TestJournalService_ExportEntries(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc := NewJournalService(&mockJournalRepository{entries: []models.JournalEntry{
		{ID: 1, Title: "Museum Day", Content: "We saw dinosaurs.", Mood: "excited", CreatedAt: created},
		{ID: 2, Content: "Quiet day at home.", CreatedAt: created.AddDate(0, 0, 1)},
	}})

	t.Run("plain text by default", func(t *testing.T) {
		data, err := svc.ExportEntries(context.Background(), 2, "")

		require.NoError(t, err)
		text := string(data)
		assert.Contains(t, text, "March 14, 2026 - Museum Day")
		assert.Contains(t, text, "Mood: excited")
		assert.Contains(t, text, "We saw dinosaurs.")
		assert.Contains(t, text, "March 15, 2026")
		assert.Contains(t, text, "---")
	})

	t.Run("json format", func(t *testing.T) {
		data, err := svc.ExportEntries(context.Background(), 2, "json")

		require.NoError(t, err)
		var entries []models.JournalEntry
		require.NoError(t, json.Unmarshal(data, &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "Museum Day", entries[0].Title)
		assert.Equal(t, "Quiet day at home.", entries[1].Content)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := svc.ExportEntries(context.Background(), 2, "pdf")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid export format")
	})
}

func TestDailyPrompt(t *testing.T) {
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	first := DailyPrompt(day)
	assert.NotEmpty(t, first)
	// Same day always gets the same prompt, the next day gets a different one
	assert.Equal(t, first, DailyPrompt(day.Add(3*time.Hour)))
	assert.NotEqual(t, first, DailyPrompt(day.AddDate(0, 0, 1)))
}
