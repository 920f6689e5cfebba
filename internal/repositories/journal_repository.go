package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/savagehomeschool/backend/internal/models"
)

type journalRepository struct {
	db *sql.DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *sql.DB) *journalRepository {
	return &journalRepository{
		db: db,
	}
}

const journalColumns = `id, user_id, COALESCE(title, ''), content, COALESCE(tags, ''), COALESCE(mood, ''), is_draft, created_at, updated_at`

func scanJournalEntry(row interface{ Scan(...any) error }) (*models.JournalEntry, error) {
	var entry models.JournalEntry

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Title,
		&entry.Content,
		&entry.Tags,
		&entry.Mood,
		&entry.IsDraft,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// GetByID retrieves a journal entry by ID
func (r *journalRepository) GetByID(ctx context.Context, id int) (*models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE id = ? LIMIT 1`

	entry, err := scanJournalEntry(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("journal entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return entry, nil
}

// GetByUser retrieves a user's saved entries, newest first. Drafts are excluded.
func (r *journalRepository) GetByUser(ctx context.Context, userID int, filter *models.JournalFilter) ([]models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE user_id = ? AND is_draft = FALSE`
	args := []any{userID}

	if filter != nil {
		if filter.Since != nil {
			query += ` AND created_at >= ?`
			args = append(args, *filter.Since)
		}
		if filter.Mood != "" {
			query += ` AND mood = ?`
			args = append(args, filter.Mood)
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// GetDraftByUser retrieves the user's current draft, or nil if there is none
func (r *journalRepository) GetDraftByUser(ctx context.Context, userID int) (*models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE user_id = ? AND is_draft = TRUE ORDER BY updated_at DESC LIMIT 1`

	entry, err := scanJournalEntry(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal draft: %w", err)
	}

	return entry, nil
}

// Create creates a new journal entry
func (r *journalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (user_id, title, content, tags, mood, is_draft)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID,
		nullString(entry.Title),
		entry.Content,
		nullString(entry.Tags),
		nullString(entry.Mood),
		entry.IsDraft,
	)
	if err != nil {
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = int(id)
	return nil
}

// Update overwrites an entry's content fields. Saving a draft clears is_draft.
func (r *journalRepository) Update(ctx context.Context, id int, title, content, tags, mood string, isDraft bool) error {
	query := `
		UPDATE journal_entries
		SET title = ?, content = ?, tags = ?, mood = ?, is_draft = ?, updated_at = NOW()
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, nullString(title), content, nullString(tags), nullString(mood), isDraft, id)
	if err != nil {
		return fmt.Errorf("failed to update journal entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("journal entry not found")
	}

	return nil
}

// Delete removes a journal entry
func (r *journalRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM journal_entries WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("journal entry not found")
	}

	return nil
}

// GetStats returns entry counts for a user. Drafts are excluded.
func (r *journalRepository) GetStats(ctx context.Context, userID int) (*models.JournalStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN created_at >= DATE_FORMAT(NOW(), '%Y-%m-01') THEN 1 ELSE 0 END), 0)
		FROM journal_entries
		WHERE user_id = ? AND is_draft = FALSE
	`

	var stats models.JournalStats
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&stats.TotalEntries, &stats.ThisMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to get journal stats: %w", err)
	}

	return &stats, nil
}
