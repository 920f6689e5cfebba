package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/savagehomeschool/backend/internal/models"
)

type readingRepository struct {
	db *sql.DB
}

// NewReadingRepository creates a new reading log repository
func NewReadingRepository(db *sql.DB) *readingRepository {
	return &readingRepository{
		db: db,
	}
}

const readingColumns = `id, user_id, book_title, COALESCE(author, ''), COALESCE(isbn, ''), COALESCE(rating, 0), COALESCE(review, ''), reading_time, status, started_at, completed_at`

func scanReadingLog(row interface{ Scan(...any) error }) (*models.ReadingLog, error) {
	var log models.ReadingLog
	var completedAt sql.NullTime

	err := row.Scan(
		&log.ID,
		&log.UserID,
		&log.BookTitle,
		&log.Author,
		&log.ISBN,
		&log.Rating,
		&log.Review,
		&log.ReadingTime,
		&log.Status,
		&log.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		log.CompletedAt = &completedAt.Time
	}

	return &log, nil
}

// GetByID retrieves a reading log entry by ID
func (r *readingRepository) GetByID(ctx context.Context, id int) (*models.ReadingLog, error) {
	query := `SELECT ` + readingColumns + ` FROM reading_log WHERE id = ? LIMIT 1`

	log, err := scanReadingLog(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reading log entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading log entry: %w", err)
	}

	return log, nil
}

// GetByUser retrieves a user's reading log, newest first, optionally filtered by status
func (r *readingRepository) GetByUser(ctx context.Context, userID int, status models.ReadingStatus) ([]models.ReadingLog, error) {
	query := `SELECT ` + readingColumns + ` FROM reading_log WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading log: %w", err)
	}
	defer rows.Close()

	var logs []models.ReadingLog
	for rows.Next() {
		log, err := scanReadingLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading log entry: %w", err)
		}
		logs = append(logs, *log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logs, nil
}

// Create creates a new reading log entry
func (r *readingRepository) Create(ctx context.Context, log *models.ReadingLog) error {
	query := `
		INSERT INTO reading_log (user_id, book_title, author, isbn, status)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		log.UserID,
		log.BookTitle,
		nullString(log.Author),
		nullString(log.ISBN),
		log.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create reading log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = int(id)
	return nil
}

// Update applies a partial update to a reading log entry. Reading time
// accumulates rather than overwrites. Completing sets the completion date.
func (r *readingRepository) Update(ctx context.Context, id int, req *models.UpdateReadingLogRequest) error {
	var setParts []string
	var args []any

	if req.Rating != nil {
		setParts = append(setParts, "rating = ?")
		args = append(args, *req.Rating)
	}
	if req.Review != "" {
		setParts = append(setParts, "review = ?")
		args = append(args, req.Review)
	}
	if req.ReadingTime != nil {
		setParts = append(setParts, "reading_time = reading_time + ?")
		args = append(args, *req.ReadingTime)
	}
	if req.Status != "" {
		setParts = append(setParts, "status = ?")
		args = append(args, req.Status)
		if req.Status == models.ReadingStatusCompleted {
			setParts = append(setParts, "completed_at = NOW()")
		}
	}

	if len(setParts) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE reading_log SET %s WHERE id = ?`, strings.Join(setParts, ", "))
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reading log entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reading log entry not found")
	}

	return nil
}

// Delete removes a reading log entry
func (r *readingRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM reading_log WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete reading log entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reading log entry not found")
	}

	return nil
}
