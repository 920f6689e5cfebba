package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{
		db: db,
	}
}

// GetByUserAndLesson retrieves the progress row for a user/lesson pair
func (r *progressRepository) GetByUserAndLesson(ctx context.Context, userID, lessonID int) (*models.Progress, error) {
	query := `
		SELECT id, user_id, lesson_id, status, score, attempts, time_spent, completed_at, created_at, updated_at
		FROM progress
		WHERE user_id = ? AND lesson_id = ?
		LIMIT 1
	`

	var p models.Progress
	var score sql.NullFloat64
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, lessonID).Scan(
		&p.ID,
		&p.UserID,
		&p.LessonID,
		&p.Status,
		&score,
		&p.Attempts,
		&p.TimeSpent,
		&completedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("progress not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	if score.Valid {
		p.Score = &score.Float64
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}

// Create inserts a new progress row
func (r *progressRepository) Create(ctx context.Context, progress *models.Progress) error {
	query := `
		INSERT INTO progress (user_id, lesson_id, status, attempts)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		progress.UserID,
		progress.LessonID,
		progress.Status,
		progress.Attempts,
	)
	if err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	progress.ID = int(id)
	return nil
}

// Start flips a progress row to in_progress and bumps the attempt counter
func (r *progressRepository) Start(ctx context.Context, id int) error {
	query := `UPDATE progress SET status = 'in_progress', attempts = attempts + 1 WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to start progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("progress not found")
	}

	return nil
}

// Complete records the outcome of a lesson attempt
func (r *progressRepository) Complete(ctx context.Context, id int, status models.ProgressStatus, score float64, timeSpent int, completedAt time.Time) error {
	query := `
		UPDATE progress
		SET status = ?, score = ?, time_spent = time_spent + ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, score, timeSpent, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("progress not found")
	}

	return nil
}

// GetByUser retrieves all progress rows for a user
func (r *progressRepository) GetByUser(ctx context.Context, userID int) ([]models.Progress, error) {
	query := `
		SELECT id, user_id, lesson_id, status, score, attempts, time_spent, completed_at, created_at, updated_at
		FROM progress
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var items []models.Progress
	for rows.Next() {
		var p models.Progress
		var score sql.NullFloat64
		var completedAt sql.NullTime
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.LessonID,
			&p.Status,
			&score,
			&p.Attempts,
			&p.TimeSpent,
			&completedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		if score.Valid {
			p.Score = &score.Float64
		}
		if completedAt.Valid {
			p.CompletedAt = &completedAt.Time
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// GetSubjectProgress retrieves per-subject aggregates for a user's grade level
func (r *progressRepository) GetSubjectProgress(ctx context.Context, userID, gradeLevel int) ([]models.SubjectProgress, error) {
	query := `
		SELECT s.id, s.name,
			COUNT(l.id),
			SUM(CASE WHEN p.status = 'completed' THEN 1 ELSE 0 END),
			COALESCE(SUM(CASE WHEN p.status = 'completed' THEN l.xp_value ELSE 0 END), 0)
		FROM subjects s
		JOIN lessons l ON l.subject_id = s.id AND l.is_active = TRUE
		LEFT JOIN progress p ON p.lesson_id = l.id AND p.user_id = ?
		WHERE s.grade_level = ? AND s.is_active = TRUE
		GROUP BY s.id, s.name
		ORDER BY s.name
	`

	rows, err := r.db.QueryContext(ctx, query, userID, gradeLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to query subject progress: %w", err)
	}
	defer rows.Close()

	var items []models.SubjectProgress
	for rows.Next() {
		var sp models.SubjectProgress
		err := rows.Scan(
			&sp.SubjectID,
			&sp.SubjectName,
			&sp.TotalLessons,
			&sp.CompletedLessons,
			&sp.EarnedXP,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject progress: %w", err)
		}
		items = append(items, sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// LastCompletionDate retrieves the most recent completion timestamp for a user
// Returns nil without error when the user has no completions.
func (r *progressRepository) LastCompletionDate(ctx context.Context, userID int) (*time.Time, error) {
	query := `SELECT MAX(completed_at) FROM progress WHERE user_id = ? AND status = 'completed'`

	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to get last completion date: %w", err)
	}

	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// CountCompletedSince counts completions and earned XP for a user since a cutoff
func (r *progressRepository) CountCompletedSince(ctx context.Context, userID int, since time.Time) (int, int, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(l.xp_value), 0)
		FROM progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = ? AND p.status = 'completed' AND p.completed_at >= ?
	`

	var count, xp int
	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count, &xp)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count completions: %w", err)
	}

	return count, xp, nil
}
