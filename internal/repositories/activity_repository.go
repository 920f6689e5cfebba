package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/savagehomeschool/backend/internal/models"
)

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity log repository
func NewActivityRepository(db *sql.DB) *activityRepository {
	return &activityRepository{
		db: db,
	}
}

// Create inserts a new activity log row
func (r *activityRepository) Create(ctx context.Context, activity *models.ActivityLog) error {
	query := `
		INSERT INTO activity_log (user_id, activity_type, description, metadata)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		activity.UserID,
		activity.ActivityType,
		nullString(activity.Description),
		nullString(activity.Metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	activity.ID = int(id)
	return nil
}

// GetRecentByUser retrieves the most recent activities for a user
func (r *activityRepository) GetRecentByUser(ctx context.Context, userID, limit int) ([]models.ActivityLog, error) {
	query := `
		SELECT id, user_id, activity_type, COALESCE(description, ''), COALESCE(metadata, ''), created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	return r.queryActivities(ctx, query, userID, limit)
}

// GetRecent retrieves the most recent activities across all users
func (r *activityRepository) GetRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	query := `
		SELECT id, user_id, activity_type, COALESCE(description, ''), COALESCE(metadata, ''), created_at
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT ?
	`

	return r.queryActivities(ctx, query, limit)
}

func (r *activityRepository) queryActivities(ctx context.Context, query string, args ...any) ([]models.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var activities []models.ActivityLog
	for rows.Next() {
		var a models.ActivityLog
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.ActivityType,
			&a.Description,
			&a.Metadata,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return activities, nil
}
