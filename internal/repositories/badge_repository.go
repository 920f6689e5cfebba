package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

type badgeRepository struct {
	db *sql.DB
}

// NewBadgeRepository creates a new badge repository
func NewBadgeRepository(db *sql.DB) *badgeRepository {
	return &badgeRepository{
		db: db,
	}
}

// GetAll retrieves all badge definitions
func (r *badgeRepository) GetAll(ctx context.Context) ([]models.Badge, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), COALESCE(icon, ''), criterion, threshold
		FROM badges
		ORDER BY threshold, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []models.Badge
	for rows.Next() {
		var badge models.Badge
		err := rows.Scan(
			&badge.ID,
			&badge.Name,
			&badge.Description,
			&badge.Icon,
			&badge.Criterion,
			&badge.Threshold,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, badge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return badges, nil
}

// GetAllWithEarned retrieves all badges with the earned state for one user
func (r *badgeRepository) GetAllWithEarned(ctx context.Context, userID int) ([]models.BadgeListItem, error) {
	query := `
		SELECT b.id, b.name, COALESCE(b.description, ''), COALESCE(b.icon, ''), b.criterion, b.threshold, ub.earned_at
		FROM badges b
		LEFT JOIN user_badges ub ON ub.badge_id = b.id AND ub.user_id = ?
		ORDER BY b.threshold, b.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges with earned state: %w", err)
	}
	defer rows.Close()

	var items []models.BadgeListItem
	for rows.Next() {
		var item models.BadgeListItem
		var earnedAt sql.NullTime
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Icon,
			&item.Criterion,
			&item.Threshold,
			&earnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		if earnedAt.Valid {
			item.Earned = true
			item.EarnedAt = &earnedAt.Time
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// GetEarnedIDs retrieves the IDs of badges a user has already earned
func (r *badgeRepository) GetEarnedIDs(ctx context.Context, userID int) (map[int]bool, error) {
	query := `SELECT badge_id FROM user_badges WHERE user_id = ?`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[int]bool)
	for rows.Next() {
		var badgeID int
		if err := rows.Scan(&badgeID); err != nil {
			return nil, fmt.Errorf("failed to scan badge id: %w", err)
		}
		earned[badgeID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return earned, nil
}

// Award records a badge for a user
func (r *badgeRepository) Award(ctx context.Context, userID, badgeID int, earnedAt time.Time) error {
	query := `INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, userID, badgeID, earnedAt)
	if err != nil {
		return fmt.Errorf("failed to award badge: %w", err)
	}

	return nil
}
