package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

type rewardRepository struct {
	db *sql.DB
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *sql.DB) *rewardRepository {
	return &rewardRepository{
		db: db,
	}
}

// GetByID retrieves a reward by ID
func (r *rewardRepository) GetByID(ctx context.Context, id int) (*models.Reward, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), category, xp_cost, COALESCE(icon, ''), is_active, created_at
		FROM rewards
		WHERE id = ?
		LIMIT 1
	`

	var reward models.Reward
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reward.ID,
		&reward.Name,
		&reward.Description,
		&reward.Category,
		&reward.XPCost,
		&reward.Icon,
		&reward.IsActive,
		&reward.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reward not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward by id: %w", err)
	}

	return &reward, nil
}

// GetAll retrieves active rewards, optionally filtered by category
func (r *rewardRepository) GetAll(ctx context.Context, category models.RewardCategory) ([]models.Reward, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), category, xp_cost, COALESCE(icon, ''), is_active, created_at
		FROM rewards
		WHERE is_active = TRUE
	`
	var args []any
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY xp_cost, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	var rewards []models.Reward
	for rows.Next() {
		var reward models.Reward
		err := rows.Scan(
			&reward.ID,
			&reward.Name,
			&reward.Description,
			&reward.Category,
			&reward.XPCost,
			&reward.Icon,
			&reward.IsActive,
			&reward.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, reward)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rewards, nil
}

// GetRandomActive retrieves one random active reward (mystery reward)
func (r *rewardRepository) GetRandomActive(ctx context.Context) (*models.Reward, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), category, xp_cost, COALESCE(icon, ''), is_active, created_at
		FROM rewards
		WHERE is_active = TRUE
		ORDER BY RAND()
		LIMIT 1
	`

	var reward models.Reward
	err := r.db.QueryRowContext(ctx, query).Scan(
		&reward.ID,
		&reward.Name,
		&reward.Description,
		&reward.Category,
		&reward.XPCost,
		&reward.Icon,
		&reward.IsActive,
		&reward.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no rewards available")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get random reward: %w", err)
	}

	return &reward, nil
}

// Create creates a new reward
func (r *rewardRepository) Create(ctx context.Context, reward *models.Reward) error {
	query := `
		INSERT INTO rewards (name, description, category, xp_cost, icon, is_active)
		VALUES (?, ?, ?, ?, ?, TRUE)
	`

	result, err := r.db.ExecContext(ctx, query,
		reward.Name,
		nullString(reward.Description),
		reward.Category,
		reward.XPCost,
		nullString(reward.Icon),
	)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	reward.ID = int(id)
	reward.IsActive = true
	return nil
}

// AddToInventory records a purchased reward for a user
func (r *rewardRepository) AddToInventory(ctx context.Context, userID, rewardID int) error {
	query := `INSERT INTO inventory (user_id, reward_id) VALUES (?, ?)`

	_, err := r.db.ExecContext(ctx, query, userID, rewardID)
	if err != nil {
		return fmt.Errorf("failed to add to inventory: %w", err)
	}

	return nil
}

// GetInventory retrieves a user's inventory with reward names joined in
func (r *rewardRepository) GetInventory(ctx context.Context, userID int) ([]models.InventoryItem, error) {
	query := `
		SELECT i.id, i.user_id, i.reward_id, rw.name, COALESCE(rw.icon, ''), i.purchased_at, i.used_at
		FROM inventory i
		JOIN rewards rw ON rw.id = i.reward_id
		WHERE i.user_id = ?
		ORDER BY i.purchased_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		var item models.InventoryItem
		var usedAt sql.NullTime
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.RewardID,
			&item.RewardName,
			&item.Icon,
			&item.PurchasedAt,
			&usedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		if usedAt.Valid {
			item.UsedAt = &usedAt.Time
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// UseInventoryItem marks an unused inventory item as used. The owner check is
// part of the update so another user's item cannot be spent.
func (r *rewardRepository) UseInventoryItem(ctx context.Context, userID, itemID int, usedAt time.Time) error {
	query := `UPDATE inventory SET used_at = ? WHERE id = ? AND user_id = ? AND used_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, usedAt, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to use inventory item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("inventory item not found")
	}

	return nil
}
