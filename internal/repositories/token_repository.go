package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/savagehomeschool/backend/internal/models"
)

type tokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new refresh token repository
func NewTokenRepository(db *sql.DB) *tokenRepository {
	return &tokenRepository{
		db: db,
	}
}

// Create inserts a new refresh token row
func (r *tokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	query := `INSERT INTO user_tokens (user_id, token) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, userToken.UserID, userToken.Token)
	if err != nil {
		return fmt.Errorf("failed to create user token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	userToken.ID = int(id)
	return nil
}

// GetByToken retrieves a refresh token row by token string
func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	query := `SELECT id, user_id, token, created_at FROM user_tokens WHERE token = ? LIMIT 1`

	var userToken models.UserToken
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&userToken.ID,
		&userToken.UserID,
		&userToken.Token,
		&userToken.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user token: %w", err)
	}

	return &userToken, nil
}

// UpdateToken replaces an old refresh token with a new one
func (r *tokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	query := `UPDATE user_tokens SET token = ? WHERE token = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, newToken, oldToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update user token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("token not found")
	}

	return nil
}

// DeleteByToken removes a refresh token row
func (r *tokenRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM user_tokens WHERE token = ?`

	_, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}

	return nil
}

// DeleteByUserID removes all refresh tokens for a user
func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID int) error {
	query := `DELETE FROM user_tokens WHERE user_id = ?`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user tokens: %w", err)
	}

	return nil
}
