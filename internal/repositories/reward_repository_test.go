package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/savagehomeschool/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRewardTestRepository creates a reward repository with a mock database
func setupRewardTestRepository(t *testing.T) (*rewardRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewRewardRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestRewardRepository_GetByID(t *testing.T) {
	createdAt := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
		expected      *models.Reward
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name", "description", "category", "xp_cost", "icon", "is_active", "created_at"}).
					AddRow(3, "Extra screen time", "30 minutes", models.RewardCategoryPrivilege, 40, "tv", true, createdAt)
				mock.ExpectQuery(`SELECT .+ FROM rewards WHERE id = \?`).
					WithArgs(3).
					WillReturnRows(rows)
			},
			expected: &models.Reward{
				ID:          3,
				Name:        "Extra screen time",
				Description: "30 minutes",
				Category:    models.RewardCategoryPrivilege,
				XPCost:      40,
				Icon:        "tv",
				IsActive:    true,
				CreatedAt:   createdAt,
			},
		},
		{
			name: "reward not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM rewards WHERE id = \?`).
					WithArgs(3).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: "reward not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupRewardTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			reward, err := repo.GetByID(context.Background(), 3)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, reward)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, reward)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRewardRepository_GetRandomActive(t *testing.T) {
	t.Run("returns a reward", func(t *testing.T) {
		repo, mock, cleanup := setupRewardTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "name", "description", "category", "xp_cost", "icon", "is_active", "created_at"}).
			AddRow(5, "Pirate avatar", "", models.RewardCategoryAvatar, 25, "pirate", true, time.Now())
		mock.ExpectQuery(`SELECT .+ FROM rewards WHERE is_active = TRUE ORDER BY RAND\(\)`).
			WillReturnRows(rows)

		reward, err := repo.GetRandomActive(context.Background())

		assert.NoError(t, err)
		require.NotNil(t, reward)
		assert.Equal(t, 5, reward.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rewards available", func(t *testing.T) {
		repo, mock, cleanup := setupRewardTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM rewards WHERE is_active = TRUE ORDER BY RAND\(\)`).
			WillReturnError(sql.ErrNoRows)

		reward, err := repo.GetRandomActive(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no rewards available")
		assert.Nil(t, reward)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRewardRepository_UseInventoryItem(t *testing.T) {
	usedAt := time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE inventory SET used_at = \?`).
					WithArgs(usedAt, 4, 2).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "already used or not owned",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE inventory SET used_at = \?`).
					WithArgs(usedAt, 4, 2).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: "inventory item not found",
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE inventory SET used_at = \?`).
					WithArgs(usedAt, 4, 2).
					WillReturnError(errors.New("database error"))
			},
			expectedError: "failed to use inventory item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupRewardTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.UseInventoryItem(context.Background(), 2, 4, usedAt)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRewardRepository_GetInventory(t *testing.T) {
	t.Run("unused and used items", func(t *testing.T) {
		repo, mock, cleanup := setupRewardTestRepository(t)
		defer cleanup()

		purchasedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		usedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"id", "user_id", "reward_id", "name", "icon", "purchased_at", "used_at"}).
			AddRow(4, 2, 3, "Extra screen time", "tv", purchasedAt, nil).
			AddRow(5, 2, 5, "Pirate avatar", "pirate", purchasedAt, usedAt)
		mock.ExpectQuery(`SELECT i\.id, i\.user_id,`).
			WithArgs(2).
			WillReturnRows(rows)

		items, err := repo.GetInventory(context.Background(), 2)

		assert.NoError(t, err)
		require.Len(t, items, 2)
		assert.Nil(t, items[0].UsedAt)
		require.NotNil(t, items[1].UsedAt)
		assert.Equal(t, usedAt, *items[1].UsedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
