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

// setupProgressTestRepository creates a progress repository with a mock database
func setupProgressTestRepository(t *testing.T) (*progressRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewProgressRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestProgressRepository_GetByUserAndLesson(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	score := 92.5

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
		expected      *models.Progress
	}{
		{
			name: "completed row",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "user_id", "lesson_id", "status", "score", "attempts", "time_spent", "completed_at", "created_at", "updated_at"}).
					AddRow(1, 2, 7, models.ProgressStatusCompleted, 92.5, 1, 25, now, now, now)
				mock.ExpectQuery(`SELECT .+ FROM progress WHERE user_id = \? AND lesson_id = \?`).
					WithArgs(2, 7).
					WillReturnRows(rows)
			},
			expected: &models.Progress{
				ID:          1,
				UserID:      2,
				LessonID:    7,
				Status:      models.ProgressStatusCompleted,
				Score:       &score,
				Attempts:    1,
				TimeSpent:   25,
				CompletedAt: &now,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
		{
			name: "in progress row without score",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "user_id", "lesson_id", "status", "score", "attempts", "time_spent", "completed_at", "created_at", "updated_at"}).
					AddRow(1, 2, 7, models.ProgressStatusInProgress, nil, 1, 0, nil, now, now)
				mock.ExpectQuery(`SELECT .+ FROM progress WHERE user_id = \? AND lesson_id = \?`).
					WithArgs(2, 7).
					WillReturnRows(rows)
			},
			expected: &models.Progress{
				ID:        1,
				UserID:    2,
				LessonID:  7,
				Status:    models.ProgressStatusInProgress,
				Attempts:  1,
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM progress WHERE user_id = \? AND lesson_id = \?`).
					WithArgs(2, 7).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: "progress not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			p, err := repo.GetByUserAndLesson(context.Background(), 2, 7)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, p)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, p)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProgressRepository_Complete(t *testing.T) {
	completedAt := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE progress`).
					WithArgs(models.ProgressStatusCompleted, 95.0, 20, completedAt, 1).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "progress not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE progress`).
					WithArgs(models.ProgressStatusCompleted, 95.0, 20, completedAt, 1).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: "progress not found",
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE progress`).
					WithArgs(models.ProgressStatusCompleted, 95.0, 20, completedAt, 1).
					WillReturnError(errors.New("database error"))
			},
			expectedError: "failed to complete progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Complete(context.Background(), 1, models.ProgressStatusCompleted, 95.0, 20, completedAt)

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

func TestProgressRepository_LastCompletionDate(t *testing.T) {
	last := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)

	t.Run("has completions", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT MAX\(completed_at\) FROM progress`).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(last))

		got, err := repo.LastCompletionDate(context.Background(), 2)

		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, last, *got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no completions", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT MAX\(completed_at\) FROM progress`).
			WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		got, err := repo.LastCompletionDate(context.Background(), 2)

		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProgressRepository_GetSubjectProgress(t *testing.T) {
	t.Run("aggregates per subject", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "name", "total", "completed", "xp"}).
			AddRow(1, "Math", 20, 12, 240).
			AddRow(2, "Science", 15, 3, 60)
		mock.ExpectQuery(`SELECT s\.id, s\.name,`).
			WithArgs(2, 3).
			WillReturnRows(rows)

		items, err := repo.GetSubjectProgress(context.Background(), 2, 3)

		assert.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Math", items[0].SubjectName)
		assert.Equal(t, 12, items[0].CompletedLessons)
		assert.Equal(t, 240, items[0].EarnedXP)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
