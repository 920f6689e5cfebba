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

// setupLessonTestRepository creates a lesson repository with a mock database
func setupLessonTestRepository(t *testing.T) (*lessonRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewLessonRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestLessonRepository_GetByID(t *testing.T) {
	createdAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
		expected      *models.Lesson
	}{
		{
			name: "success with tags",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "title", "subject_id", "grade_level", "level", "lesson_type", "content", "file_path", "xp_value", "estimated_time", "tags", "is_active", "created_at"}).
					AddRow(7, "Fractions", 1, 3, 2, models.LessonTypePractice, "lesson text", "uploads/lessons/abc.pdf", 22, 30, `["math","fractions"]`, true, createdAt)
				mock.ExpectQuery(`SELECT .+ FROM lessons WHERE id = \?`).
					WithArgs(7).
					WillReturnRows(rows)
			},
			expected: &models.Lesson{
				ID:            7,
				Title:         "Fractions",
				SubjectID:     1,
				GradeLevel:    3,
				Level:         2,
				LessonType:    models.LessonTypePractice,
				Content:       "lesson text",
				FilePath:      "uploads/lessons/abc.pdf",
				XPValue:       22,
				EstimatedTime: 30,
				Tags:          []string{"math", "fractions"},
				IsActive:      true,
				CreatedAt:     createdAt,
			},
		},
		{
			name: "lesson not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM lessons WHERE id = \?`).
					WithArgs(7).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: "lesson not found",
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM lessons WHERE id = \?`).
					WithArgs(7).
					WillReturnError(errors.New("database error"))
			},
			expectedError: "failed to get lesson by id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupLessonTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			lesson, err := repo.GetByID(context.Background(), 7)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, lesson)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, lesson)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLessonRepository_GetNextForSubject(t *testing.T) {
	t.Run("returns lowest uncompleted lesson", func(t *testing.T) {
		repo, mock, cleanup := setupLessonTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "title", "subject_id", "grade_level", "level", "lesson_type", "xp_value", "estimated_time"}).
			AddRow(9, "Decimals", 1, 3, 3, models.LessonTypeTeaching, 22, 20)
		mock.ExpectQuery(`SELECT .+ FROM lessons l LEFT JOIN progress p`).
			WithArgs(2, 1, 3).
			WillReturnRows(rows)

		lesson, err := repo.GetNextForSubject(context.Background(), 1, 3, 2)

		assert.NoError(t, err)
		require.NotNil(t, lesson)
		assert.Equal(t, 9, lesson.ID)
		assert.Equal(t, 3, lesson.Level)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("subject fully completed", func(t *testing.T) {
		repo, mock, cleanup := setupLessonTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM lessons l LEFT JOIN progress p`).
			WithArgs(2, 1, 3).
			WillReturnError(sql.ErrNoRows)

		lesson, err := repo.GetNextForSubject(context.Background(), 1, 3, 2)

		assert.NoError(t, err)
		assert.Nil(t, lesson)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLessonRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		lesson        *models.Lesson
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name: "success",
			lesson: &models.Lesson{
				Title:         "Fractions",
				SubjectID:     1,
				GradeLevel:    3,
				Level:         2,
				LessonType:    models.LessonTypePractice,
				Content:       "lesson text",
				XPValue:       22,
				EstimatedTime: 30,
				Tags:          []string{"math"},
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO lessons`).
					WithArgs("Fractions", 1, 3, 2, models.LessonTypePractice, nullString("lesson text"), nullString(""), 22, 30, `["math"]`).
					WillReturnResult(sqlmock.NewResult(7, 1))
			},
		},
		{
			name: "database error",
			lesson: &models.Lesson{
				Title:      "Fractions",
				SubjectID:  1,
				GradeLevel: 3,
				Level:      2,
				LessonType: models.LessonTypePractice,
				Tags:       []string{},
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO lessons`).
					WithArgs("Fractions", 1, 3, 2, models.LessonTypePractice, nullString(""), nullString(""), 0, 0, `[]`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupLessonTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.lesson)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 7, tt.lesson.ID)
				assert.True(t, tt.lesson.IsActive)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLessonRepository_GetAllWithStatus(t *testing.T) {
	t.Run("joins progress status", func(t *testing.T) {
		repo, mock, cleanup := setupLessonTestRepository(t)
		defer cleanup()

		subjectID := 1
		rows := sqlmock.NewRows([]string{"id", "title", "subject_id", "grade_level", "level", "lesson_type", "xp_value", "status"}).
			AddRow(7, "Fractions", 1, 3, 2, models.LessonTypePractice, 22, "completed").
			AddRow(9, "Decimals", 1, 3, 3, models.LessonTypeTeaching, 22, "not_started")
		mock.ExpectQuery(`SELECT l\.id, l\.title,`).
			WithArgs(2, 1).
			WillReturnRows(rows)

		items, err := repo.GetAllWithStatus(context.Background(), models.LessonFilter{SubjectID: &subjectID}, 2)

		assert.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, models.ProgressStatusCompleted, items[0].Status)
		assert.Equal(t, models.ProgressStatusNotStarted, items[1].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
