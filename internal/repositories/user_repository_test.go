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

// setupUserTestRepository creates a user repository with a mock database
func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewUserRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "pin", "role", "grade_level", "parent_id", "status",
		"total_xp", "lessons_completed", "current_level", "streak_days", "last_login", "created_at",
	})
}

func TestNewUserRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		user          *models.User
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedID    int
	}{
		{
			name: "success parent",
			user: &models.User{
				Username:     "mom",
				Email:        "mom@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleParent,
				Status:       models.UserStatusActive,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("mom", "mom@example.com", "hashedpassword", nullString(""), models.RoleParent, nullInt(0), nullInt(0), models.UserStatusActive).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			expectedError: false,
			expectedID:    1,
		},
		{
			name: "success child with pin",
			user: &models.User{
				Username:     "zoe",
				Email:        "zoe@example.com",
				PasswordHash: "hashedpassword",
				PIN:          "1234",
				Role:         models.RoleChild,
				GradeLevel:   3,
				ParentID:     1,
				Status:       models.UserStatusActive,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("zoe", "zoe@example.com", "hashedpassword", nullString("1234"), models.RoleChild, nullInt(3), nullInt(1), models.UserStatusActive).
					WillReturnResult(sqlmock.NewResult(2, 1))
			},
			expectedError: false,
			expectedID:    2,
		},
		{
			name: "database error on insert",
			user: &models.User{
				Username:     "mom",
				Email:        "mom@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleParent,
				Status:       models.UserStatusActive,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("mom", "mom@example.com", "hashedpassword", nullString(""), models.RoleParent, nullInt(0), nullInt(0), models.UserStatusActive).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
			expectedID:    0,
		},
		{
			name: "duplicate username",
			user: &models.User{
				Username:     "mom",
				Email:        "other@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleParent,
				Status:       models.UserStatusActive,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs("mom", "other@example.com", "hashedpassword", nullString(""), models.RoleParent, nullInt(0), nullInt(0), models.UserStatusActive).
					WillReturnError(errors.New("Error 1062: Duplicate entry 'mom' for key 'username'"))
			},
			expectedError: true,
			expectedID:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.user)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, tt.user.ID)
				assert.Equal(t, 1, tt.user.CurrentLevel)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	lastLogin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		username      string
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
		expectedUser  *models.User
	}{
		{
			name:     "success",
			username: "zoe",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := userRows().AddRow(
					2, "zoe", "zoe@example.com", "hashedpassword", "1234", models.RoleChild, 3, 1, models.UserStatusActive,
					150, 12, 2, 4, lastLogin, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				)
				mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \?`).
					WithArgs("zoe").
					WillReturnRows(rows)
			},
			expectedUser: &models.User{
				ID:           2,
				Username:     "zoe",
				Email:        "zoe@example.com",
				PasswordHash: "hashedpassword",
				PIN:          "1234",
				Role:         models.RoleChild,
				GradeLevel:   3,
				ParentID:     1,
				Status:       models.UserStatusActive,
				TotalXP:      150,
				LessonsDone:  12,
				CurrentLevel: 2,
				StreakDays:   4,
				LastLogin:    &lastLogin,
				CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "null pin and last_login",
			username: "mom",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := userRows().AddRow(
					1, "mom", "mom@example.com", "hashedpassword", nil, models.RoleParent, nil, nil, models.UserStatusActive,
					0, 0, 1, 0, nil, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				)
				mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \?`).
					WithArgs("mom").
					WillReturnRows(rows)
			},
			expectedUser: &models.User{
				ID:           1,
				Username:     "mom",
				Email:        "mom@example.com",
				PasswordHash: "hashedpassword",
				Role:         models.RoleParent,
				Status:       models.UserStatusActive,
				CurrentLevel: 1,
				CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "user not found",
			username: "nobody",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \?`).
					WithArgs("nobody").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: "user not found",
		},
		{
			name:     "database error",
			username: "zoe",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \?`).
					WithArgs("zoe").
					WillReturnError(errors.New("database error"))
			},
			expectedError: "failed to get user by username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.GetByUsername(context.Background(), tt.username)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedUser, user)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetChildrenByParentID(t *testing.T) {
	tests := []struct {
		name          string
		parentID      int
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedCount int
	}{
		{
			name:     "two children",
			parentID: 1,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "username", "grade_level", "total_xp", "lessons_completed", "current_level", "streak_days"}).
					AddRow(2, "zoe", 3, 150, 12, 2, 4).
					AddRow(3, "max", 5, 320, 28, 4, 1)
				mock.ExpectQuery(`SELECT .+ FROM users WHERE role = \? AND parent_id = \?`).
					WithArgs(models.RoleChild, 1).
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name:     "no children",
			parentID: 9,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE role = \? AND parent_id = \?`).
					WithArgs(models.RoleChild, 9).
					WillReturnRows(sqlmock.NewRows([]string{"id", "username", "grade_level", "total_xp", "lessons_completed", "current_level", "streak_days"}))
			},
			expectedCount: 0,
		},
		{
			name:     "database error",
			parentID: 1,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE role = \? AND parent_id = \?`).
					WithArgs(models.RoleChild, 1).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			children, err := repo.GetChildrenByParentID(context.Background(), tt.parentID)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Len(t, children, tt.expectedCount)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_DeductXP(t *testing.T) {
	tests := []struct {
		name          string
		xp            int
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "success",
			xp:   50,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET total_xp = total_xp - \?`).
					WithArgs(50, 2, 50).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "insufficient balance",
			xp:   50,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET total_xp = total_xp - \?`).
					WithArgs(50, 2, 50).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: "not enough xp",
		},
		{
			name: "database error",
			xp:   50,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET total_xp = total_xp - \?`).
					WithArgs(50, 2, 50).
					WillReturnError(errors.New("database error"))
			},
			expectedError: "failed to deduct xp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.DeductXP(context.Background(), 2, tt.xp)

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

func TestUserRepository_Update(t *testing.T) {
	gradeLevel := 4

	tests := []struct {
		name          string
		req           *models.UpdateUserRequest
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "update email and grade",
			req:  &models.UpdateUserRequest{Email: "new@example.com", GradeLevel: &gradeLevel},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET email = \?, grade_level = \? WHERE id = \?`).
					WithArgs("new@example.com", 4, 2).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:          "no fields to update",
			req:           &models.UpdateUserRequest{},
			setupMock:     func(mock sqlmock.Sqlmock) {},
			expectedError: "no fields to update",
		},
		{
			name: "user not found",
			req:  &models.UpdateUserRequest{Email: "new@example.com"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE users SET email = \? WHERE id = \?`).
					WithArgs("new@example.com", 2).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: "user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Update(context.Background(), 2, tt.req)

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
