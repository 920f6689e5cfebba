package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/savagehomeschool/backend/internal/auth"
	"github.com/savagehomeschool/backend/internal/models"
)

// mockUserAuthRepository is a mock implementation of UserAuthRepository
type mockUserAuthRepository struct {
	user         *models.User
	err          error
	lastLoginErr error
}

func (m *mockUserAuthRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserAuthRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserAuthRepository) UpdateLastLogin(ctx context.Context, userID int, at time.Time) error {
	return m.lastLoginErr
}

// mockTokenRepository is a mock implementation of TokenRepository
type mockTokenRepository struct {
	token          *models.UserToken
	err            error
	updateTokenErr error
}

func (m *mockTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	return m.err
}

func (m *mockTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.token, nil
}

func (m *mockTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	if m.updateTokenErr != nil {
		return m.updateTokenErr
	}
	return m.err
}

func (m *mockTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return m.err
}

// mockActivityRepository is a mock implementation of ActivityRepository
type mockActivityRepository struct {
	err error
}

func (m *mockActivityRepository) Create(ctx context.Context, activity *models.ActivityLog) error {
	return m.err
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Login(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	tokenGen := auth.NewTokenGenerator("test-secret", time.Minute, time.Hour)

	tests := []struct {
		name          string
		req           *models.LoginRequest
		userRepo      *mockUserAuthRepository
		errorContains string
	}{
		{
			name: "parent logs in with password",
			req:  &models.LoginRequest{Username: "mom", Password: "Password123!"},
			userRepo: &mockUserAuthRepository{
				user: &models.User{
					ID:       1,
					Username: "mom",
					Role:     models.RoleParent,
					Status:   models.UserStatusActive,
				},
			},
		},
		{
			name: "child logs in with pin",
			req:  &models.LoginRequest{Username: "zoe", PIN: "1234"},
			userRepo: &mockUserAuthRepository{
				user: &models.User{
					ID:       2,
					Username: "zoe",
					PIN:      "1234",
					Role:     models.RoleChild,
					Status:   models.UserStatusActive,
				},
			},
		},
		{
			name: "child with wrong pin",
			req:  &models.LoginRequest{Username: "zoe", PIN: "9999"},
			userRepo: &mockUserAuthRepository{
				user: &models.User{
					ID:       2,
					Username: "zoe",
					PIN:      "1234",
					Role:     models.RoleChild,
					Status:   models.UserStatusActive,
				},
			},
			errorContains: "invalid credentials",
		},
		{
			name: "parent cannot use a pin",
			req:  &models.LoginRequest{Username: "mom", PIN: "1234"},
			userRepo: &mockUserAuthRepository{
				user: &models.User{
					ID:       1,
					Username: "mom",
					Role:     models.RoleParent,
					Status:   models.UserStatusActive,
				},
			},
			errorContains: "password cannot be empty",
		},
		{
			name: "wrong password",
			req:  &models.LoginRequest{Username: "mom", Password: "wrong"},
			userRepo: &mockUserAuthRepository{
				user: &models.User{
					ID:       1,
					Username: "mom",
					Role:     models.RoleParent,
					Status:   models.UserStatusActive,
				},
			},
			errorContains: "invalid credentials",
		},
		{
			name: "inactive account rejected",
			req:  &models.LoginRequest{Username: "mom", Password: "Password123!"},
			userRepo: &mockUserAuthRepository{
				user: &models.User{
					ID:       1,
					Username: "mom",
					Role:     models.RoleParent,
					Status:   models.UserStatusInactive,
				},
			},
			errorContains: "account is inactive",
		},
		{
			name:          "unknown user",
			req:           &models.LoginRequest{Username: "nobody", Password: "Password123!"},
			userRepo:      &mockUserAuthRepository{err: errors.New("user not found")},
			errorContains: "invalid credentials",
		},
		{
			name:          "empty username",
			req:           &models.LoginRequest{Username: "   ", Password: "Password123!"},
			userRepo:      &mockUserAuthRepository{},
			errorContains: "username cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.userRepo.user != nil && tt.userRepo.user.Role != models.RoleChild {
				tt.userRepo.user.PasswordHash = hashPassword(t, "Password123!")
			}

			svc := NewAuthService(tt.userRepo, &mockTokenRepository{}, &mockActivityRepository{}, tokenGen, logger)

			user, accessToken, refreshToken, err := svc.Login(context.Background(), tt.req)

			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Nil(t, user)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, user)
			assert.NotEmpty(t, accessToken)
			assert.NotEmpty(t, refreshToken)
			assert.NotNil(t, user.LastLogin)

			// The returned access token must carry the user's identity
			userID, role, err := tokenGen.ValidateAccessToken(accessToken)
			require.NoError(t, err)
			assert.Equal(t, user.ID, userID)
			assert.Equal(t, int(user.Role), role)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	tokenGen := auth.NewTokenGenerator("test-secret", time.Minute, time.Hour)

	validUser := &models.User{ID: 1, Role: models.RoleParent, Status: models.UserStatusActive}

	t.Run("success", func(t *testing.T) {
		_, refreshToken, err := tokenGen.GenerateTokens(1, int(models.RoleParent))
		require.NoError(t, err)

		svc := NewAuthService(
			&mockUserAuthRepository{user: validUser},
			&mockTokenRepository{token: &models.UserToken{ID: 1, UserID: 1, Token: refreshToken}},
			&mockActivityRepository{},
			tokenGen,
			logger,
		)

		accessToken, newRefreshToken, err := svc.Refresh(context.Background(), refreshToken)

		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, newRefreshToken)
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		svc := NewAuthService(
			&mockUserAuthRepository{user: validUser},
			&mockTokenRepository{},
			&mockActivityRepository{},
			tokenGen,
			logger,
		)

		_, _, err := svc.Refresh(context.Background(), "not-a-token")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid or expired refresh token")
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		_, refreshToken, err := tokenGen.GenerateTokens(1, int(models.RoleParent))
		require.NoError(t, err)

		svc := NewAuthService(
			&mockUserAuthRepository{user: validUser},
			&mockTokenRepository{err: errors.New("token not found")},
			&mockActivityRepository{},
			tokenGen,
			logger,
		)

		_, _, err = svc.Refresh(context.Background(), refreshToken)

		require.Error(t, err)
	})

	t.Run("suspended account cannot refresh", func(t *testing.T) {
		_, refreshToken, err := tokenGen.GenerateTokens(1, int(models.RoleParent))
		require.NoError(t, err)

		svc := NewAuthService(
			&mockUserAuthRepository{user: &models.User{ID: 1, Role: models.RoleParent, Status: models.UserStatusSuspended}},
			&mockTokenRepository{token: &models.UserToken{ID: 1, UserID: 1, Token: refreshToken}},
			&mockActivityRepository{},
			tokenGen,
			logger,
		)

		_, _, err = svc.Refresh(context.Background(), refreshToken)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "account is suspended")
	})
}
