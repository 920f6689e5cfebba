// Package services holds the business logic between handlers and repositories
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/savagehomeschool/backend/internal/auth"
	"github.com/savagehomeschool/backend/internal/models"
)

// UserAuthRepository is the interface that wraps user table access needed by the auth service
type UserAuthRepository interface {
	// Method GetByUsername retrieves a user by username.
	//
	// "username" parameter is used to retrieve a user by username.
	//
	// If user with such username does not exist, the error will be returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// "userID" parameter is used to retrieve a user by ID.
	//
	// If user with such ID does not exist, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method UpdateLastLogin records a successful login timestamp.
	UpdateLastLogin(ctx context.Context, userID int, at time.Time) error
}

// TokenRepository is the interface that wraps refresh token storage
type TokenRepository interface {
	// Method Create inserts a new refresh token into the database.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a refresh token row by token string.
	//
	// If such token does not exist, the error will be returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken replaces an old refresh token with a new one for a user.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByToken deletes a refresh token by token string.
	DeleteByToken(ctx context.Context, token string) error
}

// ActivityRepository is the interface that wraps activity log writes
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.ActivityLog) error
}

// authService implements login, token refresh and logout
type authService struct {
	userRepo       UserAuthRepository
	tokenRepo      TokenRepository
	activityRepo   ActivityRepository
	tokenGenerator *auth.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserAuthRepository,
	tokenRepo TokenRepository,
	activityRepo ActivityRepository,
	tokenGenerator *auth.TokenGenerator,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		tokenRepo:      tokenRepo,
		activityRepo:   activityRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// Login authenticates a user. Parents and admins authenticate with a
// password, children with their PIN.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, "", "", fmt.Errorf("username cannot be empty")
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", "", fmt.Errorf("invalid credentials")
	}

	if user.Status != models.UserStatusActive {
		return nil, "", "", fmt.Errorf("account is %s", user.Status)
	}

	// Children authenticate with a PIN, everyone else with a password
	if user.Role == models.RoleChild {
		if req.PIN == "" || user.PIN == "" || req.PIN != user.PIN {
			return nil, "", "", fmt.Errorf("invalid credentials")
		}
	} else {
		if req.Password == "" {
			return nil, "", "", fmt.Errorf("password cannot be empty")
		}
		if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			return nil, "", "", fmt.Errorf("invalid credentials")
		}
	}

	accessToken, refreshToken, err := generateAndSaveTokens(ctx, s.tokenGenerator, s.tokenRepo, user.ID, user.Role)
	if err != nil {
		return nil, "", "", err
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Int("userId", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	// Login bookkeeping must not break the login flow, failures are only logged
	go func() {
		activity := &models.ActivityLog{
			UserID:       user.ID,
			ActivityType: "login",
			Description:  fmt.Sprintf("%s logged in", user.Username),
		}
		if err := s.activityRepo.Create(context.Background(), activity); err != nil {
			s.logger.Warn("failed to log login activity", zap.Int("userId", user.ID), zap.Error(err))
		}
	}()

	return user, accessToken, refreshToken, nil
}

// Refresh rotates a user's token pair off a stored refresh token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)

	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		// Drop the stale row if the token is known but expired
		s.tokenRepo.DeleteByToken(ctx, refreshToken)
		return "", "", fmt.Errorf("invalid or expired refresh token")
	}

	userToken, err := s.tokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to get user token by refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if err != nil {
		return "", "", err
	}

	if user.Status != models.UserStatusActive {
		return "", "", fmt.Errorf("account is %s", user.Status)
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(userToken.UserID, int(user.Role))
	if err != nil {
		return "", "", err
	}

	if err := s.tokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, userToken.UserID); err != nil {
		return "", "", err
	}

	return accessToken, newRefreshToken, nil
}

// Logout deletes the stored refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.DeleteByToken(ctx, strings.TrimSpace(refreshToken))
}

// generateAndSaveTokens generates a token pair and persists the refresh half
func generateAndSaveTokens(ctx context.Context, tokenGenerator *auth.TokenGenerator,
	tokenRepo TokenRepository, userID int, role models.Role) (string, string, error) {
	accessToken, refreshToken, err := tokenGenerator.GenerateTokens(userID, int(role))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	userToken := &models.UserToken{
		UserID: userID,
		Token:  refreshToken,
	}
	if err := tokenRepo.Create(ctx, userToken); err != nil {
		return "", "", fmt.Errorf("failed to save refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}
