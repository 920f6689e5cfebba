package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/savagehomeschool/backend/internal/models"
)

// UserAdminRepository is the interface that wraps user table access needed by the admin service
type UserAdminRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID int) (*models.User, error)
	GetAll(ctx context.Context, role *models.Role) ([]models.User, error)
	GetChildrenByParentID(ctx context.Context, parentID int) ([]models.ChildSummary, error)
	GetStats(ctx context.Context) (*models.UserStats, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, userID int, req *models.UpdateUserRequest) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	UpdatePIN(ctx context.Context, userID int, pin string) error
	UpdateStatus(ctx context.Context, userID int, status models.UserStatus) error
	Delete(ctx context.Context, userID int) error
}

// adminService implements admin user management
type adminService struct {
	userRepo UserAdminRepository
	logger   *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo UserAdminRepository, logger *zap.Logger) *adminService {
	return &adminService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// pinRegex validates child PINs: exactly 4 digits
var pinRegex = regexp.MustCompile(`^[0-9]{4}$`)

const passwordChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CreateUser creates a user account. Children get a PIN, parents and admins
// get a bcrypt-hashed password.
func (s *adminService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return nil, fmt.Errorf("invalid email format")
	}

	role, ok := models.RoleFromName[req.Role]
	if !ok {
		return nil, fmt.Errorf("invalid role: %s", req.Role)
	}

	usernameExists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameExists {
		return nil, fmt.Errorf("username already exists")
	}

	emailExists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if emailExists {
		return nil, fmt.Errorf("email already exists")
	}

	user := &models.User{
		Username:   username,
		Email:      email,
		Role:       role,
		GradeLevel: req.GradeLevel,
		ParentID:   req.ParentID,
		Status:     models.UserStatusActive,
	}
	if req.Status != "" {
		user.Status = models.UserStatus(req.Status)
	}

	if role == models.RoleChild {
		pin := req.PIN
		if pin == "" {
			pin, err = randomPIN()
			if err != nil {
				return nil, err
			}
		}
		if !pinRegex.MatchString(pin) {
			return nil, fmt.Errorf("pin must be exactly 4 digits")
		}
		user.PIN = pin
		if user.GradeLevel == 0 {
			return nil, fmt.Errorf("grade level is required for child accounts")
		}
	}

	password := req.Password
	if password == "" {
		password, err = randomPassword(8)
		if err != nil {
			return nil, err
		}
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(passwordHash)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.Int("userId", user.ID),
		zap.String("username", user.Username),
		zap.String("role", role.Name()))

	return user, nil
}

// GetUser retrieves a single user
func (s *adminService) GetUser(ctx context.Context, userID int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers retrieves all users with aggregate stats, optionally filtered by role
func (s *adminService) ListUsers(ctx context.Context, roleName string) ([]models.User, *models.UserStats, error) {
	var role *models.Role
	if roleName != "" {
		r, ok := models.RoleFromName[roleName]
		if !ok {
			return nil, nil, fmt.Errorf("invalid role: %s", roleName)
		}
		role = &r
	}

	users, err := s.userRepo.GetAll(ctx, role)
	if err != nil {
		return nil, nil, err
	}

	stats, err := s.userRepo.GetStats(ctx)
	if err != nil {
		return nil, nil, err
	}

	return users, stats, nil
}

// ListChildren retrieves a parent's children with their progress counters
func (s *adminService) ListChildren(ctx context.Context, parentID int) ([]models.ChildSummary, error) {
	return s.userRepo.GetChildrenByParentID(ctx, parentID)
}

// UpdateUser applies a partial update to a user
func (s *adminService) UpdateUser(ctx context.Context, userID int, req *models.UpdateUserRequest) error {
	if req.Email != "" {
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if !emailRegex.MatchString(req.Email) {
			return fmt.Errorf("invalid email format")
		}
	}
	if req.Status != "" {
		switch models.UserStatus(req.Status) {
		case models.UserStatusActive, models.UserStatusInactive, models.UserStatusSuspended:
		default:
			return fmt.Errorf("invalid status: %s", req.Status)
		}
	}

	return s.userRepo.Update(ctx, userID, req)
}

// DeleteUser deletes a user. Admins cannot delete their own account.
func (s *adminService) DeleteUser(ctx context.Context, userID, actorID int) error {
	if userID == actorID {
		return fmt.Errorf("cannot delete your own account")
	}

	return s.userRepo.Delete(ctx, userID)
}

// ResetPassword generates a new random password for a user and returns it in
// plain text once, for the admin to pass along.
func (s *adminService) ResetPassword(ctx context.Context, userID int) (string, error) {
	password, err := randomPassword(8)
	if err != nil {
		return "", err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, string(passwordHash)); err != nil {
		return "", err
	}

	s.logger.Info("password reset", zap.Int("userId", userID))
	return password, nil
}

// ResetPIN generates a new random 4-digit PIN for a child and returns it.
// The repository rejects the update for non-child accounts.
func (s *adminService) ResetPIN(ctx context.Context, userID int) (string, error) {
	pin, err := randomPIN()
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdatePIN(ctx, userID, pin); err != nil {
		return "", err
	}

	s.logger.Info("pin reset", zap.Int("userId", userID))
	return pin, nil
}

// BulkAction applies activate/deactivate/delete to a set of users. The actor
// is skipped so admins cannot lock themselves out. Returns the number of
// users affected.
func (s *adminService) BulkAction(ctx context.Context, req *models.BulkUserActionRequest, actorID int) (int, error) {
	if len(req.UserIDs) == 0 {
		return 0, fmt.Errorf("no users selected")
	}

	affected := 0
	for _, userID := range req.UserIDs {
		if userID == actorID {
			continue
		}

		var err error
		switch req.Action {
		case "activate":
			err = s.userRepo.UpdateStatus(ctx, userID, models.UserStatusActive)
		case "deactivate":
			err = s.userRepo.UpdateStatus(ctx, userID, models.UserStatusInactive)
		case "delete":
			err = s.userRepo.Delete(ctx, userID)
		default:
			return affected, fmt.Errorf("invalid action: %s", req.Action)
		}

		if err != nil {
			s.logger.Warn("bulk action failed for user",
				zap.String("action", req.Action),
				zap.Int("userId", userID),
				zap.Error(err))
			continue
		}
		affected++
	}

	return affected, nil
}

// randomPassword generates a random password of the given length
func randomPassword(length int) (string, error) {
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password[i] = passwordChars[n.Int64()]
	}
	return string(password), nil
}

// randomPIN generates a random 4-digit PIN
func randomPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
