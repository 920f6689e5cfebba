// Package repositories implements data access on top of database/sql
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/savagehomeschool/backend/internal/models"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `id, username, email, password_hash, pin, role, grade_level, parent_id, status,
		total_xp, lessons_completed, current_level, streak_days, last_login, created_at`

// scanUser scans a full user row
func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	var pin sql.NullString
	var gradeLevel, parentID sql.NullInt64
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&pin,
		&user.Role,
		&gradeLevel,
		&parentID,
		&user.Status,
		&user.TotalXP,
		&user.LessonsDone,
		&user.CurrentLevel,
		&user.StreakDays,
		&lastLogin,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PIN = pin.String
	user.GradeLevel = int(gradeLevel.Int64)
	user.ParentID = int(parentID.Int64)
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, pin, role, grade_level, parent_id, status, current_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullString(user.PIN),
		user.Role,
		nullInt(user.GradeLevel),
		nullInt(user.ParentID),
		user.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	user.CurrentLevel = 1
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// ExistsByUsername checks if a user with the given username exists
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// ExistsByEmail checks if a user with the given email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// GetAll retrieves all users, optionally filtered by role
func (r *userRepository) GetAll(ctx context.Context, role *models.Role) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != nil {
		query += ` WHERE role = ?`
		args = append(args, *role)
	}
	query += ` ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// GetChildrenByParentID retrieves child summaries for a parent
func (r *userRepository) GetChildrenByParentID(ctx context.Context, parentID int) ([]models.ChildSummary, error) {
	query := `
		SELECT id, username, COALESCE(grade_level, 0), total_xp, lessons_completed, current_level, streak_days
		FROM users
		WHERE role = ? AND parent_id = ?
		ORDER BY username
	`

	rows, err := r.db.QueryContext(ctx, query, models.RoleChild, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.ChildSummary
	for rows.Next() {
		var child models.ChildSummary
		err := rows.Scan(
			&child.ID,
			&child.Username,
			&child.GradeLevel,
			&child.TotalXP,
			&child.LessonsDone,
			&child.CurrentLevel,
			&child.StreakDays,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return children, nil
}

// GetStats retrieves aggregate user counts
func (r *userRepository) GetStats(ctx context.Context) (*models.UserStats, error) {
	query := `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END),
			SUM(CASE WHEN role = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN role = ? THEN 1 ELSE 0 END)
		FROM users
	`

	var stats models.UserStats
	err := r.db.QueryRowContext(ctx, query, models.RoleChild, models.RoleParent).Scan(
		&stats.TotalUsers,
		&stats.ActiveUsers,
		&stats.Children,
		&stats.Parents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	return &stats, nil
}

// UpdateLastLogin sets the last_login timestamp
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID int, at time.Time) error {
	query := `UPDATE users SET last_login = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// UpdatePassword sets a new password hash
func (r *userRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdatePIN sets a new child PIN
func (r *userRepository) UpdatePIN(ctx context.Context, userID int, pin string) error {
	query := `UPDATE users SET pin = ? WHERE id = ? AND role = ?`

	result, err := r.db.ExecContext(ctx, query, pin, userID, models.RoleChild)
	if err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// UpdateStatus sets the account status
func (r *userRepository) UpdateStatus(ctx context.Context, userID int, status models.UserStatus) error {
	query := `UPDATE users SET status = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, status, userID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

// Update updates a user (partial update)
func (r *userRepository) Update(ctx context.Context, userID int, req *models.UpdateUserRequest) error {
	var setParts []string
	var args []any

	if req.Email != "" {
		setParts = append(setParts, "email = ?")
		args = append(args, req.Email)
	}
	if req.GradeLevel != nil {
		setParts = append(setParts, "grade_level = ?")
		args = append(args, *req.GradeLevel)
	}
	if req.ParentID != nil {
		setParts = append(setParts, "parent_id = ?")
		args = append(args, *req.ParentID)
	}
	if req.Status != "" {
		setParts = append(setParts, "status = ?")
		args = append(args, req.Status)
	}

	if len(setParts) == 0 {
		return fmt.Errorf("no fields to update")
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = ?`, strings.Join(setParts, ", "))
	args = append(args, userID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Delete deletes a user by ID
func (r *userRepository) Delete(ctx context.Context, userID int) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// AddXP applies a completed lesson to a child's gamification counters
func (r *userRepository) AddXP(ctx context.Context, userID, xp, newLevel, streakDays int) error {
	query := `
		UPDATE users
		SET total_xp = total_xp + ?,
			lessons_completed = lessons_completed + 1,
			current_level = ?,
			streak_days = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, xp, newLevel, streakDays, userID)
	if err != nil {
		return fmt.Errorf("failed to add xp: %w", err)
	}

	return nil
}

// DeductXP spends XP, guarded so the balance cannot go negative
func (r *userRepository) DeductXP(ctx context.Context, userID, xp int) error {
	query := `UPDATE users SET total_xp = total_xp - ? WHERE id = ? AND total_xp >= ?`

	result, err := r.db.ExecContext(ctx, query, xp, userID, xp)
	if err != nil {
		return fmt.Errorf("failed to deduct xp: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("not enough xp")
	}

	return nil
}

// nullString converts an empty string to a SQL NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt converts a zero int to a SQL NULL
func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
