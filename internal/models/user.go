// Package models defines the database entities and request/response shapes
package models

import "time"

// Role represents a user role, ordered so that middleware can compare levels
type Role int

// UserRole constants
const (
	RoleChild  Role = 1
	RoleParent Role = 2
	RoleAdmin  Role = 3
)

// roleNames maps roles to their JSON labels
var roleNames = map[Role]string{
	RoleChild:  "child",
	RoleParent: "parent",
	RoleAdmin:  "admin",
}

// RoleFromName maps a role label to its Role value
var RoleFromName = map[string]Role{
	"child":  RoleChild,
	"parent": RoleParent,
	"admin":  RoleAdmin,
}

// Name returns the string label for a role
func (r Role) Name() string {
	return roleNames[r]
}

// UserStatus represents the account status of a user
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User represents a user in the system
type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize password hash
	PIN          string     `json:"-"` // Child login PIN, never serialized
	Role         Role       `json:"role"`
	GradeLevel   int        `json:"gradeLevel,omitempty"`
	ParentID     int        `json:"parentId,omitempty"`
	Status       UserStatus `json:"status"`
	TotalXP      int        `json:"totalXp"`
	LessonsDone  int        `json:"lessonsCompleted"`
	CurrentLevel int        `json:"currentLevel"`
	StreakDays   int        `json:"streakDays"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// LoginRequest represents a login request. Parents and admins authenticate
// with a password, children with a PIN.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	PIN      string `json:"pin,omitempty"`
}

// CreateUserRequest represents an admin request to create a user
type CreateUserRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	PIN        string `json:"pin,omitempty"`
	Role       string `json:"role"`
	GradeLevel int    `json:"gradeLevel,omitempty"`
	ParentID   int    `json:"parentId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// UpdateUserRequest represents an admin request to update a user (partial update)
type UpdateUserRequest struct {
	Email      string `json:"email,omitempty"`
	GradeLevel *int   `json:"gradeLevel,omitempty"`
	ParentID   *int   `json:"parentId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// BulkUserActionRequest represents an admin bulk action on users
type BulkUserActionRequest struct {
	Action  string `json:"action"` // activate, deactivate, delete
	UserIDs []int  `json:"userIds"`
}

// UserStats represents aggregate user counts for the admin dashboard
type UserStats struct {
	TotalUsers  int `json:"totalUsers"`
	ActiveUsers int `json:"activeUsers"`
	Children    int `json:"children"`
	Parents     int `json:"parents"`
}

// ChildSummary represents a child with progress counters for parent views
type ChildSummary struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	GradeLevel   int    `json:"gradeLevel"`
	TotalXP      int    `json:"totalXp"`
	LessonsDone  int    `json:"lessonsCompleted"`
	CurrentLevel int    `json:"currentLevel"`
	StreakDays   int    `json:"streakDays"`
}
