package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/middleware"
	"github.com/savagehomeschool/backend/internal/models"
)

// AdminService is the interface that wraps admin user management
type AdminService interface {
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, userID int) (*models.User, error)
	ListUsers(ctx context.Context, roleName string) ([]models.User, *models.UserStats, error)
	ListChildren(ctx context.Context, parentID int) ([]models.ChildSummary, error)
	UpdateUser(ctx context.Context, userID int, req *models.UpdateUserRequest) error
	DeleteUser(ctx context.Context, userID, actorID int) error
	ResetPassword(ctx context.Context, userID int) (string, error)
	ResetPIN(ctx context.Context, userID int) (string, error)
	BulkAction(ctx context.Context, req *models.BulkUserActionRequest, actorID int) (int, error)
}

// UserHandler handles user management HTTP requests
type UserHandler struct {
	BaseHandler
	adminService AdminService
}

// NewUserHandler creates a new user handler
func NewUserHandler(adminService AdminService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
	}
}

// RegisterAdminRoutes registers the admin-only user routes.
// The router is expected to carry the admin role middleware.
func (h *UserHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Post("/bulk", h.BulkAction)
		r.Get("/{id}", h.GetUser)
		r.Patch("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
		r.Post("/{id}/reset-password", h.ResetPassword)
		r.Post("/{id}/reset-pin", h.ResetPIN)
	})
}

// RegisterFamilyRoutes registers the routes any authenticated parent can use
func (h *UserHandler) RegisterFamilyRoutes(r chi.Router) {
	r.Get("/family/children", h.ListChildren)
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Description List all users with aggregate stats, optionally filtered by role
// @Tags admin
// @Produce json
// @Param role query string false "Filter by role (child, parent, admin)"
// @Success 200 {object} map[string]any "Users and stats"
// @Failure 400 {object} map[string]string "Invalid role"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, stats, err := h.adminService.ListUsers(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		h.Logger.Error("failed to list users", zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"stats": stats,
	})
}

// CreateUser handles POST /admin/users
// @Summary Create a user
// @Description Create a user account. Children get a PIN and require a grade level; parents and admins get a password. Omitted credentials are generated and returned once.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "User data"
// @Success 201 {object} models.User "Created user"
// @Failure 400 {object} map[string]string "Invalid user data"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security ApiKeyAuth
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), &req)
	if err != nil {
		h.Logger.Error("failed to create user", zap.String("username", req.Username), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /admin/users/{id}
// @Summary Get a user
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User "User"
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	user, err := h.adminService.GetUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get user", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PATCH /admin/users/{id}
// @Summary Update a user
// @Description Apply a partial update (email, grade level, parent, status)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body models.UpdateUserRequest true "Fields to update"
// @Success 200 {object} map[string]string "User updated"
// @Failure 400 {object} map[string]string "Invalid update"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /admin/users/{id} [patch]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.adminService.UpdateUser(r.Context(), userID, &req); err != nil {
		h.Logger.Error("failed to update user", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

// DeleteUser handles DELETE /admin/users/{id}
// @Summary Delete a user
// @Description Delete a user account. Admins cannot delete their own account.
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string "User deleted"
// @Failure 400 {object} map[string]string "Invalid user ID or self-deletion"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	actorID, _ := middleware.GetUserID(r.Context())

	if err := h.adminService.DeleteUser(r.Context(), userID, actorID); err != nil {
		h.Logger.Error("failed to delete user", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ResetPassword handles POST /admin/users/{id}/reset-password
// @Summary Reset a user's password
// @Description Generate a new random password and return it in plain text once
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string "New password"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /admin/users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	password, err := h.adminService.ResetPassword(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to reset password", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"password": password})
}

// ResetPIN handles POST /admin/users/{id}/reset-pin
// @Summary Reset a child's PIN
// @Description Generate a new random 4-digit PIN for a child account
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string "New PIN"
// @Failure 400 {object} map[string]string "Not a child account"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /admin/users/{id}/reset-pin [post]
func (h *UserHandler) ResetPIN(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	pin, err := h.adminService.ResetPIN(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to reset pin", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"pin": pin})
}

// BulkAction handles POST /admin/users/bulk
// @Summary Bulk user action
// @Description Activate, deactivate or delete a set of users. The acting admin is skipped.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.BulkUserActionRequest true "Action and user IDs"
// @Success 200 {object} map[string]int "Number of users affected"
// @Failure 400 {object} map[string]string "Invalid action"
// @Security ApiKeyAuth
// @Router /admin/users/bulk [post]
func (h *UserHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req models.BulkUserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID, _ := middleware.GetUserID(r.Context())

	affected, err := h.adminService.BulkAction(r.Context(), &req, actorID)
	if err != nil {
		h.Logger.Error("failed to run bulk action", zap.String("action", req.Action), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]int{"affected": affected})
}

// ListChildren handles GET /family/children
// @Summary List own children
// @Description List the authenticated parent's children with their progress counters
// @Tags family
// @Produce json
// @Success 200 {array} models.ChildSummary "Children"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /family/children [get]
func (h *UserHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	parentID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	children, err := h.adminService.ListChildren(r.Context(), parentID)
	if err != nil {
		h.Logger.Error("failed to list children", zap.Int("parentId", parentID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, children)
}
