package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/middleware"
	"github.com/savagehomeschool/backend/internal/models"
	"github.com/savagehomeschool/backend/internal/services"
)

// ProgressService is the interface that wraps progress business logic
type ProgressService interface {
	StartLesson(ctx context.Context, userID, lessonID int) (*models.Progress, error)
	CompleteLesson(ctx context.Context, userID, lessonID int, req *models.CompleteLessonRequest) (*services.CompletionResult, error)
	GetOverview(ctx context.Context, userID int) ([]models.SubjectProgress, error)
	GetRecentActivity(ctx context.Context, userID, limit int) ([]models.ActivityLog, error)
}

// ProgressHandler handles progress HTTP requests
type ProgressHandler struct {
	BaseHandler
	progressService ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		progressService: progressService,
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Post("/lessons/{id}/start", h.StartLesson)
	r.Post("/lessons/{id}/complete", h.CompleteLesson)
	r.Route("/progress", func(r chi.Router) {
		r.Get("/", h.GetOverview)
		r.Get("/activity", h.GetRecentActivity)
	})
}

// StartLesson handles POST /lessons/{id}/start
// @Summary Start a lesson
// @Description Mark a lesson as in progress for the caller, bumping the attempt counter on retries
// @Tags progress
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.Progress "Progress row"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 409 {object} map[string]string "Lesson already completed"
// @Security ApiKeyAuth
// @Router /lessons/{id}/start [post]
func (h *ProgressHandler) StartLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	progress, err := h.progressService.StartLesson(r.Context(), userID, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyCompleted) {
			h.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		h.Logger.Error("failed to start lesson",
			zap.Int("userId", userID), zap.Int("lessonId", lessonID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, progress)
}

// CompleteLesson handles POST /lessons/{id}/complete
// @Summary Complete a lesson
// @Description Record a lesson outcome. A score of 80 or higher completes the lesson and returns the XP, level, streak and badge changes; a lower score records a failed attempt.
// @Tags progress
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.CompleteLessonRequest true "Score and time spent"
// @Success 200 {object} services.CompletionResult "Completion result"
// @Failure 400 {object} map[string]string "Missing or out-of-range score"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 409 {object} map[string]string "Lesson already completed"
// @Security ApiKeyAuth
// @Router /lessons/{id}/complete [post]
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	var req models.CompleteLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.progressService.CompleteLesson(r.Context(), userID, lessonID, &req)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyCompleted) {
			h.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		h.Logger.Error("failed to complete lesson",
			zap.Int("userId", userID), zap.Int("lessonId", lessonID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// GetOverview handles GET /progress
// @Summary Get progress overview
// @Description Per-subject completion aggregates for the caller
// @Tags progress
// @Produce json
// @Success 200 {array} models.SubjectProgress "Per-subject progress"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /progress [get]
func (h *ProgressHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	overview, err := h.progressService.GetOverview(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get progress overview", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, overview)
}

// GetRecentActivity handles GET /progress/activity
// @Summary Get recent activity
// @Description The caller's most recent activity log rows
// @Tags progress
// @Produce json
// @Param limit query int false "Max rows (default 20, max 100)"
// @Success 200 {array} models.ActivityLog "Activity rows"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /progress/activity [get]
func (h *ProgressHandler) GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, _ = strconv.Atoi(s)
	}

	activity, err := h.progressService.GetRecentActivity(r.Context(), userID, limit)
	if err != nil {
		h.Logger.Error("failed to get recent activity", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, activity)
}
