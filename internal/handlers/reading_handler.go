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

// ReadingService is the interface that wraps reading log business logic
type ReadingService interface {
	StartBook(ctx context.Context, userID int, req *models.CreateReadingLogRequest) (*models.ReadingLog, error)
	ListBooks(ctx context.Context, userID int, status models.ReadingStatus) ([]models.ReadingLog, error)
	UpdateBook(ctx context.Context, userID, id int, req *models.UpdateReadingLogRequest) error
	DeleteBook(ctx context.Context, userID, id int) error
}

// ReadingHandler handles reading log HTTP requests
type ReadingHandler struct {
	BaseHandler
	readingService ReadingService
}

// NewReadingHandler creates a new reading log handler
func NewReadingHandler(readingService ReadingService, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		readingService: readingService,
	}
}

// RegisterRoutes registers all reading log routes
func (h *ReadingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reading", func(r chi.Router) {
		r.Get("/", h.ListBooks)
		r.Post("/", h.StartBook)
		r.Patch("/{id}", h.UpdateBook)
		r.Delete("/{id}", h.DeleteBook)
	})
}

// StartBook handles POST /reading
// @Summary Start a book
// @Description Begin tracking a book in the caller's reading log
// @Tags reading
// @Accept json
// @Produce json
// @Param request body models.CreateReadingLogRequest true "Book data"
// @Success 201 {object} models.ReadingLog "Created entry"
// @Failure 400 {object} map[string]string "Invalid book data"
// @Security ApiKeyAuth
// @Router /reading [post]
func (h *ReadingHandler) StartBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.CreateReadingLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log, err := h.readingService.StartBook(r.Context(), userID, &req)
	if err != nil {
		h.Logger.Error("failed to start book", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, log)
}

// ListBooks handles GET /reading
// @Summary List reading log
// @Description The caller's reading log, optionally filtered by status
// @Tags reading
// @Produce json
// @Param status query string false "reading, completed or abandoned"
// @Success 200 {array} models.ReadingLog "Reading log"
// @Failure 400 {object} map[string]string "Invalid status"
// @Security ApiKeyAuth
// @Router /reading [get]
func (h *ReadingHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status := models.ReadingStatus(r.URL.Query().Get("status"))

	logs, err := h.readingService.ListBooks(r.Context(), userID, status)
	if err != nil {
		h.Logger.Error("failed to list reading log", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, logs)
}

// UpdateBook handles PATCH /reading/{id}
// @Summary Update a reading log entry
// @Description Rate, review, add reading time or change the status of an own entry. Completing sets the completion date.
// @Tags reading
// @Accept json
// @Produce json
// @Param id path int true "Entry ID"
// @Param request body models.UpdateReadingLogRequest true "Fields to update"
// @Success 200 {object} map[string]string "Entry updated"
// @Failure 400 {object} map[string]string "Invalid update"
// @Failure 404 {object} map[string]string "Entry not found"
// @Security ApiKeyAuth
// @Router /reading/{id} [patch]
func (h *ReadingHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	var req models.UpdateReadingLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.readingService.UpdateBook(r.Context(), userID, id, &req); err != nil {
		h.Logger.Error("failed to update reading log entry",
			zap.Int("userId", userID), zap.Int("entryId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "entry updated"})
}

// DeleteBook handles DELETE /reading/{id}
// @Summary Delete a reading log entry
// @Tags reading
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]string "Entry deleted"
// @Failure 404 {object} map[string]string "Entry not found"
// @Security ApiKeyAuth
// @Router /reading/{id} [delete]
func (h *ReadingHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	if err := h.readingService.DeleteBook(r.Context(), userID, id); err != nil {
		h.Logger.Error("failed to delete reading log entry",
			zap.Int("userId", userID), zap.Int("entryId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}
