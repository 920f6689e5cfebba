package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/middleware"
	"github.com/savagehomeschool/backend/internal/models"
	"github.com/savagehomeschool/backend/internal/services"
)

// JournalService is the interface that wraps journal business logic
type JournalService interface {
	CreateEntry(ctx context.Context, userID int, req *models.CreateJournalEntryRequest) (*models.JournalEntry, error)
	SaveDraft(ctx context.Context, userID int, req *models.CreateJournalEntryRequest) (*models.JournalEntry, error)
	GetDraft(ctx context.Context, userID int) (*models.JournalEntry, error)
	GetEntry(ctx context.Context, userID int, role models.Role, id int) (*models.JournalEntry, error)
	ListEntries(ctx context.Context, userID int, filter *models.JournalFilter) ([]models.JournalEntry, error)
	DeleteEntry(ctx context.Context, userID, id int) error
	GetStats(ctx context.Context, userID int) (*models.JournalStats, error)
	ExportEntries(ctx context.Context, userID int, format string) ([]byte, error)
}

// JournalHandler handles journal HTTP requests
type JournalHandler struct {
	BaseHandler
	journalService JournalService
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journalService JournalService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		journalService: journalService,
	}
}

// RegisterRoutes registers all journal handler routes
func (h *JournalHandler) RegisterRoutes(r chi.Router) {
	r.Route("/journal", func(r chi.Router) {
		r.Get("/", h.ListEntries)
		r.Post("/", h.CreateEntry)
		r.Get("/draft", h.GetDraft)
		r.Put("/draft", h.SaveDraft)
		r.Get("/prompt", h.GetDailyPrompt)
		r.Get("/stats", h.GetStats)
		r.Get("/export", h.ExportEntries)
		r.Get("/{id}", h.GetEntry)
		r.Delete("/{id}", h.DeleteEntry)
	})
}

// CreateEntry handles POST /journal
// @Summary Create a journal entry
// @Description Save a journal entry. An existing draft is promoted instead of creating a second row.
// @Tags journal
// @Accept json
// @Produce json
// @Param request body models.CreateJournalEntryRequest true "Entry data"
// @Success 201 {object} models.JournalEntry "Created entry"
// @Failure 400 {object} map[string]string "Empty content"
// @Security ApiKeyAuth
// @Router /journal [post]
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.CreateJournalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.journalService.CreateEntry(r.Context(), userID, &req)
	if err != nil {
		h.Logger.Error("failed to create journal entry", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, entry)
}

// SaveDraft handles PUT /journal/draft
// @Summary Save the draft
// @Description Create or overwrite the caller's single journal draft
// @Tags journal
// @Accept json
// @Produce json
// @Param request body models.CreateJournalEntryRequest true "Draft data"
// @Success 200 {object} models.JournalEntry "Saved draft"
// @Security ApiKeyAuth
// @Router /journal/draft [put]
func (h *JournalHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.CreateJournalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := h.journalService.SaveDraft(r.Context(), userID, &req)
	if err != nil {
		h.Logger.Error("failed to save journal draft", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// GetDraft handles GET /journal/draft
// @Summary Get the draft
// @Tags journal
// @Produce json
// @Success 200 {object} models.JournalEntry "Current draft, null when none exists"
// @Security ApiKeyAuth
// @Router /journal/draft [get]
func (h *JournalHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	draft, err := h.journalService.GetDraft(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get journal draft", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, draft)
}

// ListEntries handles GET /journal
// @Summary List journal entries
// @Description The caller's saved entries, newest first, with optional date and mood filters
// @Tags journal
// @Produce json
// @Param since query string false "RFC 3339 date lower bound"
// @Param mood query string false "Filter by mood"
// @Success 200 {array} models.JournalEntry "Entries"
// @Security ApiKeyAuth
// @Router /journal [get]
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := &models.JournalFilter{Mood: r.URL.Query().Get("mood")}
	if s := r.URL.Query().Get("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid since date")
			return
		}
		filter.Since = &since
	}

	entries, err := h.journalService.ListEntries(r.Context(), userID, filter)
	if err != nil {
		h.Logger.Error("failed to list journal entries", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, entries)
}

// GetEntry handles GET /journal/{id}
// @Summary Get a journal entry
// @Description Read an own entry; admins may read any entry
// @Tags journal
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} models.JournalEntry "Entry"
// @Failure 404 {object} map[string]string "Entry not found"
// @Security ApiKeyAuth
// @Router /journal/{id} [get]
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	role, _ := middleware.GetRole(r.Context())

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	entry, err := h.journalService.GetEntry(r.Context(), userID, models.Role(role), id)
	if err != nil {
		h.Logger.Error("failed to get journal entry",
			zap.Int("userId", userID), zap.Int("entryId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /journal/{id}
// @Summary Delete a journal entry
// @Tags journal
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]string "Entry deleted"
// @Failure 404 {object} map[string]string "Entry not found"
// @Security ApiKeyAuth
// @Router /journal/{id} [delete]
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
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

	if err := h.journalService.DeleteEntry(r.Context(), userID, id); err != nil {
		h.Logger.Error("failed to delete journal entry",
			zap.Int("userId", userID), zap.Int("entryId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}

// GetStats handles GET /journal/stats
// @Summary Get journal stats
// @Tags journal
// @Produce json
// @Success 200 {object} models.JournalStats "Counters"
// @Security ApiKeyAuth
// @Router /journal/stats [get]
func (h *JournalHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.journalService.GetStats(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get journal stats", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}

// ExportEntries handles GET /journal/export
// @Summary Export the journal
// @Description Download the caller's saved entries as plain text, or as JSON with ?format=json
// @Tags journal
// @Param format query string false "Export format" Enums(text, json)
// @Produce plain
// @Success 200 {string} string "Exported entries"
// @Failure 400 {object} map[string]string "Unknown format"
// @Security ApiKeyAuth
// @Router /journal/export [get]
func (h *JournalHandler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	format := r.URL.Query().Get("format")
	data, err := h.journalService.ExportEntries(r.Context(), userID, format)
	if err != nil {
		h.Logger.Error("failed to export journal", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	contentType, filename := "text/plain; charset=utf-8", "journal.txt"
	if format == "json" {
		contentType, filename = "application/json", "journal.json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetDailyPrompt handles GET /journal/prompt
// @Summary Get today's writing prompt
// @Tags journal
// @Produce json
// @Success 200 {object} map[string]string "Prompt"
// @Security ApiKeyAuth
// @Router /journal/prompt [get]
func (h *JournalHandler) GetDailyPrompt(w http.ResponseWriter, r *http.Request) {
	h.RespondJSON(w, http.StatusOK, map[string]string{
		"prompt": services.DailyPrompt(time.Now()),
	})
}
