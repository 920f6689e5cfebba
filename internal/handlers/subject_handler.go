package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
)

// SubjectService is the interface that wraps subject business logic
type SubjectService interface {
	CreateSubject(ctx context.Context, req *models.CreateSubjectRequest) (*models.Subject, error)
	GetSubject(ctx context.Context, id int) (*models.Subject, error)
	ListSubjects(ctx context.Context, gradeLevel *int) ([]models.Subject, error)
	UpdateSubject(ctx context.Context, id int, req *models.UpdateSubjectRequest) error
	DeleteSubject(ctx context.Context, id int) error
}

// SubjectHandler handles subject HTTP requests
type SubjectHandler struct {
	BaseHandler
	subjectService SubjectService
}

// NewSubjectHandler creates a new subject handler
func NewSubjectHandler(subjectService SubjectService, logger *zap.Logger) *SubjectHandler {
	return &SubjectHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		subjectService: subjectService,
	}
}

// RegisterRoutes registers the read-only subject routes
func (h *SubjectHandler) RegisterRoutes(r chi.Router) {
	r.Route("/subjects", func(r chi.Router) {
		r.Get("/", h.ListSubjects)
		r.Get("/{id}", h.GetSubject)
	})
}

// RegisterAdminRoutes registers the subject management routes
func (h *SubjectHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/admin/subjects", func(r chi.Router) {
		r.Post("/", h.CreateSubject)
		r.Patch("/{id}", h.UpdateSubject)
		r.Delete("/{id}", h.DeleteSubject)
	})
}

// ListSubjects handles GET /subjects
// @Summary List subjects
// @Description List subjects, optionally filtered by grade level
// @Tags subjects
// @Produce json
// @Param gradeLevel query int false "Filter by grade level"
// @Success 200 {array} models.Subject "Subjects"
// @Security ApiKeyAuth
// @Router /subjects [get]
func (h *SubjectHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	var gradeLevel *int
	if s := r.URL.Query().Get("gradeLevel"); s != "" {
		if g, err := strconv.Atoi(s); err == nil {
			gradeLevel = &g
		}
	}

	subjects, err := h.subjectService.ListSubjects(r.Context(), gradeLevel)
	if err != nil {
		h.Logger.Error("failed to list subjects", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, subjects)
}

// GetSubject handles GET /subjects/{id}
// @Summary Get a subject
// @Tags subjects
// @Produce json
// @Param id path int true "Subject ID"
// @Success 200 {object} models.Subject "Subject"
// @Failure 404 {object} map[string]string "Subject not found"
// @Security ApiKeyAuth
// @Router /subjects/{id} [get]
func (h *SubjectHandler) GetSubject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid subject ID")
		return
	}

	subject, err := h.subjectService.GetSubject(r.Context(), id)
	if err != nil {
		h.Logger.Error("failed to get subject", zap.Int("subjectId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, subject)
}

// CreateSubject handles POST /admin/subjects
// @Summary Create a subject
// @Tags subjects
// @Accept json
// @Produce json
// @Param request body models.CreateSubjectRequest true "Subject data"
// @Success 201 {object} models.Subject "Created subject"
// @Failure 400 {object} map[string]string "Invalid subject data"
// @Security ApiKeyAuth
// @Router /admin/subjects [post]
func (h *SubjectHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subject, err := h.subjectService.CreateSubject(r.Context(), &req)
	if err != nil {
		h.Logger.Error("failed to create subject", zap.String("name", req.Name), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, subject)
}

// UpdateSubject handles PATCH /admin/subjects/{id}
// @Summary Update a subject
// @Tags subjects
// @Accept json
// @Produce json
// @Param id path int true "Subject ID"
// @Param request body models.UpdateSubjectRequest true "Fields to update"
// @Success 200 {object} map[string]string "Subject updated"
// @Failure 404 {object} map[string]string "Subject not found"
// @Security ApiKeyAuth
// @Router /admin/subjects/{id} [patch]
func (h *SubjectHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid subject ID")
		return
	}

	var req models.UpdateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.subjectService.UpdateSubject(r.Context(), id, &req); err != nil {
		h.Logger.Error("failed to update subject", zap.Int("subjectId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "subject updated"})
}

// DeleteSubject handles DELETE /admin/subjects/{id}
// @Summary Delete a subject
// @Tags subjects
// @Produce json
// @Param id path int true "Subject ID"
// @Success 200 {object} map[string]string "Subject deleted"
// @Failure 404 {object} map[string]string "Subject not found"
// @Security ApiKeyAuth
// @Router /admin/subjects/{id} [delete]
func (h *SubjectHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid subject ID")
		return
	}

	if err := h.subjectService.DeleteSubject(r.Context(), id); err != nil {
		h.Logger.Error("failed to delete subject", zap.Int("subjectId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "subject deleted"})
}
