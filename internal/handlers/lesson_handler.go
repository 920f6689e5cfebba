package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/middleware"
	"github.com/savagehomeschool/backend/internal/models"
	"github.com/savagehomeschool/backend/internal/services"
)

// LessonService is the interface that wraps lesson business logic
type LessonService interface {
	UploadLesson(ctx context.Context, req *services.UploadLessonRequest, file io.Reader, filename string) (*models.Lesson, error)
	GetLesson(ctx context.Context, id int) (*models.Lesson, error)
	ListLessons(ctx context.Context, filter models.LessonFilter, userID int) ([]models.LessonListItem, error)
	UpdateLesson(ctx context.Context, id int, req *models.UpdateLessonRequest) error
	DeleteLesson(ctx context.Context, id int) error
	GetLessonFile(ctx context.Context, id int) (io.ReadCloser, string, error)
	GetTodayLessons(ctx context.Context, userID, gradeLevel int) ([]services.TodayLesson, error)
}

// LessonUserService is the user lookup the lesson handler needs for the daily plan
type LessonUserService interface {
	GetUser(ctx context.Context, userID int) (*models.User, error)
}

// LessonHandler handles lesson HTTP requests
type LessonHandler struct {
	BaseHandler
	lessonService LessonService
	userService   LessonUserService
	maxFileSize   int64
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(
	lessonService LessonService,
	userService LessonUserService,
	maxFileSize int64,
	logger *zap.Logger,
) *LessonHandler {
	return &LessonHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		lessonService: lessonService,
		userService:   userService,
		maxFileSize:   maxFileSize,
	}
}

// RegisterRoutes registers the lesson routes available to any authenticated user
func (h *LessonHandler) RegisterRoutes(r chi.Router) {
	r.Route("/lessons", func(r chi.Router) {
		r.Get("/", h.ListLessons)
		r.Get("/today", h.GetTodayLessons)
		r.Get("/{id}", h.GetLesson)
		r.Get("/{id}/file", h.DownloadLessonFile)
	})
}

// RegisterManageRoutes registers the lesson management routes (parents and admins)
func (h *LessonHandler) RegisterManageRoutes(r chi.Router) {
	r.Route("/manage/lessons", func(r chi.Router) {
		r.Post("/", h.UploadLesson)
		r.Patch("/{id}", h.UpdateLesson)
		r.Delete("/{id}", h.DeleteLesson)
	})
}

// UploadLesson handles POST /manage/lessons
// @Summary Upload a lesson
// @Description Create a lesson from multipart form fields plus an optional file. Text files (.txt, .md, .html) get their content extracted for in-app display; other formats are served as downloads.
// @Tags lessons
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Lesson title"
// @Param subjectId formData int true "Subject ID"
// @Param gradeLevel formData int false "Grade level (defaults to the subject's)"
// @Param level formData int true "Difficulty level 1-5"
// @Param lessonType formData string false "teaching, practice, quiz or custom"
// @Param estimatedTime formData int false "Estimated minutes"
// @Param tags formData string false "Comma-separated tags"
// @Param file formData file false "Lesson file"
// @Success 201 {object} models.Lesson "Created lesson"
// @Failure 400 {object} map[string]string "Invalid lesson data"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security ApiKeyAuth
// @Router /manage/lessons [post]
func (h *LessonHandler) UploadLesson(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		h.Logger.Error("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return
	}

	subjectID, err := strconv.Atoi(r.FormValue("subjectId"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid subject ID")
		return
	}
	level, err := strconv.Atoi(r.FormValue("level"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid level")
		return
	}

	req := &services.UploadLessonRequest{
		Title:      r.FormValue("title"),
		SubjectID:  subjectID,
		Level:      level,
		LessonType: models.LessonType(r.FormValue("lessonType")),
	}
	if s := r.FormValue("gradeLevel"); s != "" {
		if g, err := strconv.Atoi(s); err == nil {
			req.GradeLevel = g
		}
	}
	if s := r.FormValue("estimatedTime"); s != "" {
		if m, err := strconv.Atoi(s); err == nil {
			req.EstimatedTime = m
		}
	}
	if s := r.FormValue("tags"); s != "" {
		for _, tag := range strings.Split(s, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Tags = append(req.Tags, tag)
			}
		}
	}

	var uploadFile io.Reader
	var uploadFilename string
	file, fileHeader, err := r.FormFile("file")
	if err == nil && fileHeader != nil && fileHeader.Size > 0 {
		uploadFile = file
		uploadFilename = fileHeader.Filename
		defer file.Close()
	} else if err != nil && err != http.ErrMissingFile {
		h.Logger.Error("failed to get lesson file from form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to process lesson file")
		return
	}

	lesson, err := h.lessonService.UploadLesson(r.Context(), req, uploadFile, uploadFilename)
	if err != nil {
		h.Logger.Error("failed to upload lesson", zap.String("title", req.Title), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, lesson)
}

// ListLessons handles GET /lessons
// @Summary List lessons
// @Description List lessons with the caller's progress status, filtered by subject, grade level or type
// @Tags lessons
// @Produce json
// @Param subjectId query int false "Filter by subject"
// @Param gradeLevel query int false "Filter by grade level"
// @Param lessonType query string false "Filter by lesson type"
// @Success 200 {array} models.LessonListItem "Lessons"
// @Security ApiKeyAuth
// @Router /lessons [get]
func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var filter models.LessonFilter
	if s := r.URL.Query().Get("subjectId"); s != "" {
		if id, err := strconv.Atoi(s); err == nil {
			filter.SubjectID = &id
		}
	}
	if s := r.URL.Query().Get("gradeLevel"); s != "" {
		if g, err := strconv.Atoi(s); err == nil {
			filter.GradeLevel = &g
		}
	}
	filter.LessonType = models.LessonType(r.URL.Query().Get("lessonType"))

	lessons, err := h.lessonService.ListLessons(r.Context(), filter, userID)
	if err != nil {
		h.Logger.Error("failed to list lessons", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, lessons)
}

// GetLesson handles GET /lessons/{id}
// @Summary Get a lesson
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.Lesson "Lesson"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Security ApiKeyAuth
// @Router /lessons/{id} [get]
func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	lesson, err := h.lessonService.GetLesson(r.Context(), id)
	if err != nil {
		h.Logger.Error("failed to get lesson", zap.Int("lessonId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}

// DownloadLessonFile handles GET /lessons/{id}/file
// @Summary Download a lesson file
// @Description Stream the stored lesson file as an attachment
// @Tags lessons
// @Produce octet-stream
// @Param id path int true "Lesson ID"
// @Success 200 {file} binary "Lesson file"
// @Failure 404 {object} map[string]string "Lesson or file not found"
// @Security ApiKeyAuth
// @Router /lessons/{id}/file [get]
func (h *LessonHandler) DownloadLessonFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	readCloser, filename, err := h.lessonService.GetLessonFile(r.Context(), id)
	if err != nil {
		h.Logger.Error("failed to open lesson file", zap.Int("lessonId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}
	defer readCloser.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := io.Copy(w, readCloser); err != nil {
		h.Logger.Error("failed to stream lesson file", zap.Int("lessonId", id), zap.Error(err))
	}
}

// UpdateLesson handles PATCH /manage/lessons/{id}
// @Summary Update a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.UpdateLessonRequest true "Fields to update"
// @Success 200 {object} map[string]string "Lesson updated"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Security ApiKeyAuth
// @Router /manage/lessons/{id} [patch]
func (h *LessonHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	var req models.UpdateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.lessonService.UpdateLesson(r.Context(), id, &req); err != nil {
		h.Logger.Error("failed to update lesson", zap.Int("lessonId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "lesson updated"})
}

// DeleteLesson handles DELETE /manage/lessons/{id}
// @Summary Delete a lesson
// @Description Delete a lesson and its stored file
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} map[string]string "Lesson deleted"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Security ApiKeyAuth
// @Router /manage/lessons/{id} [delete]
func (h *LessonHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	if err := h.lessonService.DeleteLesson(r.Context(), id); err != nil {
		h.Logger.Error("failed to delete lesson", zap.Int("lessonId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "lesson deleted"})
}

// GetTodayLessons handles GET /lessons/today
// @Summary Get today's lessons
// @Description For every active subject at the caller's grade level, the next lesson not yet completed
// @Tags lessons
// @Produce json
// @Success 200 {array} services.TodayLesson "Today's plan"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security ApiKeyAuth
// @Router /lessons/today [get]
func (h *LessonHandler) GetTodayLessons(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("failed to get user", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	today, err := h.lessonService.GetTodayLessons(r.Context(), userID, user.GradeLevel)
	if err != nil {
		h.Logger.Error("failed to build daily plan", zap.Int("userId", userID), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, today)
}
