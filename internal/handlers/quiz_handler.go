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

// QuizService is the interface that wraps quiz business logic
type QuizService interface {
	AddQuestion(ctx context.Context, lessonID int, req *models.CreateQuizQuestionRequest) (*models.QuizQuestion, error)
	GetQuiz(ctx context.Context, lessonID int) ([]models.QuizQuestion, error)
	DeleteQuestion(ctx context.Context, id int) error
	Grade(ctx context.Context, lessonID int, submission *models.QuizSubmission) (*models.QuizResult, error)
}

// QuizHandler handles quiz HTTP requests
type QuizHandler struct {
	BaseHandler
	quizService QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService QuizService, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: BaseHandler{Logger: logger},
		quizService: quizService,
	}
}

// RegisterRoutes registers the quiz-taking routes
func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.Get("/lessons/{id}/quiz", h.GetQuiz)
	r.Post("/lessons/{id}/quiz/submit", h.SubmitQuiz)
}

// RegisterManageRoutes registers the quiz authoring routes (parents and admins)
func (h *QuizHandler) RegisterManageRoutes(r chi.Router) {
	r.Post("/manage/lessons/{id}/quiz", h.AddQuestion)
	r.Delete("/manage/quiz-questions/{id}", h.DeleteQuestion)
}

// GetQuiz handles GET /lessons/{id}/quiz
// @Summary Get a lesson's quiz
// @Description Fetch the quiz questions for a lesson, with answers hidden
// @Tags quiz
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {array} models.QuizQuestion "Questions"
// @Failure 404 {object} map[string]string "Lesson has no quiz"
// @Security ApiKeyAuth
// @Router /lessons/{id}/quiz [get]
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	questions, err := h.quizService.GetQuiz(r.Context(), lessonID)
	if err != nil {
		h.Logger.Error("failed to get quiz", zap.Int("lessonId", lessonID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, questions)
}

// SubmitQuiz handles POST /lessons/{id}/quiz/submit
// @Summary Submit quiz answers
// @Description Grade a quiz submission server-side and return the percentage score
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.QuizSubmission true "Answers keyed by question ID"
// @Success 200 {object} models.QuizResult "Grading result"
// @Failure 404 {object} map[string]string "Lesson has no quiz"
// @Security ApiKeyAuth
// @Router /lessons/{id}/quiz/submit [post]
func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	var submission models.QuizSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.quizService.Grade(r.Context(), lessonID, &submission)
	if err != nil {
		h.Logger.Error("failed to grade quiz", zap.Int("lessonId", lessonID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// AddQuestion handles POST /manage/lessons/{id}/quiz
// @Summary Add a quiz question
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.CreateQuizQuestionRequest true "Question data"
// @Success 201 {object} models.QuizQuestion "Created question"
// @Failure 400 {object} map[string]string "Invalid question data"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Security ApiKeyAuth
// @Router /manage/lessons/{id}/quiz [post]
func (h *QuizHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid lesson ID")
		return
	}

	var req models.CreateQuizQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question, err := h.quizService.AddQuestion(r.Context(), lessonID, &req)
	if err != nil {
		h.Logger.Error("failed to add quiz question", zap.Int("lessonId", lessonID), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusCreated, question)
}

// DeleteQuestion handles DELETE /manage/quiz-questions/{id}
// @Summary Delete a quiz question
// @Tags quiz
// @Produce json
// @Param id path int true "Question ID"
// @Success 200 {object} map[string]string "Question deleted"
// @Failure 400 {object} map[string]string "Invalid question ID"
// @Security ApiKeyAuth
// @Router /manage/quiz-questions/{id} [delete]
func (h *QuizHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid question ID")
		return
	}

	if err := h.quizService.DeleteQuestion(r.Context(), id); err != nil {
		h.Logger.Error("failed to delete quiz question", zap.Int("questionId", id), zap.Error(err))
		h.RespondError(w, errorStatus(err), err.Error())
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "question deleted"})
}
