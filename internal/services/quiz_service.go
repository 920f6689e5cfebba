package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/savagehomeschool/backend/internal/models"
)

// QuizRepository is the interface that wraps quiz question table access
type QuizRepository interface {
	GetByLessonID(ctx context.Context, lessonID int) ([]models.QuizQuestion, error)
	Create(ctx context.Context, question *models.QuizQuestion) error
	Delete(ctx context.Context, id int) error
}

// quizService implements quiz authoring and server-side grading
type quizService struct {
	quizRepo   QuizRepository
	lessonRepo LessonRepository
}

// NewQuizService creates a new quiz service
func NewQuizService(quizRepo QuizRepository, lessonRepo LessonRepository) *quizService {
	return &quizService{
		quizRepo:   quizRepo,
		lessonRepo: lessonRepo,
	}
}

// AddQuestion creates a quiz question on a lesson
func (s *quizService) AddQuestion(ctx context.Context, lessonID int, req *models.CreateQuizQuestionRequest) (*models.QuizQuestion, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return nil, fmt.Errorf("answer cannot be empty")
	}

	if _, err := s.lessonRepo.GetByID(ctx, lessonID); err != nil {
		return nil, err
	}

	questionType := req.QuestionType
	if questionType == "" {
		questionType = models.QuestionTypeMultipleChoice
	}
	switch questionType {
	case models.QuestionTypeMultipleChoice:
		if len(req.Options) < 2 {
			return nil, fmt.Errorf("multiple choice questions need at least 2 options")
		}
	case models.QuestionTypeTrueFalse, models.QuestionTypeShortAnswer:
	default:
		return nil, fmt.Errorf("invalid question type: %s", questionType)
	}

	points := req.Points
	if points <= 0 {
		points = 1
	}

	question := &models.QuizQuestion{
		LessonID:     lessonID,
		Question:     strings.TrimSpace(req.Question),
		Answer:       strings.TrimSpace(req.Answer),
		Options:      req.Options,
		QuestionType: questionType,
		Points:       points,
	}
	if err := s.quizRepo.Create(ctx, question); err != nil {
		return nil, err
	}

	return question, nil
}

// GetQuiz retrieves a lesson's questions with answers stripped for quiz takers
func (s *quizService) GetQuiz(ctx context.Context, lessonID int) ([]models.QuizQuestion, error) {
	questions, err := s.quizRepo.GetByLessonID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("lesson has no quiz")
	}

	// Answers carry a json:"-" tag but are blanked anyway so they cannot
	// leak through logs or re-serialization
	for i := range questions {
		questions[i].Answer = ""
	}

	return questions, nil
}

// DeleteQuestion removes a quiz question
func (s *quizService) DeleteQuestion(ctx context.Context, id int) error {
	return s.quizRepo.Delete(ctx, id)
}

// Grade scores a quiz submission against the stored answers. Answer
// comparison is case-insensitive on trimmed strings.
func (s *quizService) Grade(ctx context.Context, lessonID int, submission *models.QuizSubmission) (*models.QuizResult, error) {
	questions, err := s.quizRepo.GetByLessonID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("lesson has no quiz")
	}

	result := &models.QuizResult{}
	for _, q := range questions {
		result.TotalPoints += q.Points

		given, ok := submission.Answers[q.ID]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(q.Answer)) {
			result.EarnedPoints += q.Points
		}
	}

	result.Score = float64(result.EarnedPoints) / float64(result.TotalPoints) * 100
	result.Passed = result.Score >= models.PassingScore

	return result, nil
}
