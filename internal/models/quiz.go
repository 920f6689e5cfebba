package models

// QuestionType represents the kind of quiz question
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

// QuizQuestion represents a single question attached to a lesson
type QuizQuestion struct {
	ID           int          `json:"id"`
	LessonID     int          `json:"lessonId"`
	Question     string       `json:"question"`
	Answer       string       `json:"-"` // never sent to quiz takers
	Options      []string     `json:"options,omitempty"`
	QuestionType QuestionType `json:"questionType"`
	Points       int          `json:"points"`
}

// CreateQuizQuestionRequest represents a request to create a quiz question
type CreateQuizQuestionRequest struct {
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	Options      []string     `json:"options,omitempty"`
	QuestionType QuestionType `json:"questionType,omitempty"`
	Points       int          `json:"points,omitempty"`
}

// QuizSubmission represents a child's submitted answers, keyed by question ID
type QuizSubmission struct {
	Answers   map[int]string `json:"answers"`
	TimeSpent int            `json:"timeSpent,omitempty"` // seconds
}

// QuizResult represents the server-side grading of a submission
type QuizResult struct {
	TotalPoints  int     `json:"totalPoints"`
	EarnedPoints int     `json:"earnedPoints"`
	Score        float64 `json:"score"` // percentage
	Passed       bool    `json:"passed"`
}
