package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/savagehomeschool/backend/internal/models"
)

type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *sql.DB) *quizRepository {
	return &quizRepository{
		db: db,
	}
}

// GetByLessonID retrieves all quiz questions for a lesson
func (r *quizRepository) GetByLessonID(ctx context.Context, lessonID int) ([]models.QuizQuestion, error) {
	query := `
		SELECT id, lesson_id, question, answer, COALESCE(options, '[]'), question_type, points
		FROM quiz_questions
		WHERE lesson_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz questions: %w", err)
	}
	defer rows.Close()

	var questions []models.QuizQuestion
	for rows.Next() {
		var q models.QuizQuestion
		var optionsJSON string
		err := rows.Scan(
			&q.ID,
			&q.LessonID,
			&q.Question,
			&q.Answer,
			&optionsJSON,
			&q.QuestionType,
			&q.Points,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode question options: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return questions, nil
}

// Create creates a new quiz question
func (r *quizRepository) Create(ctx context.Context, question *models.QuizQuestion) error {
	optionsJSON, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("failed to encode question options: %w", err)
	}

	query := `
		INSERT INTO quiz_questions (lesson_id, question, answer, options, question_type, points)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		question.LessonID,
		question.Question,
		question.Answer,
		string(optionsJSON),
		question.QuestionType,
		question.Points,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz question: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	question.ID = int(id)
	return nil
}

// Delete deletes a quiz question by ID
func (r *quizRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM quiz_questions WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete quiz question: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("quiz question not found")
	}

	return nil
}
