package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/savagehomeschool/backend/internal/models"
)

type subjectRepository struct {
	db *sql.DB
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(db *sql.DB) *subjectRepository {
	return &subjectRepository{
		db: db,
	}
}

// GetByID retrieves a subject by ID
func (r *subjectRepository) GetByID(ctx context.Context, id int) (*models.Subject, error) {
	query := `
		SELECT id, name, category, grade_level, COALESCE(description, ''), is_active
		FROM subjects
		WHERE id = ?
		LIMIT 1
	`

	var subject models.Subject
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&subject.ID,
		&subject.Name,
		&subject.Category,
		&subject.GradeLevel,
		&subject.Description,
		&subject.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subject not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject by id: %w", err)
	}

	return &subject, nil
}

// GetAll retrieves subjects, optionally filtered by grade level
func (r *subjectRepository) GetAll(ctx context.Context, gradeLevel *int) ([]models.Subject, error) {
	query := `
		SELECT id, name, category, grade_level, COALESCE(description, ''), is_active
		FROM subjects
	`
	var args []any
	if gradeLevel != nil {
		query += ` WHERE grade_level = ?`
		args = append(args, *gradeLevel)
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []models.Subject
	for rows.Next() {
		var subject models.Subject
		err := rows.Scan(
			&subject.ID,
			&subject.Name,
			&subject.Category,
			&subject.GradeLevel,
			&subject.Description,
			&subject.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return subjects, nil
}

// ExistsByNameAndGrade checks if a subject with the given name exists for a grade level
func (r *subjectRepository) ExistsByNameAndGrade(ctx context.Context, name string, gradeLevel int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM subjects WHERE name = ? AND grade_level = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, name, gradeLevel).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subject existence: %w", err)
	}

	return exists, nil
}

// Create creates a new subject
func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	query := `
		INSERT INTO subjects (name, category, grade_level, description, is_active)
		VALUES (?, ?, ?, ?, TRUE)
	`

	result, err := r.db.ExecContext(ctx, query,
		subject.Name,
		subject.Category,
		subject.GradeLevel,
		nullString(subject.Description),
	)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	subject.ID = int(id)
	subject.IsActive = true
	return nil
}

// Update updates a subject (partial update)
func (r *subjectRepository) Update(ctx context.Context, id int, req *models.UpdateSubjectRequest) error {
	var setParts []string
	var args []any

	if req.Name != "" {
		setParts = append(setParts, "name = ?")
		args = append(args, req.Name)
	}
	if req.Category != "" {
		setParts = append(setParts, "category = ?")
		args = append(args, req.Category)
	}
	if req.GradeLevel != nil {
		setParts = append(setParts, "grade_level = ?")
		args = append(args, *req.GradeLevel)
	}
	if req.Description != "" {
		setParts = append(setParts, "description = ?")
		args = append(args, req.Description)
	}
	if req.IsActive != nil {
		setParts = append(setParts, "is_active = ?")
		args = append(args, *req.IsActive)
	}

	if len(setParts) == 0 {
		return fmt.Errorf("no fields to update")
	}

	query := fmt.Sprintf(`UPDATE subjects SET %s WHERE id = ?`, strings.Join(setParts, ", "))
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update subject: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subject not found")
	}

	return nil
}

// Delete deletes a subject by ID
func (r *subjectRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM subjects WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete subject: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("subject not found")
	}

	return nil
}
