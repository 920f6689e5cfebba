package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/savagehomeschool/backend/internal/models"
)

type lessonRepository struct {
	db *sql.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *sql.DB) *lessonRepository {
	return &lessonRepository{
		db: db,
	}
}

// GetByID retrieves a lesson by its ID
func (r *lessonRepository) GetByID(ctx context.Context, id int) (*models.Lesson, error) {
	query := `
		SELECT id, title, subject_id, grade_level, level, lesson_type, COALESCE(content, ''),
			COALESCE(file_path, ''), xp_value, estimated_time, COALESCE(tags, '[]'), is_active, created_at
		FROM lessons
		WHERE id = ?
		LIMIT 1
	`

	var lesson models.Lesson
	var tagsJSON string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.SubjectID,
		&lesson.GradeLevel,
		&lesson.Level,
		&lesson.LessonType,
		&lesson.Content,
		&lesson.FilePath,
		&lesson.XPValue,
		&lesson.EstimatedTime,
		&tagsJSON,
		&lesson.IsActive,
		&lesson.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lesson not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson by id: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &lesson.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode lesson tags: %w", err)
	}

	return &lesson, nil
}

// GetAll retrieves active lessons matching the filter
func (r *lessonRepository) GetAll(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	query := `
		SELECT id, title, subject_id, grade_level, level, lesson_type, COALESCE(file_path, ''),
			xp_value, estimated_time, COALESCE(tags, '[]'), is_active, created_at
		FROM lessons
		WHERE is_active = TRUE
	`
	var args []any
	if filter.SubjectID != nil {
		query += ` AND subject_id = ?`
		args = append(args, *filter.SubjectID)
	}
	if filter.GradeLevel != nil {
		query += ` AND grade_level = ?`
		args = append(args, *filter.GradeLevel)
	}
	if filter.LessonType != "" {
		query += ` AND lesson_type = ?`
		args = append(args, filter.LessonType)
	}
	query += ` ORDER BY subject_id, level, title`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		var tagsJSON string
		err := rows.Scan(
			&lesson.ID,
			&lesson.Title,
			&lesson.SubjectID,
			&lesson.GradeLevel,
			&lesson.Level,
			&lesson.LessonType,
			&lesson.FilePath,
			&lesson.XPValue,
			&lesson.EstimatedTime,
			&tagsJSON,
			&lesson.IsActive,
			&lesson.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &lesson.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode lesson tags: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// GetAllWithStatus retrieves lessons with the user's progress status joined in
func (r *lessonRepository) GetAllWithStatus(ctx context.Context, filter models.LessonFilter, userID int) ([]models.LessonListItem, error) {
	query := `
		SELECT l.id, l.title, l.subject_id, l.grade_level, l.level, l.lesson_type, l.xp_value,
			COALESCE(p.status, 'not_started')
		FROM lessons l
		LEFT JOIN progress p ON p.lesson_id = l.id AND p.user_id = ?
		WHERE l.is_active = TRUE
	`
	args := []any{userID}
	if filter.SubjectID != nil {
		query += ` AND l.subject_id = ?`
		args = append(args, *filter.SubjectID)
	}
	if filter.GradeLevel != nil {
		query += ` AND l.grade_level = ?`
		args = append(args, *filter.GradeLevel)
	}
	if filter.LessonType != "" {
		query += ` AND l.lesson_type = ?`
		args = append(args, filter.LessonType)
	}
	query += ` ORDER BY l.subject_id, l.level, l.title`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.LessonListItem
	for rows.Next() {
		var lesson models.LessonListItem
		err := rows.Scan(
			&lesson.ID,
			&lesson.Title,
			&lesson.SubjectID,
			&lesson.GradeLevel,
			&lesson.Level,
			&lesson.LessonType,
			&lesson.XPValue,
			&lesson.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// GetNextForSubject retrieves the lowest-level active lesson in a subject the
// user has not completed yet. Returns nil without error when the subject is
// fully completed.
func (r *lessonRepository) GetNextForSubject(ctx context.Context, subjectID, gradeLevel, userID int) (*models.Lesson, error) {
	query := `
		SELECT l.id, l.title, l.subject_id, l.grade_level, l.level, l.lesson_type, l.xp_value, l.estimated_time
		FROM lessons l
		LEFT JOIN progress p ON p.lesson_id = l.id AND p.user_id = ? AND p.status = 'completed'
		WHERE l.subject_id = ? AND l.grade_level = ? AND l.is_active = TRUE AND p.id IS NULL
		ORDER BY l.level, l.id
		LIMIT 1
	`

	var lesson models.Lesson
	err := r.db.QueryRowContext(ctx, query, userID, subjectID, gradeLevel).Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.SubjectID,
		&lesson.GradeLevel,
		&lesson.Level,
		&lesson.LessonType,
		&lesson.XPValue,
		&lesson.EstimatedTime,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next lesson: %w", err)
	}

	return &lesson, nil
}

// Create creates a new lesson
func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	tagsJSON, err := json.Marshal(lesson.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode lesson tags: %w", err)
	}

	query := `
		INSERT INTO lessons (title, subject_id, grade_level, level, lesson_type, content, file_path,
			xp_value, estimated_time, tags, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE)
	`

	result, err := r.db.ExecContext(ctx, query,
		lesson.Title,
		lesson.SubjectID,
		lesson.GradeLevel,
		lesson.Level,
		lesson.LessonType,
		nullString(lesson.Content),
		nullString(lesson.FilePath),
		lesson.XPValue,
		lesson.EstimatedTime,
		string(tagsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	lesson.ID = int(id)
	lesson.IsActive = true
	return nil
}

// Update updates a lesson (partial update)
func (r *lessonRepository) Update(ctx context.Context, id int, req *models.UpdateLessonRequest) error {
	var setParts []string
	var args []any

	if req.Title != "" {
		setParts = append(setParts, "title = ?")
		args = append(args, req.Title)
	}
	if req.SubjectID != nil {
		setParts = append(setParts, "subject_id = ?")
		args = append(args, *req.SubjectID)
	}
	if req.GradeLevel != nil {
		setParts = append(setParts, "grade_level = ?")
		args = append(args, *req.GradeLevel)
	}
	if req.Level != nil {
		setParts = append(setParts, "level = ?")
		args = append(args, *req.Level)
	}
	if req.LessonType != "" {
		setParts = append(setParts, "lesson_type = ?")
		args = append(args, req.LessonType)
	}
	if req.Content != "" {
		setParts = append(setParts, "content = ?")
		args = append(args, req.Content)
	}
	if req.EstimatedTime != nil {
		setParts = append(setParts, "estimated_time = ?")
		args = append(args, *req.EstimatedTime)
	}
	if req.Tags != nil {
		tagsJSON, err := json.Marshal(req.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode lesson tags: %w", err)
		}
		setParts = append(setParts, "tags = ?")
		args = append(args, string(tagsJSON))
	}
	if req.IsActive != nil {
		setParts = append(setParts, "is_active = ?")
		args = append(args, *req.IsActive)
	}

	if len(setParts) == 0 {
		return fmt.Errorf("no fields to update")
	}

	query := fmt.Sprintf(`UPDATE lessons SET %s WHERE id = ?`, strings.Join(setParts, ", "))
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("lesson not found")
	}

	return nil
}

// Delete deletes a lesson by ID
func (r *lessonRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM lessons WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("lesson not found")
	}

	return nil
}
