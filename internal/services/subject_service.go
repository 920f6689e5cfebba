package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/savagehomeschool/backend/internal/models"
)

// SubjectRepository is the interface that wraps subject table access
type SubjectRepository interface {
	GetByID(ctx context.Context, id int) (*models.Subject, error)
	GetAll(ctx context.Context, gradeLevel *int) ([]models.Subject, error)
	ExistsByNameAndGrade(ctx context.Context, name string, gradeLevel int) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, id int, req *models.UpdateSubjectRequest) error
	Delete(ctx context.Context, id int) error
}

// subjectService implements subject management
type subjectService struct {
	subjectRepo SubjectRepository
}

// NewSubjectService creates a new subject service
func NewSubjectService(subjectRepo SubjectRepository) *subjectService {
	return &subjectService{
		subjectRepo: subjectRepo,
	}
}

// CreateSubject creates a subject after validating category and uniqueness
func (s *subjectService) CreateSubject(ctx context.Context, req *models.CreateSubjectRequest) (*models.Subject, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("subject name cannot be empty")
	}
	if !models.ValidSubjectCategories[req.Category] {
		return nil, fmt.Errorf("invalid subject category: %s", req.Category)
	}
	if req.GradeLevel < 1 || req.GradeLevel > 12 {
		return nil, fmt.Errorf("grade level must be between 1 and 12")
	}

	exists, err := s.subjectRepo.ExistsByNameAndGrade(ctx, name, req.GradeLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to check subject: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("subject already exists for this grade level")
	}

	subject := &models.Subject{
		Name:        name,
		Category:    req.Category,
		GradeLevel:  req.GradeLevel,
		Description: req.Description,
	}
	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		return nil, err
	}

	return subject, nil
}

// GetSubject retrieves a subject by ID
func (s *subjectService) GetSubject(ctx context.Context, id int) (*models.Subject, error) {
	return s.subjectRepo.GetByID(ctx, id)
}

// ListSubjects retrieves subjects, optionally filtered by grade level
func (s *subjectService) ListSubjects(ctx context.Context, gradeLevel *int) ([]models.Subject, error) {
	return s.subjectRepo.GetAll(ctx, gradeLevel)
}

// UpdateSubject applies a partial update to a subject
func (s *subjectService) UpdateSubject(ctx context.Context, id int, req *models.UpdateSubjectRequest) error {
	if req.Category != "" && !models.ValidSubjectCategories[req.Category] {
		return fmt.Errorf("invalid subject category: %s", req.Category)
	}
	if req.GradeLevel != nil && (*req.GradeLevel < 1 || *req.GradeLevel > 12) {
		return fmt.Errorf("grade level must be between 1 and 12")
	}

	return s.subjectRepo.Update(ctx, id, req)
}

// DeleteSubject deletes a subject
func (s *subjectService) DeleteSubject(ctx context.Context, id int) error {
	return s.subjectRepo.Delete(ctx, id)
}
