package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
	"github.com/savagehomeschool/backend/internal/storage"
)

// lessonFileCategory is the storage category lesson files land under
const lessonFileCategory = "lessons"

// maxExtractSize caps how much of an uploaded file is read into the content column
const maxExtractSize = 1 << 20

// Storage defines the interface for file storage operations
type Storage interface {
	// Create creates a new file and returns a WriteCloser
	Create(id, category string) (io.WriteCloser, error)

	// Open opens a file for reading and returns a ReadCloser
	Open(id, category string) (io.ReadCloser, error)

	// Delete removes a file
	Delete(id, category string) error
}

// LessonRepository is the interface that wraps lesson table access
type LessonRepository interface {
	GetByID(ctx context.Context, id int) (*models.Lesson, error)
	GetAll(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
	GetAllWithStatus(ctx context.Context, filter models.LessonFilter, userID int) ([]models.LessonListItem, error)
	GetNextForSubject(ctx context.Context, subjectID, gradeLevel, userID int) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, id int, req *models.UpdateLessonRequest) error
	Delete(ctx context.Context, id int) error
}

// SubjectLessonRepository is the subject access the lesson service needs
type SubjectLessonRepository interface {
	GetByID(ctx context.Context, id int) (*models.Subject, error)
	GetAll(ctx context.Context, gradeLevel *int) ([]models.Subject, error)
}

// UploadLessonRequest carries the form fields of a lesson upload
type UploadLessonRequest struct {
	Title         string
	SubjectID     int
	GradeLevel    int
	Level         int
	LessonType    models.LessonType
	EstimatedTime int
	Tags          []string
}

// lessonService implements lesson management, upload and the daily plan
type lessonService struct {
	lessonRepo  LessonRepository
	subjectRepo SubjectLessonRepository
	storage     Storage
	logger      *zap.Logger
}

// NewLessonService creates a new lesson service
func NewLessonService(
	lessonRepo LessonRepository,
	subjectRepo SubjectLessonRepository,
	storage Storage,
	logger *zap.Logger,
) *lessonService {
	return &lessonService{
		lessonRepo:  lessonRepo,
		subjectRepo: subjectRepo,
		storage:     storage,
		logger:      logger,
	}
}

// textExtensions are the upload formats whose text lands in the content column
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
}

// allowedExtensions are the upload formats accepted for lesson files
var allowedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".ppt":  true,
	".pptx": true,
}

// UploadLesson stores an uploaded lesson file and creates the lesson row.
// Text formats get their content extracted for in-app display, everything
// else is served as a download.
func (s *lessonService) UploadLesson(ctx context.Context, req *UploadLessonRequest, file io.Reader, filename string) (*models.Lesson, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("lesson title cannot be empty")
	}
	if req.Level < 1 || req.Level > 5 {
		return nil, fmt.Errorf("level must be between 1 and 5")
	}
	if req.LessonType == "" {
		req.LessonType = models.LessonTypeTeaching
	}
	if !models.ValidLessonTypes[req.LessonType] {
		return nil, fmt.Errorf("invalid lesson type: %s", req.LessonType)
	}

	subject, err := s.subjectRepo.GetByID(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if req.GradeLevel == 0 {
		req.GradeLevel = subject.GradeLevel
	}

	lesson := &models.Lesson{
		Title:         strings.TrimSpace(req.Title),
		SubjectID:     subject.ID,
		GradeLevel:    req.GradeLevel,
		Level:         req.Level,
		LessonType:    req.LessonType,
		XPValue:       models.CalculateXPValue(req.GradeLevel, req.Level),
		EstimatedTime: req.EstimatedTime,
		Tags:          req.Tags,
	}

	if file != nil {
		ext := strings.ToLower(filepath.Ext(filename))
		if !allowedExtensions[ext] {
			return nil, fmt.Errorf("file type %s is not allowed", ext)
		}

		storedName := storage.GenerateFileName(ext)
		writeCloser, err := s.storage.Create(storedName, lessonFileCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to create file: %w", err)
		}

		if _, err := io.Copy(writeCloser, file); err != nil {
			writeCloser.Close()
			s.storage.Delete(storedName, lessonFileCategory)
			return nil, fmt.Errorf("failed to write file: %w", err)
		}
		if err := writeCloser.Close(); err != nil {
			return nil, fmt.Errorf("failed to close file: %w", err)
		}

		lesson.FilePath = storedName

		if textExtensions[ext] {
			content, err := s.extractText(storedName)
			if err != nil {
				s.logger.Warn("failed to extract lesson text",
					zap.String("file", storedName), zap.Error(err))
			} else {
				lesson.Content = content
			}
		} else {
			lesson.Content = fmt.Sprintf("This lesson is provided as a %s file. Use the download link to view it.", strings.TrimPrefix(ext, "."))
		}
	}

	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		if lesson.FilePath != "" {
			s.storage.Delete(lesson.FilePath, lessonFileCategory)
		}
		return nil, err
	}

	s.logger.Info("lesson uploaded",
		zap.Int("lessonId", lesson.ID),
		zap.String("title", lesson.Title),
		zap.Int("subjectId", lesson.SubjectID))

	return lesson, nil
}

// extractText reads a stored text-format file back into a string
func (s *lessonService) extractText(storedName string) (string, error) {
	readCloser, err := s.storage.Open(storedName, lessonFileCategory)
	if err != nil {
		return "", err
	}
	defer readCloser.Close()

	data, err := io.ReadAll(io.LimitReader(readCloser, maxExtractSize))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// GetLesson retrieves a lesson by ID
func (s *lessonService) GetLesson(ctx context.Context, id int) (*models.Lesson, error) {
	return s.lessonRepo.GetByID(ctx, id)
}

// ListLessons retrieves lessons matching the filter, with the caller's
// progress status joined in
func (s *lessonService) ListLessons(ctx context.Context, filter models.LessonFilter, userID int) ([]models.LessonListItem, error) {
	return s.lessonRepo.GetAllWithStatus(ctx, filter, userID)
}

// UpdateLesson applies a partial update, recomputing XP when grade or level change
func (s *lessonService) UpdateLesson(ctx context.Context, id int, req *models.UpdateLessonRequest) error {
	if req.LessonType != "" && !models.ValidLessonTypes[req.LessonType] {
		return fmt.Errorf("invalid lesson type: %s", req.LessonType)
	}
	if req.Level != nil && (*req.Level < 1 || *req.Level > 5) {
		return fmt.Errorf("level must be between 1 and 5")
	}

	return s.lessonRepo.Update(ctx, id, req)
}

// DeleteLesson deletes a lesson and its stored file
func (s *lessonService) DeleteLesson(ctx context.Context, id int) error {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.lessonRepo.Delete(ctx, id); err != nil {
		return err
	}

	if lesson.FilePath != "" {
		if err := s.storage.Delete(lesson.FilePath, lessonFileCategory); err != nil {
			s.logger.Warn("failed to delete lesson file",
				zap.Int("lessonId", id), zap.String("file", lesson.FilePath), zap.Error(err))
		}
	}

	return nil
}

// GetLessonFile opens the stored file of a lesson for download
func (s *lessonService) GetLessonFile(ctx context.Context, id int) (io.ReadCloser, string, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if lesson.FilePath == "" {
		return nil, "", fmt.Errorf("lesson has no file")
	}

	readCloser, err := s.storage.Open(lesson.FilePath, lessonFileCategory)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open lesson file: %w", err)
	}

	return readCloser, lesson.FilePath, nil
}

// TodayLesson pairs a subject with the next lesson a child should do in it
type TodayLesson struct {
	Subject models.Subject `json:"subject"`
	Lesson  *models.Lesson `json:"lesson"` // nil when the subject is finished
}

// GetTodayLessons builds a child's daily plan: for every subject at the
// child's grade level, the lowest-level lesson not yet completed.
func (s *lessonService) GetTodayLessons(ctx context.Context, userID, gradeLevel int) ([]TodayLesson, error) {
	subjects, err := s.subjectRepo.GetAll(ctx, &gradeLevel)
	if err != nil {
		return nil, err
	}

	var today []TodayLesson
	for _, subject := range subjects {
		if !subject.IsActive {
			continue
		}

		lesson, err := s.lessonRepo.GetNextForSubject(ctx, subject.ID, gradeLevel, userID)
		if err != nil {
			return nil, err
		}

		today = append(today, TodayLesson{
			Subject: subject,
			Lesson:  lesson,
		})
	}

	return today, nil
}
