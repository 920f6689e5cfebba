package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/savagehomeschool/backend/internal/models"
)

// ReadingRepository is the interface that wraps reading log table access
type ReadingRepository interface {
	GetByID(ctx context.Context, id int) (*models.ReadingLog, error)
	GetByUser(ctx context.Context, userID int, status models.ReadingStatus) ([]models.ReadingLog, error)
	Create(ctx context.Context, log *models.ReadingLog) error
	Update(ctx context.Context, id int, req *models.UpdateReadingLogRequest) error
	Delete(ctx context.Context, id int) error
}

// readingService implements the child reading log
type readingService struct {
	readingRepo ReadingRepository
}

// NewReadingService creates a new reading log service
func NewReadingService(readingRepo ReadingRepository) *readingService {
	return &readingService{
		readingRepo: readingRepo,
	}
}

// StartBook begins tracking a book for a child
func (s *readingService) StartBook(ctx context.Context, userID int, req *models.CreateReadingLogRequest) (*models.ReadingLog, error) {
	title := strings.TrimSpace(req.BookTitle)
	if title == "" {
		return nil, fmt.Errorf("book title cannot be empty")
	}

	log := &models.ReadingLog{
		UserID:    userID,
		BookTitle: title,
		Author:    strings.TrimSpace(req.Author),
		ISBN:      strings.TrimSpace(req.ISBN),
		Status:    models.ReadingStatusReading,
	}
	if err := s.readingRepo.Create(ctx, log); err != nil {
		return nil, err
	}

	return log, nil
}

// ListBooks retrieves a child's reading log, optionally filtered by status
func (s *readingService) ListBooks(ctx context.Context, userID int, status models.ReadingStatus) ([]models.ReadingLog, error) {
	if status != "" {
		switch status {
		case models.ReadingStatusReading, models.ReadingStatusCompleted, models.ReadingStatusAbandoned:
		default:
			return nil, fmt.Errorf("invalid reading status: %s", status)
		}
	}
	return s.readingRepo.GetByUser(ctx, userID, status)
}

// UpdateBook applies a partial update to a child's own reading log entry
func (s *readingService) UpdateBook(ctx context.Context, userID, id int, req *models.UpdateReadingLogRequest) error {
	log, err := s.readingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if log.UserID != userID {
		return fmt.Errorf("reading log entry not found")
	}

	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	if req.Status != "" {
		switch req.Status {
		case models.ReadingStatusReading, models.ReadingStatusCompleted, models.ReadingStatusAbandoned:
		default:
			return fmt.Errorf("invalid reading status: %s", req.Status)
		}
	}

	return s.readingRepo.Update(ctx, id, req)
}

// DeleteBook removes a child's own reading log entry
func (s *readingService) DeleteBook(ctx context.Context, userID, id int) error {
	log, err := s.readingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if log.UserID != userID {
		return fmt.Errorf("reading log entry not found")
	}

	return s.readingRepo.Delete(ctx, id)
}
