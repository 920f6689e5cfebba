// Package backup archives the uploads directory together with JSON
// exports of the core tables so a family can move their data between
// installs without database tooling.
package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/models"
)

// UserExporter lists users for the JSON export.
type UserExporter interface {
	GetAll(ctx context.Context, role *models.Role) ([]models.User, error)
}

// LessonExporter lists lessons for the JSON export.
type LessonExporter interface {
	GetAll(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
}

// ProgressExporter lists a user's progress rows for the JSON export.
type ProgressExporter interface {
	GetByUser(ctx context.Context, userID int) ([]models.Progress, error)
}

// Archive describes a backup file on disk.
type Archive struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// RestoreReport summarizes what a restore applied and skipped.
type RestoreReport struct {
	FilesRestored int      `json:"filesRestored"`
	Skipped       []string `json:"skipped,omitempty"`
}

// Service creates and restores backup archives.
type Service struct {
	uploadsDir string
	backupDir  string
	users      UserExporter
	lessons    LessonExporter
	progress   ProgressExporter
	logger     *zap.Logger
}

// NewService creates a backup service writing archives under backupDir.
func NewService(uploadsDir, backupDir string, users UserExporter, lessons LessonExporter, progress ProgressExporter, logger *zap.Logger) *Service {
	return &Service{
		uploadsDir: uploadsDir,
		backupDir:  backupDir,
		users:      users,
		lessons:    lessons,
		progress:   progress,
		logger:     logger,
	}
}

// Run creates a new backup archive and returns its file name.
func (s *Service) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup_%s.zip", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.backupDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create backup archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if err := s.writeExports(ctx, zw); err != nil {
		zw.Close()
		os.Remove(path)
		return "", err
	}
	if err := s.writeUploads(zw); err != nil {
		zw.Close()
		os.Remove(path)
		return "", err
	}
	if err := zw.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to finalize backup archive: %w", err)
	}

	s.logger.Info("backup archive created", zap.String("file", name))
	return name, nil
}

func (s *Service) writeExports(ctx context.Context, zw *zip.Writer) error {
	users, err := s.users.GetAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	// Credential hashes stay out of the archive.
	for i := range users {
		users[i].PasswordHash = ""
		users[i].PIN = ""
	}
	if err := writeJSONEntry(zw, "data/users.json", users); err != nil {
		return err
	}

	lessons, err := s.lessons.GetAll(ctx, models.LessonFilter{})
	if err != nil {
		return fmt.Errorf("failed to export lessons: %w", err)
	}
	if err := writeJSONEntry(zw, "data/lessons.json", lessons); err != nil {
		return err
	}

	var progress []models.Progress
	for _, u := range users {
		if u.Role != models.RoleChild {
			continue
		}
		rows, err := s.progress.GetByUser(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("failed to export progress for user %d: %w", u.ID, err)
		}
		progress = append(progress, rows...)
	}
	return writeJSONEntry(zw, "data/progress.json", progress)
}

func writeJSONEntry(zw *zip.Writer, name string, v interface{}) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return nil
}

func (s *Service) writeUploads(zw *zip.Writer) error {
	if _, err := os.Stat(s.uploadsDir); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(s.uploadsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.uploadsDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(filepath.Join("uploads", rel)))
		if err != nil {
			return fmt.Errorf("failed to create archive entry: %w", err)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to read upload %s: %w", rel, err)
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return fmt.Errorf("failed to archive upload %s: %w", rel, err)
		}
		return nil
	})
}

// List returns the available backup archives, newest first.
func (s *Service) List() ([]Archive, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Archive{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	archives := make([]Archive, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		archives = append(archives, Archive{
			Name:      e.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].CreatedAt.After(archives[j].CreatedAt)
	})
	return archives, nil
}

// Restore extracts the uploads from an archive back into the uploads
// directory. Database exports are informational and are reported as
// skipped rather than applied.
func (s *Service) Restore(ctx context.Context, name string) (*RestoreReport, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".zip") {
		return nil, fmt.Errorf("invalid backup name")
	}

	zr, err := zip.OpenReader(filepath.Join(s.backupDir, name))
	if err != nil {
		return nil, fmt.Errorf("backup archive not found")
	}
	defer zr.Close()

	report := &RestoreReport{}
	for _, file := range zr.File {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry := filepath.ToSlash(file.Name)
		if !strings.HasPrefix(entry, "uploads/") {
			report.Skipped = append(report.Skipped, entry)
			continue
		}

		rel := strings.TrimPrefix(entry, "uploads/")
		dest := filepath.Join(s.uploadsDir, filepath.FromSlash(rel))
		// Reject entries that would escape the uploads directory.
		if !strings.HasPrefix(dest, filepath.Clean(s.uploadsDir)+string(os.PathSeparator)) {
			report.Skipped = append(report.Skipped, entry)
			continue
		}

		if err := extractFile(file, dest); err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", entry, err)
		}
		report.FilesRestored++
	}

	s.logger.Info("backup restored",
		zap.String("file", name),
		zap.Int("filesRestored", report.FilesRestored),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

func extractFile(file *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
