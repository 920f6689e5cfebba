// Package storage implements local-disk file storage for uploaded content
package storage

import (
	"io"
	"os"
	"path/filepath"
)

// localStorage implements file storage on the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath string) *localStorage {
	return &localStorage{
		basePath: basePath,
	}
}

// generatePath generates the full file path for an id within a category
func (s *localStorage) generatePath(id, category string) string {
	return filepath.Join(s.basePath, category, id)
}

// Create creates a new file and returns a WriteCloser
func (s *localStorage) Create(id, category string) (io.WriteCloser, error) {
	path := s.generatePath(id, category)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return os.Create(path)
}

// Open opens a file for reading and returns a ReadCloser
func (s *localStorage) Open(id, category string) (io.ReadCloser, error) {
	path := s.generatePath(id, category)
	return os.Open(path)
}

// Delete removes a file
func (s *localStorage) Delete(id, category string) error {
	path := s.generatePath(id, category)
	return os.Remove(path)
}
