// Package storage keeps generated media files on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// localStorage stores media under basePath and serves it under baseURL
type localStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath, baseURL string) *localStorage {
	return &localStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// generatePath converts underscores in mediaType to directories, so
// "audio_es" is stored under basePath/audio/es
func (s *localStorage) generatePath(name, mediaType string) string {
	typePath := strings.ReplaceAll(mediaType, "_", string(filepath.Separator))
	return filepath.Join(s.basePath, typePath, name)
}

// Save writes data to a new uniquely named file and returns its public URL
func (s *localStorage) Save(mediaType, extension string, data []byte) (string, error) {
	if strings.ContainsAny(mediaType, `/\.`) {
		return "", fmt.Errorf("invalid media type %q", mediaType)
	}
	name := GenerateFileName(extension)

	w, err := s.Create(name, mediaType)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close media file: %w", err)
	}

	return s.baseURL + "/" + path.Join(strings.ReplaceAll(mediaType, "_", "/"), name), nil
}

// Create creates a new file and returns a WriteCloser
func (s *localStorage) Create(name, mediaType string) (io.WriteCloser, error) {
	p := s.generatePath(name, mediaType)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

// Open opens a file for reading
func (s *localStorage) Open(name, mediaType string) (io.ReadCloser, error) {
	return os.Open(s.generatePath(name, mediaType))
}

// Delete removes a file
func (s *localStorage) Delete(name, mediaType string) error {
	return os.Remove(s.generatePath(name, mediaType))
}

// GenerateFileName returns a UUID file name with the given extension
func GenerateFileName(extension string) string {
	id := uuid.New().String()
	if extension != "" && extension[0] != '.' {
		return id + "." + extension
	}
	return id + extension
}
