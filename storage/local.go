package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// localStore implements Store on the local filesystem.
type localStore struct {
	baseDir string
}

// NewLocalStore creates a filesystem-backed store rooted at baseDir.
func NewLocalStore(baseDir string) (Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", baseDir, err)
	}
	return &localStore{baseDir: baseDir}, nil
}

// resolve maps an object path onto the base directory, rejecting anything
// that would escape it.
func (s *localStore) resolve(objectPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(objectPath))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

func (s *localStore) Save(_ context.Context, objectPath string, r io.Reader, _ int64, _ string) error {
	path, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", objectPath, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", objectPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", objectPath, err)
	}
	return nil
}

func (s *localStore) Open(_ context.Context, objectPath string) (io.ReadCloser, error) {
	path, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", objectPath, err)
	}
	return f, nil
}
