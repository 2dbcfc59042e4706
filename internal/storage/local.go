package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// LocalStorage keeps export snapshots on the local filesystem. Used when no
// Azure storage account is configured.
type LocalStorage struct {
	dir string
}

var _ StorageInterface = (*LocalStorage)(nil)

// NewLocalStorage creates a snapshot directory rooted at dir.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}
	logrus.Infof("Using local export storage at %s", dir)
	return &LocalStorage{dir: dir}, nil
}

// Store writes a snapshot file
func (s *LocalStorage) Store(filename string, data []byte) error {
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", filename, err)
	}
	logrus.Infof("Stored export snapshot %s", path)
	return nil
}

// Retrieve reads a snapshot file
func (s *LocalStorage) Retrieve(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", filename, err)
	}
	return data, nil
}

// List returns snapshot names under a prefix
func (s *LocalStorage) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if prefix == "" || strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Delete removes a snapshot file
func (s *LocalStorage) Delete(filename string) error {
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", filename, err)
	}
	return nil
}
