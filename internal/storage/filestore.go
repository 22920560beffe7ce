package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists uploaded statement files on local disk.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the file and returns the path it was written to.
func (f *FileStore) Save(name string, data []byte) (string, error) {
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func (f *FileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}
