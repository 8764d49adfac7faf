package ticket

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for blob storage operations
type Storage interface {
	// Save saves a blob and returns its key
	Save(key string, data []byte) (string, error)

	// Get retrieves a blob by key
	Get(key string) ([]byte, error)

	// Delete removes a blob
	Delete(key string) error

	// Exists reports whether a blob is present
	Exists(key string) bool

	// List returns the keys of all stored blobs
	List() ([]string, error)
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a blob to local storage
func (l *LocalStorage) Save(key string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return key, nil
}

// Get retrieves a blob from local storage
func (l *LocalStorage) Get(key string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, key)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a blob from local storage
func (l *LocalStorage) Delete(key string) error {
	fullPath := filepath.Join(l.basePath, key)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Exists reports whether a blob is present
func (l *LocalStorage) Exists(key string) bool {
	info, err := os.Stat(filepath.Join(l.basePath, key))
	return err == nil && !info.IsDir()
}

// List returns the names of all regular files in the storage directory
func (l *LocalStorage) List() ([]string, error) {
	dirEntries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading storage directory: %w", err)
	}

	keys := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.Type().IsRegular() {
			keys = append(keys, entry.Name())
		}
	}
	return keys, nil
}
