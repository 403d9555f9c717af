package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrStoredFileNotFound is returned when a key has no stored object
var ErrStoredFileNotFound = errors.New("stored file not found")

// Storage keeps uploaded originals or generated rewrites.
// One instance covers one area (uploads or modified documents).
type Storage interface {
	// Save stores the content under key and returns its location
	Save(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)

	// Open returns the stored content for key
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns every stored object in the area
	List(ctx context.Context) ([]StoredObject, error)

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// StoredObject describes one entry returned by List
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// UploadKey is the storage key of a task's original upload
func UploadKey(taskID, ext string) string {
	return taskID + ext
}

// ModifiedKey is the storage key of a task's rewritten document
func ModifiedKey(taskID string) string {
	return fmt.Sprintf("modified_%s.docx", taskID)
}

// LocalStorage handles local file storage operations
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a local storage rooted at basePath
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) fullPath(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Save writes the content to <basePath>/<key>
func (s *LocalStorage) Save(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		// Clean up on error
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fullPath, nil
}

// Open opens the file stored under key
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoredFileNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// List walks the base directory
func (s *LocalStorage) List(ctx context.Context) ([]StoredObject, error) {
	var objects []StoredObject
	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		objects = append(objects, StoredObject{
			Key:          filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.basePath, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Delete removes the file stored under key
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
