package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements Storage interface for local filesystem
type LocalStorage struct {
	basePath  string
	publicURL string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:  basePath,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *LocalStorage) fullPath(namespace, name string) (string, error) {
	if err := validateSegment(namespace); err != nil {
		return "", err
	}
	if err := validateSegment(name); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, namespace, name), nil
}

// Exists checks whether a file is already stored under name
func (s *LocalStorage) Exists(ctx context.Context, namespace, name string) (bool, error) {
	fullPath, err := s.fullPath(namespace, name)
	if err != nil {
		return false, err
	}
	_, err = os.Lstat(fullPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat file: %w", err)
}

// UniqueName picks a free filename within the namespace directory
func (s *LocalStorage) UniqueName(ctx context.Context, namespace, proposed string) (string, error) {
	return uniqueName(proposed, func(name string) (bool, error) {
		return s.Exists(ctx, namespace, name)
	})
}

// Create stores a file locally. O_EXCL makes the existence check and the
// create a single step, so two writers can never share a name.
func (s *LocalStorage) Create(ctx context.Context, namespace, name string, data io.Reader) error {
	fullPath, err := s.fullPath(namespace, name)
	if err != nil {
		return err
	}

	// Create directory structure
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s/%s", ErrObjectExists, namespace, name)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		os.Remove(fullPath) // Clean up on error
		return fmt.Errorf("failed to write file: %w", err)
	}

	// umask may have narrowed the mode given to OpenFile
	if err := file.Chmod(FileMode); err != nil {
		file.Close()
		os.Remove(fullPath)
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// Open retrieves a file from local storage
func (s *LocalStorage) Open(ctx context.Context, namespace, name string) (io.ReadCloser, error) {
	fullPath, err := s.fullPath(namespace, name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, namespace, name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a file from local storage
func (s *LocalStorage) Delete(ctx context.Context, namespace, name string) error {
	fullPath, err := s.fullPath(namespace, name)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// URL builds the public address of a stored file
func (s *LocalStorage) URL(namespace, name string) string {
	return s.publicURL + "/" + url.PathEscape(namespace) + "/" + url.PathEscape(name)
}
