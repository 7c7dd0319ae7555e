package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// FileMode is the permission every stored object is normalized to
const FileMode = 0o644

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidName    = errors.New("invalid object name")
)

// maxUniqueAttempts bounds the suffix search in UniqueName
const maxUniqueAttempts = 1000

// Storage interface for file storage operations. Objects are addressed by a
// namespace (one per submission) and a name unique within it.
type Storage interface {
	// Exists reports whether name is taken within namespace
	Exists(ctx context.Context, namespace, name string) (bool, error)

	// UniqueName returns proposed, or a suffixed variant of it, that is free within namespace
	UniqueName(ctx context.Context, namespace, proposed string) (string, error)

	// Create writes data under name only if the name is free. It returns
	// ErrObjectExists instead of overwriting.
	Create(ctx context.Context, namespace, name string, data io.Reader) error

	// Open retrieves a stored object
	Open(ctx context.Context, namespace, name string) (io.ReadCloser, error)

	// Delete removes a stored object
	Delete(ctx context.Context, namespace, name string) error

	// URL returns the public reference for a stored object
	URL(namespace, name string) string
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	PublicURL    string // Base URL stored objects are served from
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath, cfg.PublicURL)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required for S3 storage")
		}
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// SanitizeFilename reduces a user supplied filename to a safe single path
// segment. The extension is lower-cased.
func SanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	clean := strings.Trim(b.String(), "._-")
	if clean == "" {
		clean = "file"
	}

	var e strings.Builder
	for _, r := range ext {
		if r == '.' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			e.WriteRune(r)
		}
	}
	if e.Len() <= 1 {
		return clean
	}
	return clean + e.String()
}

// uniqueName probes name, name-1, name-2 ... until exists reports a free slot
func uniqueName(proposed string, exists func(name string) (bool, error)) (string, error) {
	name := SanitizeFilename(proposed)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; i <= maxUniqueAttempts; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", proposed, maxUniqueAttempts)
}

func validateSegment(segment string) error {
	if segment == "" || segment == "." || segment == ".." || strings.ContainsAny(segment, "/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidName, segment)
	}
	return nil
}
