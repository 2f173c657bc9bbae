package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrFileNotFound is returned when a requested object does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath is returned when a path is invalid or contains path traversal.
	ErrInvalidPath = errors.New("invalid path")
)

// BlobStorage stores the state document and published exports.
type BlobStorage interface {
	// Upload stores data from the reader at the specified path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download retrieves data from the specified path.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the data at the specified path.
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the specified path.
	Exists(ctx context.Context, path string) (bool, error)

	// GetURL returns a location the user can open to fetch the data:
	// a file:// URL locally, a presigned URL on S3.
	GetURL(ctx context.Context, path string) (string, error)
}

// Config selects and configures a BlobStorage.
type Config struct {
	Type          string
	BaseDir       string
	Bucket        string
	Region        string
	PresignExpiry time.Duration
}

// New creates a BlobStorage implementation based on configuration.
func New(ctx context.Context, cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "local", "file", "":
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir)

	case "s3":
		s3Storage, err := NewS3Storage(ctx, cfg.Bucket, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		if cfg.PresignExpiry > 0 {
			s3Storage.presignExpiration = cfg.PresignExpiry
		}
		return s3Storage, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// ReadAll downloads the object at path into memory.
func ReadAll(ctx context.Context, bs BlobStorage, path string) ([]byte, error) {
	rc, err := bs.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
