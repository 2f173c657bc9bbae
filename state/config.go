package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/testpilot/logger"
	"github.com/hairizuan-noorazman/testpilot/storage"
	"gorm.io/gorm"
)

// BackendConfig selects where the state document lives.
type BackendConfig struct {
	// Backend is one of "file" (default), "s3" or "sql".
	Backend       string
	BaseDir       string
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	PresignExpiry time.Duration
}

// NewBackend builds the configured backend. openDB is only called for the
// "sql" backend.
func NewBackend(ctx context.Context, cfg BackendConfig, openDB func() (*gorm.DB, error), log logger.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "file", "local", "":
		blobs, err := storage.NewLocalStorage(cfg.BaseDir)
		if err != nil {
			return nil, err
		}
		return NewBlobBackend(blobs, ""), nil

	case "s3":
		blobs, err := storage.New(ctx, storage.Config{
			Type:          "s3",
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			PresignExpiry: cfg.PresignExpiry,
		})
		if err != nil {
			return nil, err
		}
		return NewBlobBackend(blobs, cfg.S3Prefix), nil

	case "sql":
		if openDB == nil {
			return nil, fmt.Errorf("sql state backend requires a database connection")
		}
		db, err := openDB()
		if err != nil {
			return nil, err
		}
		return NewSQLBackend(db, log), nil

	default:
		return nil, fmt.Errorf("unsupported state backend: %s", cfg.Backend)
	}
}
