package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hairizuan-noorazman/testpilot/storage"
)

// BlobBackend stores each document as "<prefix><key>.json" in blob storage.
type BlobBackend struct {
	blobs  storage.BlobStorage
	prefix string
}

// NewBlobBackend creates a backend over blobs. prefix may be empty.
func NewBlobBackend(blobs storage.BlobStorage, prefix string) *BlobBackend {
	return &BlobBackend{blobs: blobs, prefix: prefix}
}

func (b *BlobBackend) path(key string) string {
	return b.prefix + key + ".json"
}

func (b *BlobBackend) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := storage.ReadAll(ctx, b.blobs, b.path(key))
	if errors.Is(err, storage.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	return data, nil
}

func (b *BlobBackend) Write(ctx context.Context, key string, data []byte) error {
	if err := b.blobs.Upload(ctx, b.path(key), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

func (b *BlobBackend) Delete(ctx context.Context, key string) error {
	err := b.blobs.Delete(ctx, b.path(key))
	if err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}
