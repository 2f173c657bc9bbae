package state

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Backend when nothing is stored under a key.
var ErrNotFound = errors.New("state not found")

// Backend persists raw state documents by key.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryBackend keeps documents in memory.
type MemoryBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (b *MemoryBackend) Read(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBackend) Write(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[key] = append([]byte(nil), data...)
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.docs, key)
	return nil
}
