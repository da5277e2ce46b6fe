// Package storage implements the key-value storages the cart persists to.
package storage

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ClosableStorage = (*MemoryStorage)(nil)

// A MemoryStorage keeps values in the process memory.
type MemoryStorage struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{m: make(map[string]string)}
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", port.ErrKeyNotFound
	}
	return v, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemoryStorage) Close() {}
