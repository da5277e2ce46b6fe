package service

import (
	"context"

	"github.com/niksmo/storefront/internal/core/port"
)

func sessionPrefix(id string) string {
	return "session/" + id + "/"
}

// scopedStorage keeps each session's keys apart in the shared storage.
type scopedStorage struct {
	storage port.KeyValueStorage
	prefix  string
}

func (s scopedStorage) Get(ctx context.Context, key string) (string, error) {
	return s.storage.Get(ctx, s.prefix+key)
}

func (s scopedStorage) Set(ctx context.Context, key, value string) error {
	return s.storage.Set(ctx, s.prefix+key, value)
}
