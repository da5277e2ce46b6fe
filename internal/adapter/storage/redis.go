package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/redis/go-redis/v9"
)

var _ port.ClosableStorage = (*RedisStorage)(nil)

// A RedisStorage keeps values as plain Redis strings.
//
// A zero TTL keeps the values forever.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOpt func(*RedisStorage)

// RedisPrefixOpt namespaces every key.
func RedisPrefixOpt(prefix string) RedisOpt {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

func RedisTTLOpt(ttl time.Duration) RedisOpt {
	return func(s *RedisStorage) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStorage connects to the Redis and waits until it answers.
func NewRedisStorage(
	ctx context.Context, ropts *redis.Options, opts ...RedisOpt,
) (*RedisStorage, error) {
	const op = "NewRedisStorage"
	log := slog.With("op", op)

	s := &RedisStorage{client: redis.NewClient(ropts)}
	for _, opt := range opts {
		opt(s)
	}

	retryCfg := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}
	err := retry.Do(ctx, retryCfg, func() error {
		return s.client.Ping(ctx).Err()
	})
	if err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("%s: redis unavailable: %w", op, err)
	}

	log.Info("redis is available", "addr", ropts.Addr)
	return s, nil
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	const op = "RedisStorage.Get"

	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, port.ErrKeyNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	const op = "RedisStorage.Set"

	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *RedisStorage) Close() {
	const op = "RedisStorage.Close"
	log := slog.With("op", op)

	log.Info("closing redis client...")

	if err := s.client.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("redis client is closed")
}
