package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

var _ port.ClosableStorage = (*SQLStorage)(nil)

type sqldb interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingContext(ctx context.Context) error
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Close() error
}

// A SQLStorage keeps values in the kv_storage table.
type SQLStorage struct {
	sqldb sqldb
}

// NewSQLStorage opens the Postgres database and waits until it answers.
func NewSQLStorage(ctx context.Context, dsn string) (SQLStorage, error) {
	const op = "NewSQLStorage"

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return SQLStorage{}, fmt.Errorf("%s: invalid dsn: %w", op, err)
	}
	connStr := stdlib.RegisterConnConfig(connConfig)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return SQLStorage{}, fmt.Errorf("%s: %w", op, err)
	}

	s := newSQLStorage(db)
	if err := s.ping(ctx); err != nil {
		_ = db.Close()
		return SQLStorage{}, err
	}
	return s, nil
}

func newSQLStorage(db sqldb) SQLStorage {
	return SQLStorage{db}
}

func (s SQLStorage) ping(ctx context.Context) error {
	const op = "SQLStorage.ping"

	retryCfg := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}
	err := retry.Do(ctx, retryCfg, func() error {
		return s.sqldb.PingContext(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: database unavailable: %w", op, err)
	}
	slog.Info("database is available", "op", op)
	return nil
}

func (s SQLStorage) Get(ctx context.Context, key string) (string, error) {
	const op = "SQLStorage.Get"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT value FROM kv_storage WHERE key = $1;`

	var value string
	err := s.sqldb.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, port.ErrKeyNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

func (s SQLStorage) Set(ctx context.Context, key, value string) error {
	const op = "SQLStorage.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO kv_storage (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;`

	if _, err := s.sqldb.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: failed to exec: %w", op, err)
	}
	return nil
}

func (s SQLStorage) Close() {
	const op = "SQLStorage.Close"
	log := slog.With("op", op)

	log.Info("closing sql database...")

	if err := s.sqldb.Close(); err != nil {
		log.Error("failed to close", "err", err)
		return
	}
	log.Info("sql database is closed")
}
