package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	_, err := s.Get(ctx, "cart-storage")
	require.ErrorIs(t, err, port.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "cart-storage", "v1"))
	require.NoError(t, s.Set(ctx, "cart-storage", "v2"))

	v, err := s.Get(ctx, "cart-storage")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, s.Set(canceled, "k", "v"), context.Canceled)
}

func TestRedisStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("GetSet", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := NewRedisStorage(ctx, &redis.Options{Addr: mr.Addr()},
			RedisPrefixOpt("storefront:"))
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Get(ctx, "cart-storage")
		require.ErrorIs(t, err, port.ErrKeyNotFound)

		require.NoError(t, s.Set(ctx, "cart-storage", `{"items":[]}`))

		v, err := s.Get(ctx, "cart-storage")
		require.NoError(t, err)
		assert.Equal(t, `{"items":[]}`, v)

		raw, err := mr.Get("storefront:cart-storage")
		require.NoError(t, err)
		assert.Equal(t, `{"items":[]}`, raw)
		assert.Zero(t, mr.TTL("storefront:cart-storage"))
	})

	t.Run("TTL", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := NewRedisStorage(ctx, &redis.Options{Addr: mr.Addr()},
			RedisTTLOpt(time.Hour))
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "k", "v"))
		assert.Equal(t, time.Hour, mr.TTL("k"))

		mr.FastForward(2 * time.Hour)
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, port.ErrKeyNotFound)
	})

	t.Run("Unavailable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisStorage(ctx, &redis.Options{Addr: addr})
		require.Error(t, err)
	})
}

func TestSQLStorage(t *testing.T) {
	ctx := context.Background()

	newMock := func(t *testing.T) (SQLStorage, sqlmock.Sqlmock) {
		t.Helper()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return newSQLStorage(db), mock
	}

	t.Run("Get", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery("SELECT value FROM kv_storage").
			WithArgs("cart-storage").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("blob"))

		v, err := s.Get(ctx, "cart-storage")
		require.NoError(t, err)
		assert.Equal(t, "blob", v)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetNotFound", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery("SELECT value FROM kv_storage").
			WithArgs("cart-storage").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, err := s.Get(ctx, "cart-storage")
		require.ErrorIs(t, err, port.ErrKeyNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetError", func(t *testing.T) {
		s, mock := newMock(t)
		errDB := errors.New("connection reset")
		mock.ExpectQuery("SELECT value FROM kv_storage").
			WithArgs("cart-storage").
			WillReturnError(errDB)

		_, err := s.Get(ctx, "cart-storage")
		require.ErrorIs(t, err, errDB)
		assert.NotErrorIs(t, err, port.ErrKeyNotFound)
	})

	t.Run("SetUpserts", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectExec("INSERT INTO kv_storage").
			WithArgs("cart-storage", "blob").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Set(ctx, "cart-storage", "blob"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SetCanceled", func(t *testing.T) {
		s, mock := newMock(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		require.ErrorIs(t, s.Set(canceled, "k", "v"), context.Canceled)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ping", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		require.NoError(t, newSQLStorage(db).ping(ctx))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
