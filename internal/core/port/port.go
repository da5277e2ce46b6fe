package port

import (
	"context"
	"errors"

	"github.com/niksmo/storefront/internal/core/domain"
)

var ErrKeyNotFound = errors.New("key not found")

type (
	closer interface {
		Close()
	}
)

// A ProductSource supplies the ordered catalog at startup.
type ProductSource interface {
	LoadProducts(context.Context) ([]domain.Product, error)
}

// A ReviewSource supplies reviews and static summaries keyed by product slug.
type ReviewSource interface {
	LoadReviews(context.Context) (
		map[string][]domain.Review, map[string]domain.ReviewSummary, error,
	)
}

// A KeyValueStorage is a durable string storage.
//
// Get returns [ErrKeyNotFound] when the key is absent.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type ClosableStorage interface {
	KeyValueStorage
	closer
}

type ProductsProducer interface {
	ProduceProducts(context.Context, []domain.Product) error
}
