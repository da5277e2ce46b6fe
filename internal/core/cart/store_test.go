package cart_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type mapStorage map[string]string

func (s mapStorage) Get(_ context.Context, key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", port.ErrKeyNotFound
	}
	return v, nil
}

func (s mapStorage) Set(_ context.Context, key, value string) error {
	s[key] = value
	return nil
}

func item(id string, price string, quantity int, size, color string) domain.CartLineItem {
	return domain.CartLineItem{
		ProductID: id,
		Slug:      "slug-" + id,
		Name:      "Product " + id,
		Price:     decimal.RequireFromString(price),
		Image:     "/img/" + id + ".jpg",
		Quantity:  quantity,
		Size:      size,
		Color:     color,
	}
}

func TestStoreAddItem(t *testing.T) {
	ctx := t.Context()

	t.Run("MergeSameKey", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "M", ""))
		s.AddItem(ctx, item("x", "10", 2, "M", ""))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
	})

	t.Run("DistinctSizes", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "M", ""))
		s.AddItem(ctx, item("x", "10", 1, "L", ""))

		items := s.Items()
		require.Len(t, items, 2)
		assert.Equal(t, "M", items[0].Size)
		assert.Equal(t, "L", items[1].Size)
	})

	t.Run("AbsentAttributesAreNotWildcards", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "M", "Black"))
		s.AddItem(ctx, item("x", "10", 0, "", ""))
		s.AddItem(ctx, item("x", "10", 0, "", ""))

		items := s.Items()
		require.Len(t, items, 2)
		assert.Equal(t, 1, items[0].Quantity)
		assert.Equal(t, 2, items[1].Quantity)
	})

	t.Run("OmittedQuantityCountsAsOne", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 0, "", ""))
		s.AddItem(ctx, item("y", "10", -3, "", ""))
		assert.Equal(t, 2, s.ItemCount())
	})

	t.Run("MergeSaturatesAtMaxQuantity", func(t *testing.T) {
		storage := mapStorage{}
		s := cart.New(ctx, storage)
		s.AddItem(ctx, item("x", "10", math.MaxInt, "", ""))
		s.AddItem(ctx, item("x", "10", 2, "", ""))

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, cart.MaxQuantity, items[0].Quantity)
		assert.Equal(t, cart.MaxQuantity, s.ItemCount())
		assert.True(t, s.Total().IsPositive())

		restored := cart.New(ctx, storage)
		assert.Equal(t, items, restored.Items())
	})

	t.Run("PriceIsSnapshot", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "", ""))
		s.AddItem(ctx, item("x", "12", 1, "", ""))

		items := s.Items()
		require.Len(t, items, 1)
		assert.True(t, items[0].Price.Equal(decimal.NewFromInt(10)))
	})
}

func TestStoreTotals(t *testing.T) {
	ctx := t.Context()
	s := cart.New(ctx, mapStorage{})

	assert.True(t, s.Total().IsZero())
	assert.Zero(t, s.ItemCount())

	s.AddItem(ctx, item("a", "25.50", 1, "", ""))
	before := s.Total()

	s.AddItem(ctx, item("b", "9.99", 2, "", ""))
	assert.Equal(t, "19.98", s.Total().Sub(before).String())
	assert.Equal(t, "45.48", s.Total().String())
	assert.Equal(t, 3, s.ItemCount())
}

func TestStoreRemoveAndUpdate(t *testing.T) {
	ctx := t.Context()

	t.Run("RemoveAbsentIsNoop", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "M", ""))
		before := s.Items()

		s.RemoveItem(ctx, "x", "L", "")
		s.RemoveItem(ctx, "nope", "", "")
		assert.Equal(t, before, s.Items())
	})

	t.Run("RemoveMatchesFullKey", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "M", ""))
		s.AddItem(ctx, item("x", "10", 1, "L", ""))

		s.RemoveItem(ctx, "x", "M", "")

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "L", items[0].Size)
	})

	t.Run("UpdateQuantity", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "M", "Red"))

		s.UpdateQuantity(ctx, "x", 5, "M", "Red")
		assert.Equal(t, 5, s.ItemCount())

		s.UpdateQuantity(ctx, "x", 7, "M", "")
		assert.Equal(t, 5, s.ItemCount())
	})

	t.Run("UpdateQuantityCapped", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 1, "", ""))
		s.UpdateQuantity(ctx, "x", math.MaxInt, "", "")
		assert.Equal(t, cart.MaxQuantity, s.ItemCount())
	})

	t.Run("QuantityFloor", func(t *testing.T) {
		for _, qty := range []int{0, -5} {
			s := cart.New(ctx, mapStorage{})
			s.AddItem(ctx, item("x", "10", 2, "", ""))
			s.UpdateQuantity(ctx, "x", qty, "", "")
			assert.Empty(t, s.Items())
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := cart.New(ctx, mapStorage{})
		s.AddItem(ctx, item("x", "10", 2, "", ""))
		s.AddItem(ctx, item("y", "10", 2, "", ""))
		s.ClearCart(ctx)
		assert.Empty(t, s.Items())
		assert.True(t, s.Total().IsZero())
	})
}

func TestStoreDrawer(t *testing.T) {
	ctx := t.Context()
	storage := mapStorage{}
	s := cart.New(ctx, storage)

	var states []cart.State
	s.Subscribe(func(st cart.State) { states = append(states, st) })

	assert.False(t, s.IsOpen())
	s.ToggleCart()
	assert.True(t, s.IsOpen())
	s.SetCartOpen(false)
	assert.False(t, s.IsOpen())

	require.Len(t, states, 2)
	assert.True(t, states[0].IsOpen)
	assert.False(t, states[1].IsOpen)
	assert.Empty(t, storage, "drawer flag must not be persisted")
}

func TestStorePersistence(t *testing.T) {
	ctx := t.Context()

	t.Run("RestoreAfterRestart", func(t *testing.T) {
		storage := mapStorage{}
		s := cart.New(ctx, storage)
		s.AddItem(ctx, item("x", "9.99", 2, "M", "Black"))
		s.AddItem(ctx, item("y", "5", 1, "", ""))
		s.SetCartOpen(true)
		s.Close()

		restored := cart.New(ctx, storage)
		assert.Equal(t, s.Items(), restored.Items())
		assert.False(t, restored.IsOpen())
		assert.Equal(t, "24.98", restored.Total().String())
	})

	t.Run("WritesUnderFixedKey", func(t *testing.T) {
		storage := mapStorage{}
		s := cart.New(ctx, storage)
		s.AddItem(ctx, item("x", "1", 1, "", ""))
		require.Contains(t, storage, cart.StorageKey)
		assert.JSONEq(t,
			`{"items":[{"id":"x","slug":"slug-x","name":"Product x","price":"1","image":"/img/x.jpg","quantity":1}],"version":0}`,
			storage[cart.StorageKey],
		)
	})

	t.Run("RestoreIgnoresUnknownFields", func(t *testing.T) {
		storage := mapStorage{cart.StorageKey: `{
			"items": [
				{"id":"x","slug":"s","name":"n","price":12.5,"image":"i","quantity":2,"size":"M","extra":true},
				{"id":"y","slug":"s","name":"n","price":"3","image":"i","quantity":0}
			],
			"isOpen": true,
			"version": 3
		}`}
		s := cart.New(ctx, storage)

		items := s.Items()
		require.Len(t, items, 1)
		assert.Equal(t, "x", items[0].ProductID)
		assert.Equal(t, "M", items[0].Size)
		assert.Equal(t, "25", s.Total().String())
		assert.False(t, s.IsOpen())
	})

	t.Run("RestoreCapsQuantity", func(t *testing.T) {
		storage := mapStorage{cart.StorageKey: `{"items":[{"id":"x","price":"1","quantity":1000000}]}`}
		s := cart.New(ctx, storage)
		assert.Equal(t, cart.MaxQuantity, s.ItemCount())
	})

	t.Run("CorruptBlobGivesEmptyCart", func(t *testing.T) {
		storage := mapStorage{cart.StorageKey: `{"items": [`}
		s := cart.New(ctx, storage)
		assert.Empty(t, s.Items())
	})

	t.Run("ReadErrorGivesEmptyCart", func(t *testing.T) {
		storage := new(MockStorage)
		storage.On("Get", mock.Anything, cart.StorageKey).
			Return("", errors.New("connection refused"))

		s := cart.New(ctx, storage)
		assert.Empty(t, s.Items())
		storage.AssertExpectations(t)
	})

	t.Run("WriteErrorKeepsState", func(t *testing.T) {
		storage := new(MockStorage)
		storage.On("Get", mock.Anything, "custom").Return("", port.ErrKeyNotFound)
		storage.On("Set", mock.Anything, "custom", mock.AnythingOfType("string")).
			Return(errors.New("disk full"))

		s := cart.New(ctx, storage, cart.KeyOpt("custom"))
		s.AddItem(ctx, item("x", "10", 1, "", ""))

		assert.Equal(t, 1, s.ItemCount())
		storage.AssertNumberOfCalls(t, "Set", 1)
	})
}

func TestReduce(t *testing.T) {
	initial := []domain.CartLineItem{item("x", "10", 1, "", "")}
	next := cart.Reduce(initial, cart.AddItem{Item: item("x", "10", 4, "", "")})

	assert.Equal(t, 1, initial[0].Quantity)
	assert.Equal(t, 5, next[0].Quantity)
}
