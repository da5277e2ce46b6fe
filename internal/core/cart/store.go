package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/observer"
	"github.com/shopspring/decimal"
)

// A State is what subscribers receive after each change.
type State struct {
	Items  []domain.CartLineItem
	IsOpen bool
}

// A Store owns the cart lines and the drawer flag.
//
// Only the lines are persisted. Storage failures are logged
// and never roll back the in-memory state.
type Store struct {
	mu     sync.RWMutex
	items  []domain.CartLineItem
	isOpen bool
	rev    uint64

	persistMu    sync.Mutex
	persistedRev uint64

	storage port.KeyValueStorage
	key     string
	subs    observer.Subscribers[State]
}

type Opt func(*Store)

// KeyOpt overrides [StorageKey].
func KeyOpt(key string) Opt {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// New returns a store restored from the storage.
//
// A missing or corrupt saved cart gives an empty cart.
func New(ctx context.Context, storage port.KeyValueStorage, opts ...Opt) *Store {
	s := &Store{storage: storage, key: StorageKey}
	for _, opt := range opts {
		opt(s)
	}
	s.items = s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) []domain.CartLineItem {
	const op = "Store.restore"
	log := slog.With("op", op, "key", s.key)

	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			log.Warn("failed to read saved cart", "err", err)
		}
		return nil
	}

	items, err := decodeSnapshot(data)
	if err != nil {
		log.Warn("saved cart is corrupt, starting empty", "err", err)
		return nil
	}
	log.Debug("cart restored", "nItems", len(items))
	return items
}

// Close drops all subscribers.
func (s *Store) Close() {
	s.subs.Clear()
}

func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.subs.Add(fn)
}

func (s *Store) Items() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Total returns the sum of price times quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount returns the sum of quantities over all lines.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isOpen
}

// Dispatch applies the action, saves the lines and notifies subscribers.
func (s *Store) Dispatch(ctx context.Context, a Action) State {
	s.mu.Lock()
	s.items = Reduce(s.items, a)
	s.rev++
	rev := s.rev
	next := State{Items: slices.Clone(s.items), IsOpen: s.isOpen}
	s.mu.Unlock()

	s.persist(ctx, rev, next.Items)
	s.subs.Notify(next)
	return next
}

func (s *Store) AddItem(ctx context.Context, item domain.CartLineItem) {
	s.Dispatch(ctx, AddItem{item})
}

// RemoveItem deletes the line; an absent line is not an error.
func (s *Store) RemoveItem(ctx context.Context, productID, size, color string) {
	s.Dispatch(ctx, RemoveItem{domain.LineKey{
		ProductID: productID, Size: size, Color: color,
	}})
}

// UpdateQuantity sets the line quantity; quantity below one removes the line.
func (s *Store) UpdateQuantity(
	ctx context.Context, productID string, quantity int, size, color string,
) {
	s.Dispatch(ctx, UpdateQuantity{
		Key: domain.LineKey{
			ProductID: productID, Size: size, Color: color,
		},
		Quantity: quantity,
	})
}

func (s *Store) ClearCart(ctx context.Context) {
	s.Dispatch(ctx, ClearCart{})
}

func (s *Store) ToggleCart() {
	s.setOpen(func(open bool) bool { return !open })
}

func (s *Store) SetCartOpen(open bool) {
	s.setOpen(func(bool) bool { return open })
}

func (s *Store) setOpen(fn func(bool) bool) {
	s.mu.Lock()
	s.isOpen = fn(s.isOpen)
	next := State{Items: slices.Clone(s.items), IsOpen: s.isOpen}
	s.mu.Unlock()

	s.subs.Notify(next)
}

// persist writes the snapshot unless a newer one is already written.
func (s *Store) persist(ctx context.Context, rev uint64, items []domain.CartLineItem) {
	const op = "Store.persist"
	log := slog.With("op", op, "key", s.key)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if rev <= s.persistedRev {
		return
	}

	data, err := encodeSnapshot(items)
	if err != nil {
		log.Error("failed to encode cart", "err", fmt.Errorf("%s: %w", op, err))
		return
	}

	if err := s.storage.Set(ctx, s.key, data); err != nil {
		log.Error("failed to save cart", "err", fmt.Errorf("%s: %w", op, err))
		return
	}
	s.persistedRev = rev
}
