package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/observer"
)

var ErrUnknownSort = errors.New("unknown sort key")

// A Store owns the catalog and the filter spec
// and keeps the derived view consistent with it.
//
// Readers never observe a view computed for a previous spec.
type Store struct {
	mu       sync.RWMutex
	products []domain.Product
	state    State
	subs     observer.Subscribers[State]
}

// New returns a store holding the products with the default filter spec applied.
func New(products []domain.Product) *Store {
	products = slices.Clone(products)
	spec := domain.DefaultFilterSpec()
	return &Store{
		products: products,
		state: State{
			Spec: spec,
			View: ComputeView(products, spec),
		},
	}
}

// Close drops all subscribers.
func (s *Store) Close() {
	s.subs.Clear()
}

// Products returns the unfiltered catalog.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

func (s *Store) Spec() domain.FilterSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Spec.Clone()
}

// View returns the filtered and sorted products.
func (s *Store) View() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.View)
}

// State returns the filter spec and the view as one consistent snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Spec: s.state.Spec.Clone(),
		View: slices.Clone(s.state.View),
	}
}

// Subscribe registers fn to be called with the new state after each change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.subs.Add(fn)
}

// Dispatch applies the action and notifies subscribers.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.products, s.state, a)
	next := State{
		Spec: s.state.Spec.Clone(),
		View: slices.Clone(s.state.View),
	}
	s.mu.Unlock()

	slog.Debug(
		"catalog view recomputed",
		"op", "Store.Dispatch",
		"action", fmt.Sprintf("%T", a),
		"nProducts", len(next.View),
	)
	s.subs.Notify(next)
	return next
}

func (s *Store) SetSearch(search string) {
	s.Dispatch(SetSearch{search})
}

// SetCategory sets the category; empty or [domain.CategoryAll] disables the filter.
func (s *Store) SetCategory(category string) {
	s.Dispatch(SetCategory{category})
}

func (s *Store) SetPriceRange(r domain.PriceRange) {
	s.Dispatch(SetPriceRange{r})
}

func (s *Store) SetSort(key domain.SortKey) error {
	const op = "Store.SetSort"
	if !key.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrUnknownSort, key)
	}
	s.Dispatch(SetSort{key})
	return nil
}

func (s *Store) ToggleSize(size string) {
	s.Dispatch(ToggleSize{size})
}

func (s *Store) ToggleColor(color string) {
	s.Dispatch(ToggleColor{color})
}

// ReplaceSpec applies the whole filter spec in one change.
func (s *Store) ReplaceSpec(spec domain.FilterSpec) State {
	return s.Dispatch(SetSpec{spec})
}

// ResetFilters restores the default spec.
func (s *Store) ResetFilters() {
	s.Dispatch(ResetFilters{})
}
