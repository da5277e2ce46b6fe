// Package cart implements the cart aggregation store.
package cart

import (
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

// MaxQuantity is the largest quantity a line holds.
// Merging and updating saturate at it.
const MaxQuantity = 9999

// An Action changes the cart line list.
type Action interface {
	apply([]domain.CartLineItem) []domain.CartLineItem
}

// Reduce returns the line list after the action.
//
// The given list is left untouched.
func Reduce(items []domain.CartLineItem, a Action) []domain.CartLineItem {
	return a.apply(slices.Clone(items))
}

type (
	// AddItem merges the item into the line with the same key
	// or appends a new line. Quantity below one counts as one.
	// The merged quantity is capped at [MaxQuantity].
	AddItem struct{ Item domain.CartLineItem }

	RemoveItem struct{ Key domain.LineKey }

	// UpdateQuantity with quantity below one removes the line.
	// Quantity above [MaxQuantity] is capped.
	UpdateQuantity struct {
		Key      domain.LineKey
		Quantity int
	}

	ClearCart struct{}
)

func (a AddItem) apply(items []domain.CartLineItem) []domain.CartLineItem {
	item := a.Item
	item.Quantity = clampQuantity(item.Quantity)
	if i := indexOf(items, item.Key()); i >= 0 {
		items[i].Quantity = addQuantity(items[i].Quantity, item.Quantity)
		return items
	}
	return append(items, item)
}

func (a RemoveItem) apply(items []domain.CartLineItem) []domain.CartLineItem {
	return slices.DeleteFunc(items, func(item domain.CartLineItem) bool {
		return item.Key() == a.Key
	})
}

func (a UpdateQuantity) apply(items []domain.CartLineItem) []domain.CartLineItem {
	if a.Quantity <= 0 {
		return RemoveItem{a.Key}.apply(items)
	}
	if i := indexOf(items, a.Key); i >= 0 {
		items[i].Quantity = clampQuantity(a.Quantity)
	}
	return items
}

func (ClearCart) apply([]domain.CartLineItem) []domain.CartLineItem {
	return nil
}

func indexOf(items []domain.CartLineItem, key domain.LineKey) int {
	return slices.IndexFunc(items, func(item domain.CartLineItem) bool {
		return item.Key() == key
	})
}

// clampQuantity maps q into [1, MaxQuantity].
func clampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

// addQuantity sums two clamped quantities without leaving [1, MaxQuantity].
func addQuantity(a, b int) int {
	a, b = clampQuantity(a), clampQuantity(b)
	if a > MaxQuantity-b {
		return MaxQuantity
	}
	return a + b
}
