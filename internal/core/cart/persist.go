package cart

import (
	"encoding/json"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StorageKey is the fixed key of the persisted line list.
const StorageKey = "cart-storage"

const snapshotVersion = 0

type (
	snapshot struct {
		Items   []lineItem `json:"items"`
		Version int        `json:"version"`
	}

	lineItem struct {
		ID       string          `json:"id"`
		Slug     string          `json:"slug"`
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Image    string          `json:"image"`
		Quantity int             `json:"quantity"`
		Size     string          `json:"size,omitempty"`
		Color    string          `json:"color,omitempty"`
	}
)

func encodeSnapshot(items []domain.CartLineItem) (string, error) {
	s := snapshot{
		Items:   make([]lineItem, len(items)),
		Version: snapshotVersion,
	}
	for i, item := range items {
		s.Items[i] = toLineItem(item)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeSnapshot reads the items field and ignores the rest.
// Lines with quantity below one are dropped and
// quantities above [MaxQuantity] are capped.
func decodeSnapshot(data string) ([]domain.CartLineItem, error) {
	var s snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	items := make([]domain.CartLineItem, 0, len(s.Items))
	for _, v := range s.Items {
		if v.Quantity < 1 {
			continue
		}
		item := toDomain(v)
		item.Quantity = clampQuantity(item.Quantity)
		items = append(items, item)
	}
	return items, nil
}

func toLineItem(v domain.CartLineItem) lineItem {
	return lineItem{
		ID:       v.ProductID,
		Slug:     v.Slug,
		Name:     v.Name,
		Price:    v.Price,
		Image:    v.Image,
		Quantity: v.Quantity,
		Size:     v.Size,
		Color:    v.Color,
	}
}

func toDomain(v lineItem) domain.CartLineItem {
	return domain.CartLineItem{
		ProductID: v.ID,
		Slug:      v.Slug,
		Name:      v.Name,
		Price:     v.Price,
		Image:     v.Image,
		Quantity:  v.Quantity,
		Size:      v.Size,
		Color:     v.Color,
	}
}
