package domain

import "github.com/shopspring/decimal"

// A CartLineItem is a product snapshot taken at add-time.
//
// Empty Size or Color means the attribute is absent.
type CartLineItem struct {
	ProductID string
	Slug      string
	Name      string
	Price     decimal.Decimal
	Image     string
	Quantity  int
	Size      string
	Color     string
}

// A LineKey identifies a cart line.
type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

func (i CartLineItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// Subtotal returns price multiplied by quantity.
func (i CartLineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
