package domain

import "github.com/shopspring/decimal"

type (
	Product struct {
		ID            string
		Slug          string
		Name          string
		Description   string
		Price         decimal.Decimal
		OriginalPrice decimal.NullDecimal
		Image         string
		Images        []string
		Category      string
		Rating        float64
		Reviews       int
		IsNew         bool
		IsBestSeller  bool
		Stock         int
		Sizes         []string
		Colors        []string
		Tags          []string
	}
)

// HasDiscount reports whether the original price is set and above the price.
func (p Product) HasDiscount() bool {
	return p.OriginalPrice.Valid && p.OriginalPrice.Decimal.GreaterThan(p.Price)
}

// DiscountPercent returns the rounded discount in percents
// or zero when the product has no discount.
func (p Product) DiscountPercent() int {
	if !p.HasDiscount() {
		return 0
	}
	ratio := p.Price.Div(p.OriginalPrice.Decimal)
	percent := decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100))
	return int(percent.Round(0).IntPart())
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
