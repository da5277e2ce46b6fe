package domain

import "github.com/shopspring/decimal"

// CategoryAll is the category sentinel that disables the category filter.
const CategoryAll = "All"

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
		return true
	}
	return false
}

// A PriceRange is inclusive on both ends.
//
// Min greater than Max is allowed and matches nothing.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// A FilterSpec is the full set of user selected catalog criteria.
//
// Sizes and Colors keep selection order and hold no duplicates.
type FilterSpec struct {
	Search     string
	Category   string
	PriceRange PriceRange
	Sort       SortKey
	Sizes      []string
	Colors     []string
}

// DefaultPriceRange is the price bound of the default filter.
func DefaultPriceRange() PriceRange {
	return PriceRange{
		Min: decimal.Zero,
		Max: decimal.NewFromInt(1000),
	}
}

func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		PriceRange: DefaultPriceRange(),
		Sort:       SortNewest,
	}
}

// HasCategory reports whether the category filter is active.
func (s FilterSpec) HasCategory() bool {
	return s.Category != "" && s.Category != CategoryAll
}

func (s FilterSpec) Clone() FilterSpec {
	c := s
	c.Sizes = append([]string(nil), s.Sizes...)
	c.Colors = append([]string(nil), s.Colors...)
	return c
}
