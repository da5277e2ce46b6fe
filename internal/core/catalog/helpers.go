package catalog

import (
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

const DefaultRelatedLimit = 3

// Facets are the filter values offered by a catalog.
type Facets struct {
	Sizes    []string
	Colors   []string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

// Categories returns [domain.CategoryAll] followed by
// the distinct categories in catalog order.
func Categories(products []domain.Product) []string {
	categories := []string{domain.CategoryAll}
	seen := make(map[string]struct{})
	for _, p := range products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

func CatalogFacets(products []domain.Product) Facets {
	var f Facets
	sizes := make(map[string]struct{})
	colors := make(map[string]struct{})
	for i, p := range products {
		f.Sizes = appendDistinct(f.Sizes, sizes, p.Sizes)
		f.Colors = appendDistinct(f.Colors, colors, p.Colors)
		if i == 0 || p.Price.LessThan(f.MinPrice) {
			f.MinPrice = p.Price
		}
		if i == 0 || p.Price.GreaterThan(f.MaxPrice) {
			f.MaxPrice = p.Price
		}
	}
	return f
}

func appendDistinct(dst []string, seen map[string]struct{}, vs []string) []string {
	for _, v := range vs {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

func FindBySlug(products []domain.Product, slug string) (domain.Product, bool) {
	for _, p := range products {
		if p.Slug == slug {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Related returns up to limit products of the same category
// excluding the product itself, in catalog order.
func Related(products []domain.Product, product domain.Product, limit int) []domain.Product {
	var related []domain.Product
	for _, p := range products {
		if len(related) == limit {
			break
		}
		if p.Category == product.Category && p.ID != product.ID {
			related = append(related, p)
		}
	}
	return related
}

// ParsePriceBound reads the leading integer of the user input.
//
// Text without leading digits gives zero.
func ParsePriceBound(text string) decimal.Decimal {
	text = strings.TrimSpace(text)
	end := 0
	if end < len(text) && (text[end] == '-' || text[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return decimal.Zero
	}
	n, err := strconv.ParseInt(text[:end], 10, 64)
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(n)
}
