// Package catalog implements the product filter and sort pipeline
// and the store holding the derived catalog view.
package catalog

import (
	"slices"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

// ComputeView returns the products that pass the filter spec, ordered by spec.Sort.
//
// The input slice is never modified.
func ComputeView(products []domain.Product, spec domain.FilterSpec) []domain.Product {
	sizes := toSet(spec.Sizes)
	colors := toSet(spec.Colors)
	query := strings.ToLower(spec.Search)

	view := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if query != "" && !matchesLower(p, query) {
			continue
		}
		if spec.HasCategory() && p.Category != spec.Category {
			continue
		}
		if !spec.PriceRange.Contains(p.Price) {
			continue
		}
		if len(sizes) != 0 && !intersects(p.Sizes, sizes) {
			continue
		}
		if len(colors) != 0 && !intersects(p.Colors, colors) {
			continue
		}
		view = append(view, p)
	}

	sortView(view, spec.Sort)
	return view
}

// Matches reports whether the query is a case-insensitive substring
// of the product name, category or any tag. An empty query matches.
func Matches(p domain.Product, query string) bool {
	return matchesLower(p, strings.ToLower(query))
}

func matchesLower(p domain.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Category), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func sortView(view []domain.Product, key domain.SortKey) {
	switch key {
	case domain.SortPriceAsc:
		slices.SortStableFunc(view, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case domain.SortPriceDesc:
		slices.SortStableFunc(view, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	case domain.SortRating:
		slices.SortStableFunc(view, func(a, b domain.Product) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			}
			return 0
		})
	case domain.SortNewest:
		// new-flagged products go after the rest
		slices.SortStableFunc(view, func(a, b domain.Product) int {
			switch {
			case a.IsNew == b.IsNew:
				return 0
			case a.IsNew:
				return 1
			}
			return -1
		})
	}
}

func toSet(vs []string) map[string]struct{} {
	if len(vs) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		set[v] = struct{}{}
	}
	return set
}

func intersects(vs []string, set map[string]struct{}) bool {
	for _, v := range vs {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
