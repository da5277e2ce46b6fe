package catalog

import (
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

// A State is the filter spec with the view derived from it.
type State struct {
	Spec domain.FilterSpec
	View []domain.Product
}

// An Action changes the filter spec.
type Action interface {
	apply(domain.FilterSpec) domain.FilterSpec
}

// Reduce applies the action to the filter spec and recomputes the view.
//
// The given state is left untouched.
func Reduce(products []domain.Product, s State, a Action) State {
	spec := a.apply(s.Spec.Clone())
	return State{
		Spec: spec,
		View: ComputeView(products, spec),
	}
}

type (
	SetSearch     struct{ Search string }
	SetCategory   struct{ Category string }
	SetPriceRange struct{ Range domain.PriceRange }
	SetSort       struct{ Sort domain.SortKey }
	ToggleSize    struct{ Size string }
	ToggleColor   struct{ Color string }
	ResetFilters  struct{}

	// SetSpec replaces the whole filter spec.
	// Repeated sizes and colors are kept once.
	SetSpec struct{ Spec domain.FilterSpec }
)

func (a SetSearch) apply(s domain.FilterSpec) domain.FilterSpec {
	s.Search = a.Search
	return s
}

func (a SetCategory) apply(s domain.FilterSpec) domain.FilterSpec {
	s.Category = a.Category
	return s
}

func (a SetPriceRange) apply(s domain.FilterSpec) domain.FilterSpec {
	s.PriceRange = a.Range
	return s
}

func (a SetSort) apply(s domain.FilterSpec) domain.FilterSpec {
	s.Sort = a.Sort
	return s
}

func (a ToggleSize) apply(s domain.FilterSpec) domain.FilterSpec {
	s.Sizes = toggle(s.Sizes, a.Size)
	return s
}

func (a ToggleColor) apply(s domain.FilterSpec) domain.FilterSpec {
	s.Colors = toggle(s.Colors, a.Color)
	return s
}

func (ResetFilters) apply(domain.FilterSpec) domain.FilterSpec {
	return domain.DefaultFilterSpec()
}

func (a SetSpec) apply(domain.FilterSpec) domain.FilterSpec {
	s := a.Spec.Clone()
	s.Sizes = unique(s.Sizes)
	s.Colors = unique(s.Colors)
	return s
}

func unique(vs []string) []string {
	out := vs[:0]
	for _, v := range vs {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func toggle(vs []string, v string) []string {
	if i := slices.Index(vs, v); i >= 0 {
		return slices.Delete(vs, i, i+1)
	}
	return append(vs, v)
}
