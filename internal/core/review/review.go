// Package review serves the static product reviews.
package review

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

var ErrUnknownOrder = errors.New("unknown review order")

// DefaultLimit is the number of reviews shown before "show all".
const DefaultLimit = 5

type Order string

const (
	OrderRecent  Order = "recent"
	OrderHighest Order = "highest"
	OrderLowest  Order = "lowest"
)

func ParseOrder(s string) (Order, error) {
	const op = "review.ParseOrder"
	switch o := Order(s); o {
	case OrderRecent, OrderHighest, OrderLowest:
		return o, nil
	case "":
		return OrderRecent, nil
	}
	return "", fmt.Errorf("%s: %w: %q", op, ErrUnknownOrder, s)
}

// A Catalog is a read-only lookup keyed by product slug.
type Catalog struct {
	reviews   map[string][]domain.Review
	summaries map[string]domain.ReviewSummary
}

func NewCatalog(
	reviews map[string][]domain.Review,
	summaries map[string]domain.ReviewSummary,
) Catalog {
	return Catalog{reviews: reviews, summaries: summaries}
}

// Reviews returns the product reviews in the given order.
// A limit below one returns all of them.
func (c Catalog) Reviews(slug string, order Order, limit int) []domain.Review {
	rs := slices.Clone(c.reviews[slug])
	sortReviews(rs, order)
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs
}

// Summary returns the static summary or the one computed from the reviews.
// It reports false when the product has neither.
func (c Catalog) Summary(slug string) (domain.ReviewSummary, bool) {
	if s, ok := c.summaries[slug]; ok {
		return s, true
	}
	rs, ok := c.reviews[slug]
	if !ok || len(rs) == 0 {
		return domain.ReviewSummary{}, false
	}
	return Summarize(rs), true
}

// Summarize computes the average rounded to one decimal and the star distribution.
func Summarize(rs []domain.Review) domain.ReviewSummary {
	var s domain.ReviewSummary
	if len(rs) == 0 {
		return s
	}
	var sum int
	for _, r := range rs {
		sum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			s.RatingDistribution[r.Rating-1]++
		}
	}
	s.TotalReviews = len(rs)
	avg := float64(sum) / float64(len(rs))
	s.AverageRating = math.Round(avg*10) / 10
	return s
}

// Percentage returns the share of reviews with the given stars in percents.
func Percentage(s domain.ReviewSummary, stars int) float64 {
	if s.TotalReviews == 0 {
		return 0
	}
	return float64(s.Count(stars)) / float64(s.TotalReviews) * 100
}

func sortReviews(rs []domain.Review, order Order) {
	switch order {
	case OrderHighest:
		slices.SortStableFunc(rs, func(a, b domain.Review) int {
			return b.Rating - a.Rating
		})
	case OrderLowest:
		slices.SortStableFunc(rs, func(a, b domain.Review) int {
			return a.Rating - b.Rating
		})
	default:
		slices.SortStableFunc(rs, func(a, b domain.Review) int {
			return b.Date.Compare(a.Date)
		})
	}
}
