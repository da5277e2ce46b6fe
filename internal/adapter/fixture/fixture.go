// Package fixture reads the static catalog and reviews from a YAML file.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const dateLayout = time.DateOnly

var (
	_ port.ProductSource = (*Source)(nil)
	_ port.ReviewSource  = (*Source)(nil)
)

var (
	ErrDuplicateSlug = errors.New("duplicate product slug")
	ErrInvalidRating = errors.New("review rating out of 1..5")

	ErrNegativePrice        = errors.New("negative price")
	ErrInvalidProductRating = errors.New("product rating out of 0..5")
)

type (
	document struct {
		Products []product                 `yaml:"products"`
		Reviews  map[string]productReviews `yaml:"reviews"`
	}

	product struct {
		ID            string   `yaml:"id"`
		Slug          string   `yaml:"slug"`
		Name          string   `yaml:"name"`
		Description   string   `yaml:"description"`
		Price         string   `yaml:"price"`
		OriginalPrice string   `yaml:"originalPrice"`
		Image         string   `yaml:"image"`
		Images        []string `yaml:"images"`
		Category      string   `yaml:"category"`
		Rating        float64  `yaml:"rating"`
		Reviews       int      `yaml:"reviews"`
		IsNew         bool     `yaml:"isNew"`
		IsBestSeller  bool     `yaml:"isBestSeller"`
		Stock         int      `yaml:"stock"`
		Sizes         []string `yaml:"sizes"`
		Colors        []string `yaml:"colors"`
		Tags          []string `yaml:"tags"`
	}

	productReviews struct {
		Summary *summary `yaml:"summary"`
		Items   []review `yaml:"items"`
	}

	summary struct {
		AverageRating      float64     `yaml:"averageRating"`
		TotalReviews       int         `yaml:"totalReviews"`
		RatingDistribution map[int]int `yaml:"ratingDistribution"`
	}

	review struct {
		ID         string   `yaml:"id"`
		UserName   string   `yaml:"userName"`
		UserAvatar string   `yaml:"userAvatar"`
		Rating     int      `yaml:"rating"`
		Date       string   `yaml:"date"`
		Title      string   `yaml:"title"`
		Comment    string   `yaml:"comment"`
		Helpful    int      `yaml:"helpful"`
		Images     []string `yaml:"images"`
		Verified   bool     `yaml:"verified"`
	}
)

// A Source is the parsed fixture file.
type Source struct {
	products  []domain.Product
	reviews   map[string][]domain.Review
	summaries map[string]domain.ReviewSummary
}

// Open reads and parses the fixture file.
func Open(path string) (*Source, error) {
	const op = "fixture.Open"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}

	slog.Info("fixture loaded", "op", op, "path", path,
		"nProducts", len(s.products), "nReviewed", len(s.reviews))
	return s, nil
}

func Parse(r io.Reader) (*Source, error) {
	const op = "fixture.Parse"

	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := toProducts(doc.Products)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviews, summaries, err := toReviews(doc.Reviews)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Source{products, reviews, summaries}, nil
}

func (s *Source) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.products, nil
}

func (s *Source) LoadReviews(ctx context.Context) (
	map[string][]domain.Review, map[string]domain.ReviewSummary, error,
) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return s.reviews, s.summaries, nil
}

func toProducts(vs []product) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(vs))
	seen := make(map[string]struct{}, len(vs))
	for i, v := range vs {
		if _, ok := seen[v.Slug]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSlug, v.Slug)
		}
		seen[v.Slug] = struct{}{}

		p, err := toProduct(v)
		if err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func toProduct(v product) (domain.Product, error) {
	if v.Rating < 0 || v.Rating > 5 {
		return domain.Product{}, fmt.Errorf("%w: %g", ErrInvalidProductRating, v.Rating)
	}

	price, err := decimal.NewFromString(v.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("price: %w", err)
	}
	if price.IsNegative() {
		return domain.Product{}, fmt.Errorf("price: %w: %s", ErrNegativePrice, price)
	}

	var originalPrice decimal.NullDecimal
	if v.OriginalPrice != "" {
		d, err := decimal.NewFromString(v.OriginalPrice)
		if err != nil {
			return domain.Product{}, fmt.Errorf("originalPrice: %w", err)
		}
		if d.IsNegative() {
			return domain.Product{}, fmt.Errorf("originalPrice: %w: %s", ErrNegativePrice, d)
		}
		originalPrice = decimal.NewNullDecimal(d)
	}

	return domain.Product{
		ID:            v.ID,
		Slug:          v.Slug,
		Name:          v.Name,
		Description:   v.Description,
		Price:         price,
		OriginalPrice: originalPrice,
		Image:         v.Image,
		Images:        v.Images,
		Category:      v.Category,
		Rating:        v.Rating,
		Reviews:       v.Reviews,
		IsNew:         v.IsNew,
		IsBestSeller:  v.IsBestSeller,
		Stock:         v.Stock,
		Sizes:         v.Sizes,
		Colors:        v.Colors,
		Tags:          v.Tags,
	}, nil
}

func toReviews(vs map[string]productReviews) (
	map[string][]domain.Review, map[string]domain.ReviewSummary, error,
) {
	reviews := make(map[string][]domain.Review, len(vs))
	summaries := make(map[string]domain.ReviewSummary)
	for slug, v := range vs {
		rs := make([]domain.Review, 0, len(v.Items))
		for i, item := range v.Items {
			r, err := toReview(item)
			if err != nil {
				return nil, nil, fmt.Errorf("reviews[%s][%d]: %w", slug, i, err)
			}
			rs = append(rs, r)
		}
		if len(rs) != 0 {
			reviews[slug] = rs
		}
		if v.Summary != nil {
			summaries[slug] = toSummary(*v.Summary)
		}
	}
	return reviews, summaries, nil
}

func toReview(v review) (domain.Review, error) {
	if v.Rating < 1 || v.Rating > 5 {
		return domain.Review{}, fmt.Errorf("%w: %d", ErrInvalidRating, v.Rating)
	}
	date, err := time.Parse(dateLayout, v.Date)
	if err != nil {
		return domain.Review{}, fmt.Errorf("date: %w", err)
	}
	return domain.Review{
		ID:         v.ID,
		UserName:   v.UserName,
		UserAvatar: v.UserAvatar,
		Rating:     v.Rating,
		Date:       date,
		Title:      v.Title,
		Comment:    v.Comment,
		Helpful:    v.Helpful,
		Images:     v.Images,
		Verified:   v.Verified,
	}, nil
}

func toSummary(v summary) domain.ReviewSummary {
	s := domain.ReviewSummary{
		AverageRating: v.AverageRating,
		TotalReviews:  v.TotalReviews,
	}
	for stars, n := range v.RatingDistribution {
		if stars >= 1 && stars <= 5 {
			s.RatingDistribution[stars-1] = n
		}
	}
	return s
}
