package fixture

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFixture = `
products:
  - id: "1"
    slug: barbell
    name: Barbell
    price: "299.99"
    originalPrice: 349.99
    category: Equipment
    isNew: true
    stock: 3
    colors: [Chrome]
  - id: "2"
    slug: shorts
    name: Shorts
    price: 39
    category: Apparel
    sizes: [S, M]
reviews:
  barbell:
    summary:
      averageRating: 4.5
      totalReviews: 2
      ratingDistribution: {5: 1, 4: 1}
    items:
      - id: r1
        userName: Ann
        rating: 5
        date: "2026-01-05"
        verified: true
      - id: r2
        userName: Bob
        rating: 4
        date: "2025-12-28"
`

func TestParse(t *testing.T) {
	ctx := context.Background()

	s, err := Parse(strings.NewReader(testFixture))
	require.NoError(t, err)

	products, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	barbell := products[0]
	assert.Equal(t, "barbell", barbell.Slug)
	assert.True(t, barbell.Price.Equal(decimal.RequireFromString("299.99")))
	require.True(t, barbell.OriginalPrice.Valid)
	assert.True(t, barbell.OriginalPrice.Decimal.Equal(decimal.RequireFromString("349.99")))
	assert.True(t, barbell.IsNew)
	assert.Equal(t, 3, barbell.Stock)

	shorts := products[1]
	assert.True(t, shorts.Price.Equal(decimal.NewFromInt(39)))
	assert.False(t, shorts.OriginalPrice.Valid)
	assert.Equal(t, []string{"S", "M"}, shorts.Sizes)

	reviews, summaries, err := s.LoadReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews["barbell"], 2)
	assert.Equal(t, "2026-01-05", reviews["barbell"][0].Date.Format("2006-01-02"))
	assert.True(t, reviews["barbell"][0].Verified)
	assert.Empty(t, reviews["shorts"])

	summary, ok := summaries["barbell"]
	require.True(t, ok)
	assert.Equal(t, 2, summary.TotalReviews)
	assert.Equal(t, 1, summary.Count(5))
	assert.Equal(t, 1, summary.Count(4))
	assert.Equal(t, 0, summary.Count(1))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "DuplicateSlug",
			doc: `
products:
  - {id: "1", slug: a, price: "1"}
  - {id: "2", slug: a, price: "2"}
`,
			want: ErrDuplicateSlug,
		},
		{
			name: "RatingOutOfRange",
			doc: `
reviews:
  a:
    items:
      - {id: r1, rating: 6, date: "2025-01-01"}
`,
			want: ErrInvalidRating,
		},
		{
			name: "NegativePrice",
			doc: `
products:
  - {id: "1", slug: a, price: "-1"}
`,
			want: ErrNegativePrice,
		},
		{
			name: "NegativeOriginalPrice",
			doc: `
products:
  - {id: "1", slug: a, price: "1", originalPrice: "-0.01"}
`,
			want: ErrNegativePrice,
		},
		{
			name: "ProductRatingAboveFive",
			doc: `
products:
  - {id: "1", slug: a, price: "1", rating: 5.1}
`,
			want: ErrInvalidProductRating,
		},
		{
			name: "NegativeProductRating",
			doc: `
products:
  - {id: "1", slug: a, price: "1", rating: -1}
`,
			want: ErrInvalidProductRating,
		},
		{
			name: "InvalidPrice",
			doc: `
products:
  - {id: "1", slug: a, price: cheap}
`,
		},
		{
			name: "InvalidDate",
			doc: `
reviews:
  a:
    items:
      - {id: r1, rating: 5, date: yesterday}
`,
		},
		{
			name: "UnknownField",
			doc: `
products:
  - {id: "1", slug: a, price: "1", brand: acme}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	s, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	products, err := s.LoadProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestOpenCatalog(t *testing.T) {
	s, err := Open("../../../data/catalog.yaml")
	require.NoError(t, err)

	products, err := s.LoadProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 10)

	_, summaries, err := s.LoadReviews(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 4.7, summaries["pro-training-barbell-20kg"].AverageRating, 0.001)
}

func TestLoadCanceled(t *testing.T) {
	s, err := Parse(strings.NewReader(testFixture))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.LoadProducts(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
