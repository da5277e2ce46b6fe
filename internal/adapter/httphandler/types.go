package httphandler

import (
	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/review"
	"github.com/niksmo/storefront/internal/core/search"
	"github.com/shopspring/decimal"
)

type (
	Product struct {
		ID              string           `json:"id"`
		Slug            string           `json:"slug"`
		Name            string           `json:"name"`
		Description     string           `json:"description,omitempty"`
		Price           decimal.Decimal  `json:"price"`
		OriginalPrice   *decimal.Decimal `json:"originalPrice,omitempty"`
		DiscountPercent int              `json:"discountPercent,omitempty"`
		Image           string           `json:"image"`
		Images          []string         `json:"images,omitempty"`
		Category        string           `json:"category"`
		Rating          float64          `json:"rating"`
		Reviews         int              `json:"reviews"`
		IsNew           bool             `json:"isNew"`
		IsBestSeller    bool             `json:"isBestSeller"`
		Stock           int              `json:"stock"`
		InStock         bool             `json:"inStock"`
		Sizes           []string         `json:"sizes,omitempty"`
		Colors          []string         `json:"colors,omitempty"`
		Tags            []string         `json:"tags,omitempty"`
	}

	PriceRange struct {
		Min decimal.Decimal `json:"min"`
		Max decimal.Decimal `json:"max"`
	}

	FilterSpec struct {
		Search     string     `json:"search"`
		Category   string     `json:"category"`
		PriceRange PriceRange `json:"priceRange"`
		Sort       string     `json:"sort"`
		Sizes      []string   `json:"sizes"`
		Colors     []string   `json:"colors"`
	}

	CatalogView struct {
		Filters  FilterSpec `json:"filters"`
		Count    int        `json:"count"`
		Products []Product  `json:"products"`
	}

	// A FilterAction is one filter control change.
	//
	// Min and Max are raw input texts.
	FilterAction struct {
		Type  string `json:"type"`
		Value string `json:"value"`
		Min   string `json:"min"`
		Max   string `json:"max"`
	}

	ProductDetails struct {
		Product Product   `json:"product"`
		Related []Product `json:"related"`
	}

	Review struct {
		ID         string   `json:"id"`
		UserName   string   `json:"userName"`
		UserAvatar string   `json:"userAvatar,omitempty"`
		Rating     int      `json:"rating"`
		Date       string   `json:"date"`
		Title      string   `json:"title"`
		Comment    string   `json:"comment"`
		Helpful    int      `json:"helpful"`
		Images     []string `json:"images,omitempty"`
		Verified   bool     `json:"verified"`
	}

	RatingBar struct {
		Stars   int     `json:"stars"`
		Count   int     `json:"count"`
		Percent float64 `json:"percent"`
	}

	ReviewSummary struct {
		AverageRating float64     `json:"averageRating"`
		TotalReviews  int         `json:"totalReviews"`
		Distribution  []RatingBar `json:"distribution"`
	}

	ProductReviews struct {
		Summary *ReviewSummary `json:"summary"`
		Order   string         `json:"order"`
		Reviews []Review       `json:"reviews"`
	}

	Categories struct {
		Categories []string `json:"categories"`
	}

	Facets struct {
		Sizes    []string        `json:"sizes"`
		Colors   []string        `json:"colors"`
		MinPrice decimal.Decimal `json:"minPrice"`
		MaxPrice decimal.Decimal `json:"maxPrice"`
	}

	CartLine struct {
		ProductID string          `json:"productId"`
		Slug      string          `json:"slug"`
		Name      string          `json:"name"`
		Price     decimal.Decimal `json:"price"`
		Image     string          `json:"image"`
		Quantity  int             `json:"quantity"`
		Size      string          `json:"size,omitempty"`
		Color     string          `json:"color,omitempty"`
		Subtotal  decimal.Decimal `json:"subtotal"`
	}

	Cart struct {
		Items     []CartLine      `json:"items"`
		Total     decimal.Decimal `json:"total"`
		ItemCount int             `json:"itemCount"`
		IsOpen    bool            `json:"isOpen"`
	}

	// A CartItemRequest addresses a cart line.
	//
	// Quantity is ignored by removal.
	CartItemRequest struct {
		ProductID string `json:"productId"`
		Quantity  *int   `json:"quantity"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}

	CartOpenRequest struct {
		Open bool `json:"open"`
	}

	SearchRequest struct {
		Query string `json:"query"`
	}

	SearchState struct {
		Query    string    `json:"query"`
		Settled  string    `json:"settled"`
		Pending  bool      `json:"pending"`
		Status   string    `json:"status"`
		Products []Product `json:"products"`
	}
)

func toProduct(p domain.Product) Product {
	v := Product{
		ID:              p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent(),
		Image:           p.Image,
		Images:          p.Images,
		Category:        p.Category,
		Rating:          p.Rating,
		Reviews:         p.Reviews,
		IsNew:           p.IsNew,
		IsBestSeller:    p.IsBestSeller,
		Stock:           p.Stock,
		InStock:         p.InStock(),
		Sizes:           p.Sizes,
		Colors:          p.Colors,
		Tags:            p.Tags,
	}
	if p.OriginalPrice.Valid {
		originalPrice := p.OriginalPrice.Decimal
		v.OriginalPrice = &originalPrice
	}
	return v
}

func toProducts(ps []domain.Product) []Product {
	vs := make([]Product, 0, len(ps))
	for _, p := range ps {
		vs = append(vs, toProduct(p))
	}
	return vs
}

func toFilterSpec(s domain.FilterSpec) FilterSpec {
	category := s.Category
	if category == "" {
		category = domain.CategoryAll
	}
	return FilterSpec{
		Search:   s.Search,
		Category: category,
		PriceRange: PriceRange{
			Min: s.PriceRange.Min,
			Max: s.PriceRange.Max,
		},
		Sort:   string(s.Sort),
		Sizes:  nonNil(s.Sizes),
		Colors: nonNil(s.Colors),
	}
}

func toCatalogView(s catalog.State) CatalogView {
	return CatalogView{
		Filters:  toFilterSpec(s.Spec),
		Count:    len(s.View),
		Products: toProducts(s.View),
	}
}

func toReview(r domain.Review) Review {
	return Review{
		ID:         r.ID,
		UserName:   r.UserName,
		UserAvatar: r.UserAvatar,
		Rating:     r.Rating,
		Date:       r.Date.Format("2006-01-02"),
		Title:      r.Title,
		Comment:    r.Comment,
		Helpful:    r.Helpful,
		Images:     r.Images,
		Verified:   r.Verified,
	}
}

func toReviewSummary(s domain.ReviewSummary) *ReviewSummary {
	v := &ReviewSummary{
		AverageRating: s.AverageRating,
		TotalReviews:  s.TotalReviews,
	}
	for stars := 5; stars >= 1; stars-- {
		v.Distribution = append(v.Distribution, RatingBar{
			Stars:   stars,
			Count:   s.Count(stars),
			Percent: review.Percentage(s, stars),
		})
	}
	return v
}

func toFacets(f catalog.Facets) Facets {
	return Facets{
		Sizes:    nonNil(f.Sizes),
		Colors:   nonNil(f.Colors),
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
	}
}

func toCart(items []domain.CartLineItem, total decimal.Decimal, count int, isOpen bool) Cart {
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, CartLine{
			ProductID: item.ProductID,
			Slug:      item.Slug,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			Subtotal:  item.Subtotal(),
		})
	}
	return Cart{
		Items:     lines,
		Total:     total,
		ItemCount: count,
		IsOpen:    isOpen,
	}
}

func toSearchState(r search.Result, pending bool) SearchState {
	return SearchState{
		Query:    r.Query,
		Settled:  r.Settled,
		Pending:  pending,
		Status:   string(r.Status()),
		Products: toProducts(r.Products),
	}
}

func nonNil(vs []string) []string {
	if vs == nil {
		return []string{}
	}
	return vs
}
