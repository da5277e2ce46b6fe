package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/review"
	"github.com/niksmo/storefront/internal/core/service"
)

// GET  /v1/products?search=&category=&min=&max=&sort=&size=&color= (200 OK, 400 Bad request)
// GET  /v1/products/filter (200 OK)
// POST /v1/products/filter JSON FilterAction (200 OK, 400 Bad request)
// GET  /v1/products/{slug} (200 OK, 404 Not found)
// GET  /v1/products/{slug}/reviews?order=recent|highest|lowest&limit=N|all (200 OK, 400, 404)
// GET  /v1/categories (200 OK)
// GET  /v1/facets (200 OK)

type CatalogHandler struct {
	handler
}

func RegisterCatalog(mux *http.ServeMux, sf Storefront) {
	h := CatalogHandler{handler{sf}}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/filter", h.GetFilter)
	mux.HandleFunc("POST /v1/products/filter", h.PostFilter)
	mux.HandleFunc("GET /v1/products/{slug}", h.GetProduct)
	mux.HandleFunc("GET /v1/products/{slug}/reviews", h.GetReviews)
	mux.HandleFunc("GET /v1/categories", h.GetCategories)
	mux.HandleFunc("GET /v1/facets", h.GetFacets)
}

// GetProducts replaces the session filters with the query ones
// when the query is not empty.
func (h CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProducts"
	log := slog.With("op", op)

	query := r.URL.Query()
	spec, err := h.querySpec(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	var state catalog.State
	if spec != nil {
		state = sess.Catalog.ReplaceSpec(*spec)
	} else {
		state = sess.Catalog.State()
	}

	writeJSON(w, http.StatusOK, toCatalogView(state), log)
}

// querySpec builds the filter spec from the default one.
// It returns nil for an empty query.
func (h CatalogHandler) querySpec(query url.Values) (*domain.FilterSpec, error) {
	if len(query) == 0 {
		return nil, nil
	}

	spec := domain.DefaultFilterSpec()
	spec.Search = query.Get("search")
	spec.Category = query.Get("category")
	if query.Has("min") {
		spec.PriceRange.Min = catalog.ParsePriceBound(query.Get("min"))
	}
	if query.Has("max") {
		spec.PriceRange.Max = catalog.ParsePriceBound(query.Get("max"))
	}
	if query.Has("sort") {
		key := domain.SortKey(query.Get("sort"))
		if !key.Valid() {
			return nil, catalog.ErrUnknownSort
		}
		spec.Sort = key
	}
	for _, size := range query["size"] {
		if !slices.Contains(spec.Sizes, size) {
			spec.Sizes = append(spec.Sizes, size)
		}
	}
	for _, color := range query["color"] {
		if !slices.Contains(spec.Colors, color) {
			spec.Colors = append(spec.Colors, color)
		}
	}
	return &spec, nil
}

func (h CatalogHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetFilter"
	log := slog.With("op", op)

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCatalogView(sess.Catalog.State()), log)
}

func (h CatalogHandler) PostFilter(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.PostFilter"
	log := slog.With("op", op)

	var fa FilterAction
	if err := decodeJSON(r, &fa); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	action, err := h.toAction(fa)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	state := sess.Catalog.Dispatch(action)
	writeJSON(w, http.StatusOK, toCatalogView(state), log)
}

var errUnknownAction = errors.New("unknown filter action")

func (h CatalogHandler) toAction(fa FilterAction) (catalog.Action, error) {
	switch fa.Type {
	case "search":
		return catalog.SetSearch{Search: fa.Value}, nil
	case "category":
		return catalog.SetCategory{Category: fa.Value}, nil
	case "price":
		return catalog.SetPriceRange{Range: domain.PriceRange{
			Min: catalog.ParsePriceBound(fa.Min),
			Max: catalog.ParsePriceBound(fa.Max),
		}}, nil
	case "sort":
		key := domain.SortKey(fa.Value)
		if !key.Valid() {
			return nil, catalog.ErrUnknownSort
		}
		return catalog.SetSort{Sort: key}, nil
	case "toggle_size":
		return catalog.ToggleSize{Size: fa.Value}, nil
	case "toggle_color":
		return catalog.ToggleColor{Color: fa.Value}, nil
	case "reset":
		return catalog.ResetFilters{}, nil
	}
	return nil, errUnknownAction
}

func (h CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProduct"
	log := slog.With("op", op)

	details, err := h.sf.Product(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		log.Error("failed to get product", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, ProductDetails{
		Product: toProduct(details.Product),
		Related: toProducts(details.Related),
	}, log)
}

func (h CatalogHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetReviews"
	log := slog.With("op", op)

	query := r.URL.Query()

	order, err := review.ParseOrder(query.Get("order"))
	if err != nil {
		http.Error(w, "invalid order", http.StatusBadRequest)
		return
	}

	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}

	rs, summary, err := h.sf.Reviews(r.PathValue("slug"), order, limit)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		log.Error("failed to get reviews", "err", err)
		return
	}

	v := ProductReviews{
		Order:   string(order),
		Reviews: make([]Review, 0, len(rs)),
	}
	for _, rv := range rs {
		v.Reviews = append(v.Reviews, toReview(rv))
	}
	if summary != nil {
		v.Summary = toReviewSummary(*summary)
	}
	writeJSON(w, http.StatusOK, v, log)
}

// parseLimit reads the reviews limit; "all" lifts it.
func parseLimit(s string) (int, error) {
	switch s {
	case "":
		return review.DefaultLimit, nil
	case "all":
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid limit")
	}
	return n, nil
}

func (h CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetCategories"
	log := slog.With("op", op)
	writeJSON(w, http.StatusOK, Categories{h.sf.Categories()}, log)
}

func (h CatalogHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetFacets"
	log := slog.With("op", op)
	writeJSON(w, http.StatusOK, toFacets(h.sf.Facets()), log)
}
