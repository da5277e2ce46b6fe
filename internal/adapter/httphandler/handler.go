package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/review"
	"github.com/niksmo/storefront/internal/core/service"
)

const maxBodyBytes = 1 << 16

var errEmptyBody = errors.New("empty body")

// A Storefront is the core service the handlers drive.
type Storefront interface {
	Session(ctx context.Context, id string) (*service.Session, error)
	Product(slug string) (service.ProductDetails, error)
	ProductByID(id string) (domain.Product, error)
	Reviews(slug string, order review.Order, limit int) (
		[]domain.Review, *domain.ReviewSummary, error,
	)
	Categories() []string
	Facets() catalog.Facets
}

// Register mounts all storefront routes.
func Register(mux *http.ServeMux, sf Storefront) {
	RegisterCatalog(mux, sf)
	RegisterCart(mux, sf)
	RegisterSearch(mux, sf)
}

type handler struct {
	sf Storefront
}

// session returns the stores of the request session.
// It writes the error response itself and reports false on failure.
func (h handler) session(
	w http.ResponseWriter, r *http.Request, log *slog.Logger,
) (*service.Session, bool) {
	sess, err := h.sf.Session(r.Context(), sessionID(r.Context()))
	if err != nil {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		log.Error("failed to get session", "err", err)
		return nil, false
	}
	return sess, true
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}
