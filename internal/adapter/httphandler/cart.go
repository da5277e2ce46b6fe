package httphandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
)

// GET    /v1/cart (200 OK)
// POST   /v1/cart/items JSON CartItemRequest (200 OK, 400 Bad request, 404 Not found)
// PUT    /v1/cart/items JSON CartItemRequest (200 OK, 400 Bad request)
// DELETE /v1/cart/items JSON CartItemRequest (200 OK, 400 Bad request)
// DELETE /v1/cart (200 OK)
// POST   /v1/cart/toggle (200 OK)
// PUT    /v1/cart/open JSON CartOpenRequest (200 OK, 400 Bad request)
// POST   /v1/cart/checkout (501 Not implemented)

type CartHandler struct {
	handler
}

func RegisterCart(mux *http.ServeMux, sf Storefront) {
	h := CartHandler{handler{sf}}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/items", h.PostItem)
	mux.HandleFunc("PUT /v1/cart/items", h.PutItem)
	mux.HandleFunc("DELETE /v1/cart/items", h.DeleteItem)
	mux.HandleFunc("DELETE /v1/cart", h.DeleteCart)
	mux.HandleFunc("POST /v1/cart/toggle", h.PostToggle)
	mux.HandleFunc("PUT /v1/cart/open", h.PutOpen)
	mux.HandleFunc("POST /v1/cart/checkout", h.PostCheckout)
}

func (h CartHandler) writeCart(w http.ResponseWriter, s *cart.Store, log *slog.Logger) {
	writeJSON(w, http.StatusOK, toCart(s.Items(), s.Total(), s.ItemCount(), s.IsOpen()), log)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}
	h.writeCart(w, sess.Cart, log)
}

func (h CartHandler) readItem(w http.ResponseWriter, r *http.Request, log *slog.Logger) (CartItemRequest, bool) {
	var req CartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return req, false
	}
	if req.ProductID == "" {
		http.Error(w, "productId: required", http.StatusBadRequest)
		return req, false
	}
	if req.Quantity != nil && *req.Quantity > cart.MaxQuantity {
		http.Error(w, fmt.Sprintf("quantity: must not exceed %d", cart.MaxQuantity),
			http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// PostItem adds the product snapshot to the cart; quantity defaults to one.
func (h CartHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostItem"
	log := slog.With("op", op)

	req, ok := h.readItem(w, r, log)
	if !ok {
		return
	}

	p, err := h.sf.ProductByID(req.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		log.Error("failed to find product", "err", err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Cart.AddItem(r.Context(), domain.CartLineItem{
		ProductID: p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	log.Info("item added", "productID", p.ID, "quantity", quantity)
	h.writeCart(w, sess.Cart, log)
}

func (h CartHandler) PutItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PutItem"
	log := slog.With("op", op)

	req, ok := h.readItem(w, r, log)
	if !ok {
		return
	}
	if req.Quantity == nil {
		http.Error(w, "quantity: required", http.StatusBadRequest)
		return
	}

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Cart.UpdateQuantity(r.Context(), req.ProductID, *req.Quantity, req.Size, req.Color)
	h.writeCart(w, sess.Cart, log)
}

func (h CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteItem"
	log := slog.With("op", op)

	req, ok := h.readItem(w, r, log)
	if !ok {
		return
	}

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Cart.RemoveItem(r.Context(), req.ProductID, req.Size, req.Color)
	h.writeCart(w, sess.Cart, log)
}

func (h CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteCart"
	log := slog.With("op", op)

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Cart.ClearCart(r.Context())
	h.writeCart(w, sess.Cart, log)
}

func (h CartHandler) PostToggle(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostToggle"
	log := slog.With("op", op)

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Cart.ToggleCart()
	h.writeCart(w, sess.Cart, log)
}

func (h CartHandler) PutOpen(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PutOpen"
	log := slog.With("op", op)

	var req CartOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Cart.SetCartOpen(req.Open)
	h.writeCart(w, sess.Cart, log)
}

func (h CartHandler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "checkout is not available", http.StatusNotImplemented)
}
