package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/search"
)

// PUT    /v1/search JSON {"query": string} (202 Accepted, 400 Bad request)
// GET    /v1/search (200 OK)
// DELETE /v1/search (200 OK)

type SearchHandler struct {
	handler
}

func RegisterSearch(mux *http.ServeMux, sf Storefront) {
	h := SearchHandler{handler{sf}}
	mux.HandleFunc("PUT /v1/search", h.PutQuery)
	mux.HandleFunc("GET /v1/search", h.GetResult)
	mux.HandleFunc("DELETE /v1/search", h.DeleteQuery)
}

func (h SearchHandler) writeState(w http.ResponseWriter, status int, e *search.Engine, log *slog.Logger) {
	writeJSON(w, status, toSearchState(e.Result(), e.Pending()), log)
}

// PutQuery records a keystroke; the result settles after the quiet period.
func (h SearchHandler) PutQuery(w http.ResponseWriter, r *http.Request) {
	const op = "SearchHandler.PutQuery"
	log := slog.With("op", op)

	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Search.SetQuery(req.Query)
	h.writeState(w, http.StatusAccepted, sess.Search, log)
}

func (h SearchHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	const op = "SearchHandler.GetResult"
	log := slog.With("op", op)

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}
	h.writeState(w, http.StatusOK, sess.Search, log)
}

func (h SearchHandler) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	const op = "SearchHandler.DeleteQuery"
	log := slog.With("op", op)

	sess, ok := h.session(w, r, log)
	if !ok {
		return
	}

	sess.Search.Reset()
	h.writeState(w, http.StatusOK, sess.Search, log)
}
