package httphandler

import (
	"context"
	"mime"
	"net/http"

	"github.com/google/uuid"
)

// SessionHeader carries the storefront session ID in both directions.
const SessionHeader = "X-Session-ID"

type sessionKey struct{}

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// WithSession assigns a new session ID unless the request carries a valid one.
func WithSession(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(SessionHeader, id)
		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hf)
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
