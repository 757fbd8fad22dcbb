package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey struct{}

// WithIdentity attaches the identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity attached by the middleware, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok
}

// Middleware wraps an HTTP handler with the authenticator chain. Requests
// that fail authentication are rejected with 401 before the handler runs.
// An empty chain disables authentication entirely.
func Middleware(chain *Chain) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if chain == nil || !chain.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			id, err := chain.Authenticate(r.Context(), r)
			if err != nil || id.IsExpired() {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="firemcp"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
