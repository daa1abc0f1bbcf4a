package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nitvob/outbrandai-webcam-recorder/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityContextKey is the key used to store the verified identity in
	// the request context
	IdentityContextKey contextKey = "identity"
)

// RequireAuth creates middleware that gates a handler behind bearer-token
// verification. A missing or malformed Authorization header is rejected
// with 401 before the verifier runs; a credential the verifier rejects is
// rejected with 403. Protected handlers only ever execute with a verified
// identity in the request context, so the object store is unreachable for
// unauthenticated requests.
func RequireAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "No token provided", http.StatusUnauthorized)
				return
			}

			// Expect "Bearer <token>" format
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "No token provided", http.StatusUnauthorized)
				return
			}

			token := strings.TrimSpace(parts[1])
			if token == "" {
				http.Error(w, "No token provided", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the verified identity from the request
// context. Returns nil outside of RequireAuth-wrapped handlers.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	identity, ok := ctx.Value(IdentityContextKey).(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}
