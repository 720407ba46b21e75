package http

import (
	"context"
	"net/http"
	"strings"

	"proctor-quiz-service/internal/auth"
	"proctor-quiz-service/internal/domain"
)

type contextKey struct{}

var identityKey contextKey

// AuthMiddleware verifies the bearer token and stores the caller identity
// in the request context.
func AuthMiddleware(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, domain.ErrUnauthenticated)
				return
			}
			identity, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, domain.ErrUnauthenticated)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func callerIdentity(r *http.Request) (auth.Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(auth.Identity)
	return identity, ok
}

// requireRole resolves the caller and enforces the expected role.
func requireRole(w http.ResponseWriter, r *http.Request, role string) (auth.Identity, bool) {
	identity, ok := callerIdentity(r)
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return auth.Identity{}, false
	}
	if identity.Role != role {
		writeError(w, domain.ErrForbidden)
		return auth.Identity{}, false
	}
	return identity, true
}
