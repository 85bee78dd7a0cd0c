package auth

import (
	"context"
	"net/http"
	"strings"

	pkghttp "github.com/walletgate/authd/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing token claims in context
	UserContextKey contextKey = "user"
)

// Middleware validates bearer session tokens and injects claims into context.
// Verification tokens are rejected here; they only exist for the audit trail.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid or expired token")
				return
			}

			// A valid non-session token proves identity but grants no API
			// access, which is a permissions problem rather than a missing
			// credential.
			if claims.Type != TokenTypeSession {
				pkghttp.WriteForbidden(w, "Token cannot be used for API access")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts token claims from request context
func GetUserFromContext(r *http.Request) *TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
