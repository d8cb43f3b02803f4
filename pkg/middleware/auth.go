// Package middleware provides the HTTP middleware chain: request identity,
// role guards, rate limiting, request logging, and panic recovery.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Robertorri/HopVerk1/pkg/auth"
	"github.com/Robertorri/HopVerk1/pkg/contextkeys"
	"github.com/Robertorri/HopVerk1/pkg/httputil"
)

// Authenticator verifies bearer tokens and attaches the caller identity
// to the request context.
type Authenticator struct {
	tokens *auth.TokenIssuer
}

// NewAuthenticator creates token-verification middleware
func NewAuthenticator(tokens *auth.TokenIssuer) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Require rejects requests without a valid bearer token with 401.
// On success the identity is available via IdentityFromContext.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httputil.WriteUnauthorized(w, "Missing or malformed Authorization header")
			return
		}

		identity, err := a.tokens.Verify(token)
		if err != nil {
			httputil.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), contextkeys.IdentityKey, &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose role does not satisfy the requirement.
// Anonymous callers get 401; authenticated callers with an insufficient
// role get 403. Must run after Require.
func RequireRole(required auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				httputil.WriteUnauthorized(w, "Authentication required")
				return
			}
			if !identity.Role.Satisfies(required) {
				httputil.WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the authenticated caller, or nil
func IdentityFromContext(ctx context.Context) *auth.Identity {
	if identity, ok := ctx.Value(contextkeys.IdentityKey).(*auth.Identity); ok {
		return identity
	}
	return nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme comparison is case-insensitive.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
