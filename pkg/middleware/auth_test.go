package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Robertorri/HopVerk1/pkg/auth"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *auth.TokenIssuer) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	return NewAuthenticator(issuer), issuer
}

func identityEcho(t *testing.T, captured **auth.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticator_Require(t *testing.T) {
	authenticator, issuer := newTestAuthenticator(t)

	t.Run("missing header", func(t *testing.T) {
		var identity *auth.Identity
		handler := authenticator.Require(identityEcho(t, &identity))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, identity)
	})

	t.Run("malformed header", func(t *testing.T) {
		for _, header := range []string{"Bearer", "Basic abc123", "Bearer ", "token-without-scheme"} {
			var identity *auth.Identity
			handler := authenticator.Require(identityEcho(t, &identity))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		handler := authenticator.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		token, err := issuer.Issue("account-1", auth.RolePlayer)
		require.NoError(t, err)

		var identity *auth.Identity
		handler := authenticator.Require(identityEcho(t, &identity))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, identity)
		assert.Equal(t, "account-1", identity.AccountID)
		assert.Equal(t, auth.RolePlayer, identity.Role)
	})

	t.Run("lowercase bearer scheme accepted", func(t *testing.T) {
		token, err := issuer.Issue("account-1", auth.RolePlayer)
		require.NoError(t, err)

		var identity *auth.Identity
		handler := authenticator.Require(identityEcho(t, &identity))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, identity)
	})
}

func TestRequireRole(t *testing.T) {
	authenticator, issuer := newTestAuthenticator(t)

	adminOnly := func() http.Handler {
		return authenticator.Require(RequireRole(auth.RoleAdmin)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		))
	}

	t.Run("anonymous gets 401 before 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		rec := httptest.NewRecorder()
		adminOnly().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("player gets 403", func(t *testing.T) {
		token, err := issuer.Issue("account-1", auth.RolePlayer)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		adminOnly().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		token, err := issuer.Issue("account-2", auth.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		adminOnly().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin satisfies player requirement", func(t *testing.T) {
		token, err := issuer.Issue("account-2", auth.RoleAdmin)
		require.NoError(t, err)

		handler := authenticator.Require(RequireRole(auth.RolePlayer)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		))

		req := httptest.NewRequest(http.MethodGet, "/images/random", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
