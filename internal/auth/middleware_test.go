package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkghttp "github.com/walletgate/authd/pkg/http"
)

func newMiddlewareHarness(t *testing.T) (*TokenManager, http.Handler) {
	t.Helper()
	tm := NewTokenManager("unit-test-secret-key", time.Hour, time.Hour)

	handler := Middleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	return tm, handler
}

func TestMiddleware(t *testing.T) {
	t.Run("missing header gets a 401 envelope", func(t *testing.T) {
		_, handler := newMiddlewareHarness(t)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var env pkghttp.Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.False(t, env.Success)
		assert.Equal(t, "Missing authorization header", env.Message)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		tm, handler := newMiddlewareHarness(t)
		token, err := tm.GenerateSessionToken("acc_1", "ada@example.com", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Token "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, handler := newMiddlewareHarness(t)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("verification token cannot reach the API", func(t *testing.T) {
		tm, handler := newMiddlewareHarness(t)
		token, err := tm.GenerateVerificationToken("acc_1", "ada@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("session token passes with claims in context", func(t *testing.T) {
		tm := NewTokenManager("unit-test-secret-key", time.Hour, time.Hour)
		token, err := tm.GenerateSessionToken("acc_1", "ada@example.com", "user")
		require.NoError(t, err)

		var seen *TokenClaims
		handler := Middleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetUserFromContext(r)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "acc_1", seen.UserID)
		assert.Equal(t, TokenTypeSession, seen.Type)
	})
}
