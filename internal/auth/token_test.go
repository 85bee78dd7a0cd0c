package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-secret-at-least-16ch", 24*time.Hour, 24*time.Hour)
}

func TestTokenManager_SessionTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	tokenString, err := tm.GenerateSessionToken("user123", "alice@example.com", "user")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tm.ValidateToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, TokenTypeSession, claims.Type)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_VerificationTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	tokenString, err := tm.GenerateVerificationToken("user123", "alice@example.com")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, TokenTypeVerification, claims.Type)
	assert.Equal(t, "user123", claims.UserID)
	assert.Empty(t, claims.Role)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager("a-different-secret-value", 24*time.Hour, 24*time.Hour)

	tokenString, err := tm.GenerateSessionToken("user123", "alice@example.com", "user")
	require.NoError(t, err)

	_, err = other.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret-at-least-16ch", -time.Minute, 24*time.Hour)

	tokenString, err := tm.GenerateSessionToken("user123", "alice@example.com", "user")
	require.NoError(t, err)

	_, err = tm.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm := newTestTokenManager()

	_, err := tm.ValidateToken("not.a.token")
	assert.Error(t, err)
}
