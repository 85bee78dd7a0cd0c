package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeSession      = "session"
	TokenTypeVerification = "email_verification"
)

// TokenClaims are the claims carried by every token this service mints.
type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates the service's bearer tokens. Session
// tokens assert {userId, email, role} after the second login factor;
// verification tokens exist for the audit trail around signup confirmation.
type TokenManager struct {
	secret             string
	sessionTokenExpiry time.Duration
	verificationExpiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, sessionExpiry, verificationExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             secret,
		sessionTokenExpiry: sessionExpiry,
		verificationExpiry: verificationExpiry,
	}
}

// SessionTokenExpiry reports the configured session token lifetime.
func (tm *TokenManager) SessionTokenExpiry() time.Duration {
	return tm.sessionTokenExpiry
}

// GenerateSessionToken creates the bearer token returned after OTP-confirmed
// login. Bearer tokens stay valid until natural expiry; there is no
// server-side revocation list in this design.
func (tm *TokenManager) GenerateSessionToken(userID, email, role string) (string, error) {
	return tm.sign(&TokenClaims{
		Type:   TokenTypeSession,
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.sessionTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	})
}

// GenerateVerificationToken creates the email-verification token recorded
// when a pending signup is promoted. It is not required for login.
func (tm *TokenManager) GenerateVerificationToken(userID, email string) (string, error) {
	return tm.sign(&TokenClaims{
		Type:   TokenTypeVerification,
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.verificationExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	})
}

func (tm *TokenManager) sign(claims *TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.Type == "" {
		return nil, fmt.Errorf("invalid token: missing type")
	}

	return claims, nil
}
