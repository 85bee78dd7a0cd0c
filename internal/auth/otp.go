package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/walletgate/authd/internal/models"
)

const (
	// DefaultOTPLength is the code width used when config does not override it.
	DefaultOTPLength = 6

	// MaxOTPAttempts caps failed comparisons per issued code. Once reached
	// the code is exhausted and even a correct submission is rejected until
	// a fresh one is generated.
	MaxOTPAttempts = 3
)

// GenerateOTP produces a uniformly random numeric code of fixed width and an
// absolute expiry. The attempt counter starts at zero; storing the result
// replaces any prior OTP for the same subject.
func GenerateOTP(length int, ttl time.Duration) (*models.OTP, error) {
	if length <= 0 {
		length = DefaultOTPLength
	}

	// Width-preserving range: e.g. length 6 gives [100000, 999999].
	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(min, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}
	code := new(big.Int).Add(n, min)

	return &models.OTP{
		Code:      code.String(),
		ExpiresAt: time.Now().Add(ttl),
		Attempts:  0,
	}, nil
}

// CheckOTP evaluates a submitted code against stored OTP material and returns
// the specific rejection reason, or nil on an exact match. Rules are checked
// in order: presence, expiry, attempt cap, then comparison. Persisting the
// attempt increment on mismatch is the caller's responsibility so the update
// can be made atomic in the backing store.
//
// Comparison is exact-string rather than constant-time; the code space is
// small and attempt-limited, which keeps timing leakage impractical.
func CheckOTP(otp *models.OTP, code string, now time.Time) error {
	if otp == nil || otp.Code == "" {
		return models.ErrOTPNotFound
	}
	if otp.Expired(now) {
		return models.ErrOTPExpired
	}
	if otp.Attempts >= MaxOTPAttempts {
		return models.ErrOTPExhausted
	}
	if otp.Code != code {
		return models.ErrOTPMismatch
	}
	return nil
}
