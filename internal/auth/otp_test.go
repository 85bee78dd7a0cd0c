package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/authd/internal/models"
)

func TestGenerateOTP_Width(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP(6, 10*time.Minute)
		require.NoError(t, err)
		require.Len(t, otp.Code, 6)
		assert.GreaterOrEqual(t, otp.Code, "100000")
		assert.LessOrEqual(t, otp.Code, "999999")
		assert.Equal(t, 0, otp.Attempts)
	}
}

func TestGenerateOTP_DefaultLength(t *testing.T) {
	otp, err := GenerateOTP(0, time.Minute)
	require.NoError(t, err)
	assert.Len(t, otp.Code, DefaultOTPLength)
}

func TestGenerateOTP_Expiry(t *testing.T) {
	before := time.Now()
	otp, err := GenerateOTP(6, 10*time.Minute)
	require.NoError(t, err)

	assert.True(t, otp.ExpiresAt.After(before.Add(9*time.Minute)))
	assert.True(t, otp.ExpiresAt.Before(before.Add(11*time.Minute)))
}

func TestCheckOTP_Match(t *testing.T) {
	otp, err := GenerateOTP(6, 10*time.Minute)
	require.NoError(t, err)

	assert.NoError(t, CheckOTP(otp, otp.Code, time.Now()))
}

func TestCheckOTP_NoOTP(t *testing.T) {
	now := time.Now()

	assert.ErrorIs(t, CheckOTP(nil, "123456", now), models.ErrOTPNotFound)
	assert.ErrorIs(t, CheckOTP(&models.OTP{}, "123456", now), models.ErrOTPNotFound)
}

func TestCheckOTP_Expired(t *testing.T) {
	now := time.Now()
	otp := &models.OTP{Code: "123456", ExpiresAt: now.Add(-time.Second)}

	// Expiry wins even over a correct code.
	assert.ErrorIs(t, CheckOTP(otp, "123456", now), models.ErrOTPExpired)
}

func TestCheckOTP_Exhausted(t *testing.T) {
	now := time.Now()
	otp := &models.OTP{Code: "123456", ExpiresAt: now.Add(time.Minute), Attempts: MaxOTPAttempts}

	// A correct code after exhaustion must still be rejected.
	assert.ErrorIs(t, CheckOTP(otp, "123456", now), models.ErrOTPExhausted)
}

func TestCheckOTP_Mismatch(t *testing.T) {
	now := time.Now()
	otp := &models.OTP{Code: "123456", ExpiresAt: now.Add(time.Minute)}

	assert.ErrorIs(t, CheckOTP(otp, "654321", now), models.ErrOTPMismatch)
}
