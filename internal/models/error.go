package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrValidation         = errors.New("validation failed")
	ErrBadRequest         = errors.New("bad request")
	ErrInternalServer     = errors.New("internal server error")

	// Account state errors
	ErrAccountLocked = errors.New("account is temporarily locked")

	// OTP verification outcomes
	ErrOTPNotFound  = errors.New("no OTP found")
	ErrOTPExpired   = errors.New("OTP has expired")
	ErrOTPExhausted = errors.New("too many OTP attempts")
	ErrOTPMismatch  = errors.New("invalid OTP")

	// Password reset token outcomes
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)

// AccountLockedError carries the remaining lockout duration so handlers can
// report a retry-after hint. Unwraps to ErrAccountLocked for errors.Is.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	minutes := int(e.Remaining.Minutes())
	if e.Remaining > time.Duration(minutes)*time.Minute {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("account locked, try again in %d minutes", minutes)
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}

// ValidationError wraps a field-level validation message and unwraps to
// ErrValidation so handlers map it to a 400 without string matching.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
