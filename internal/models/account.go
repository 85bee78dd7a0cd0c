package models

import (
	"time"
)

// Account roles
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// OTP is a one-time code bound to an account or pending signup. At most one
// live OTP exists per subject; generating a new one replaces the old and
// resets Attempts.
type OTP struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// Expired reports whether the code is past its expiry at the given instant.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

type Account struct {
	ID            string
	Email         string
	PasswordHash  string // never included in external representations
	FirstName     string
	EmailVerified bool
	Role          string // "user", "admin", "moderator"
	OTP           *OTP
	LoginAttempts int
	LockUntil     *time.Time // lock state is derived from this, never stored as a flag
	ResetToken    string
	ResetExpires  *time.Time
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Locked reports whether the account is under a live lockout.
func (a *Account) Locked(now time.Time) bool {
	return a.LockUntil != nil && now.Before(*a.LockUntil)
}

// LockRemaining returns how long the current lockout still has to run,
// or zero when the account is not locked.
func (a *Account) LockRemaining(now time.Time) time.Duration {
	if !a.Locked(now) {
		return 0
	}
	return a.LockUntil.Sub(now)
}

// PendingSignup holds a candidate registration until its OTP is confirmed.
// No durable Account row exists for the email while an entry is pending.
// Password stays plaintext here and is hashed only at promotion time.
type PendingSignup struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	FirstName string    `json:"first_name,omitempty"`
	OTPCode   string    `json:"otp_code"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingOTP exposes the entry's OTP material in the shared OTP shape.
func (p *PendingSignup) PendingOTP() *OTP {
	return &OTP{Code: p.OTPCode, ExpiresAt: p.ExpiresAt, Attempts: p.Attempts}
}
