package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/walletgate/authd/internal/auth"
	"github.com/walletgate/authd/internal/config"
	"github.com/walletgate/authd/internal/models"
	pkgauth "github.com/walletgate/authd/pkg/auth"
	pkglogger "github.com/walletgate/authd/pkg/logger"
)

// AccountRepository defines the interface for durable account operations
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	SetOTP(ctx context.Context, id string, otp *models.OTP) error
	IncrementOTPAttempts(ctx context.Context, id string) (int, error)
	ConsumeOTP(ctx context.Context, id, code string, maxAttempts int) (bool, error)
	RecordFailedLogin(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error)
	ResetLockout(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, token string) (*models.Account, error)
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

// PendingSignupStore defines the interface for not-yet-verified signups
type PendingSignupStore interface {
	Put(ctx context.Context, pending *models.PendingSignup) error
	Get(ctx context.Context, email string) (*models.PendingSignup, error)
	Consume(ctx context.Context, email, code string, maxAttempts int) (*models.PendingSignup, error)
	Remove(ctx context.Context, email string) error
	Sweep(ctx context.Context) (int, error)
}

// AuthService orchestrates signup, login and password recovery. Accounts are
// created only after the signup OTP is verified; until then the whole signup
// lives in the pending store.
type AuthService struct {
	accounts    AccountRepository
	pending     PendingSignupStore
	email       EmailService
	tm          *auth.TokenManager
	cfg         *config.AuthConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	accounts AccountRepository,
	pending PendingSignupStore,
	email EmailService,
	tm *auth.TokenManager,
	cfg *config.AuthConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		accounts:    accounts,
		pending:     pending,
		email:       email,
		tm:          tm,
		cfg:         cfg,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// AccountResponse represents an account in the HTTP response
type AccountResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
	CreatedAt     string `json:"created_at"`
}

// OTPPendingResponse is returned when an operation has issued a one-time code
// and is waiting for the client to come back with it.
type OTPPendingResponse struct {
	Email     string `json:"email"`
	EmailSent bool   `json:"email_sent"`
	ExpiresAt string `json:"expires_at"`
}

// ForgotPasswordResponse mirrors OTPPendingResponse for the reset flow. The
// reset token rides along only when email delivery failed, as a recovery
// channel of last resort.
type ForgotPasswordResponse struct {
	Email      string `json:"email"`
	EmailSent  bool   `json:"email_sent"`
	ExpiresAt  string `json:"expires_at"`
	ResetToken string `json:"reset_token,omitempty"`
}

// AuthResponse represents a completed authentication
type AuthResponse struct {
	Token   string           `json:"token"`
	Account *AccountResponse `json:"account"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup stages a new registration and emails the verification code. No
// account row exists until the code is verified.
func (s *AuthService) Signup(ctx context.Context, email, password, firstName string) (*OTPPendingResponse, error) {
	email = normalizeEmail(email)
	firstName = strings.TrimSpace(firstName)

	if email == "" {
		return nil, &models.ValidationError{Message: "email is required"}
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	// An existing account always wins, verified or not.
	_, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("signup rejected: account already exists")
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	otp, err := auth.GenerateOTP(s.cfg.OTPLength, s.cfg.OTPExpiry)
	if err != nil {
		s.logger.Error("failed to generate otp", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	pending := &models.PendingSignup{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		OTPCode:   otp.Code,
		ExpiresAt: otp.ExpiresAt,
		CreatedAt: time.Now(),
	}

	// Put replaces any earlier attempt for this email, so signing up twice
	// just restarts the clock with a fresh code.
	if err := s.pending.Put(ctx, pending); err != nil {
		s.logger.Error("failed to store pending signup", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	emailSent := s.deliverOTP(ctx, email, PurposeSignup, otp)

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "signup_initiated",
		Email:     email,
		Success:   true,
		Metadata:  map[string]string{"email_sent": boolString(emailSent)},
	})

	return &OTPPendingResponse{
		Email:     email,
		EmailSent: emailSent,
		ExpiresAt: otp.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// VerifySignup redeems a signup code and promotes the pending registration to
// a real, verified account. Returns a session token so the client is signed
// in immediately.
func (s *AuthService) VerifySignup(ctx context.Context, email, code string) (*AuthResponse, error) {
	email = normalizeEmail(email)

	pending, err := s.pending.Consume(ctx, email, code, auth.MaxOTPAttempts)
	if err != nil {
		if isOTPError(err) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "signup_verification_failed",
				Email:         email,
				FailureReason: otpFailureReason(err),
				Success:       false,
			})
			return nil, err
		}
		s.logger.Error("failed to consume pending signup", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hashedPassword, err := pkgauth.HashPassword(pending.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account, err := s.accounts.Create(ctx, &models.Account{
		Email:         email,
		PasswordHash:  hashedPassword,
		FirstName:     pending.FirstName,
		EmailVerified: true,
		Role:          models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("failed to record last login", slog.String("account_id", account.ID), slog.Any("error", err))
	}

	token, err := s.tm.GenerateSessionToken(account.ID, account.Email, account.Role)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// The verification token is not returned to the client; it exists so the
	// audit trail carries a signed record of the verification event.
	verificationMeta := map[string]string(nil)
	if verificationToken, vErr := s.tm.GenerateVerificationToken(account.ID, account.Email); vErr != nil {
		s.logger.Warn("failed to generate verification token", slog.String("account_id", account.ID), slog.Any("error", vErr))
	} else {
		verificationMeta = map[string]string{"verification_token": verificationToken}
	}

	s.logger.Info("account created", slog.String("account_id", account.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "signup_verified",
		UserID:    account.ID,
		Email:     email,
		Success:   true,
		Metadata:  verificationMeta,
	})

	return &AuthResponse{Token: token, Account: accountModelToResponse(account)}, nil
}

// Login checks credentials and, when they hold, issues a login code by email.
// The session token is withheld until VerifyLoginOTP.
func (s *AuthService) Login(ctx context.Context, email, password string) (*OTPPendingResponse, error) {
	email = normalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// The lock gate comes before the password compare so a locked account
	// leaks nothing about credential validity.
	now := time.Now()
	if account.Locked(now) {
		remaining := account.LockRemaining(now)
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        account.ID,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, &models.AccountLockedError{Remaining: remaining}
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, password); err != nil {
		attempts, lockUntil, recErr := s.accounts.RecordFailedLogin(ctx, account.ID, s.cfg.MaxLoginAttempts, s.cfg.LockoutDuration)
		if recErr != nil {
			s.logger.Error("failed to record failed login", slog.String("account_id", account.ID), slog.Any("error", recErr))
			return nil, models.ErrInternalServer
		}

		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        account.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
			Metadata:      map[string]string{"failed_attempts": strconv.Itoa(attempts)},
		})

		if lockUntil != nil && lockUntil.After(now) {
			return nil, &models.AccountLockedError{Remaining: time.Until(*lockUntil)}
		}
		return nil, models.ErrInvalidCredentials
	}

	// Password accepted; clear any stale failure count before the OTP step.
	if err := s.accounts.ResetLockout(ctx, account.ID); err != nil {
		s.logger.Warn("failed to reset lockout", slog.String("account_id", account.ID), slog.Any("error", err))
	}

	otp, err := auth.GenerateOTP(s.cfg.OTPLength, s.cfg.OTPExpiry)
	if err != nil {
		s.logger.Error("failed to generate otp", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.accounts.SetOTP(ctx, account.ID, otp); err != nil {
		s.logger.Error("failed to store otp", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	emailSent := s.deliverOTP(ctx, email, PurposeLogin, otp)

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_otp_issued",
		UserID:    account.ID,
		Success:   true,
		Metadata:  map[string]string{"email_sent": boolString(emailSent)},
	})

	return &OTPPendingResponse{
		Email:     email,
		EmailSent: emailSent,
		ExpiresAt: otp.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// VerifyLoginOTP redeems a login code and issues the session token.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, email, code string) (*AuthResponse, error) {
	email = normalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrOTPNotFound
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	if account.Locked(now) {
		return nil, &models.AccountLockedError{Remaining: account.LockRemaining(now)}
	}

	if err := s.verifyAccountOTP(ctx, account, code, now); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_otp_failed",
			UserID:        account.ID,
			FailureReason: otpFailureReason(err),
			Success:       false,
		})
		return nil, err
	}

	if err := s.accounts.ResetLockout(ctx, account.ID); err != nil {
		s.logger.Warn("failed to reset lockout", slog.String("account_id", account.ID), slog.Any("error", err))
	}
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("failed to record last login", slog.String("account_id", account.ID), slog.Any("error", err))
	}

	token, err := s.tm.GenerateSessionToken(account.ID, account.Email, account.Role)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("login completed", slog.String("account_id", account.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    account.ID,
		Success:   true,
	})

	return &AuthResponse{Token: token, Account: accountModelToResponse(account)}, nil
}

// VerifyOTP dispatches a bare code submission to the right flow: a pending
// signup takes precedence, otherwise an existing account means a login code.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*AuthResponse, error) {
	email = normalizeEmail(email)

	if _, err := s.pending.Get(ctx, email); err == nil {
		return s.VerifySignup(ctx, email, code)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err == nil && account.EmailVerified {
		return s.VerifyLoginOTP(ctx, email, code)
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Neither pending nor verified; let the signup path report what's wrong.
	return s.VerifySignup(ctx, email, code)
}

// ResendOTP issues a fresh code for the flow in flight. otpType picks the
// flow explicitly ("signup", "login", "password_reset") so the email copy
// matches; empty auto-detects the way VerifyOTP does. Resends are not capped;
// each one replaces the previous code and resets its attempts.
func (s *AuthService) ResendOTP(ctx context.Context, email, otpType string) (*OTPPendingResponse, error) {
	email = normalizeEmail(email)

	otp, err := auth.GenerateOTP(s.cfg.OTPLength, s.cfg.OTPExpiry)
	if err != nil {
		s.logger.Error("failed to generate otp", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if otpType == "" || otpType == "signup" {
		pending, err := s.pending.Get(ctx, email)
		if err == nil {
			pending.OTPCode = otp.Code
			pending.ExpiresAt = otp.ExpiresAt
			pending.Attempts = 0

			if err := s.pending.Put(ctx, pending); err != nil {
				s.logger.Error("failed to replace pending signup", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}

			emailSent := s.deliverOTP(ctx, email, PurposeSignup, otp)
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType: "otp_resent",
				Email:     email,
				Success:   true,
				Metadata:  map[string]string{"flow": string(PurposeSignup), "email_sent": boolString(emailSent)},
			})

			return &OTPPendingResponse{
				Email:     email,
				EmailSent: emailSent,
				ExpiresAt: otp.ExpiresAt.Format(time.RFC3339),
			}, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to read pending signup", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if otpType == "signup" {
			return nil, models.ErrNotFound
		}
	}

	purpose := PurposeLogin
	if otpType == "password_reset" {
		purpose = PurposePasswordReset
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.accounts.SetOTP(ctx, account.ID, otp); err != nil {
		s.logger.Error("failed to store otp", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	emailSent := s.deliverOTP(ctx, email, purpose, otp)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "otp_resent",
		UserID:    account.ID,
		Success:   true,
		Metadata:  map[string]string{"flow": string(purpose), "email_sent": boolString(emailSent)},
	})

	return &OTPPendingResponse{
		Email:     email,
		EmailSent: emailSent,
		ExpiresAt: otp.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// ForgotPassword starts a reset. The default flow emails a code; the "link"
// flow emails a single-use opaque token instead, for clients that render a
// reset page. An unknown email reports not found.
func (s *AuthService) ForgotPassword(ctx context.Context, email, method string) (*ForgotPasswordResponse, error) {
	email = normalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if method == "link" {
		token, err := pkgauth.GenerateResetToken()
		if err != nil {
			s.logger.Error("failed to generate reset token", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		expiresAt := time.Now().Add(s.cfg.ResetTokenExpiry)
		if err := s.accounts.SetResetToken(ctx, account.ID, token, expiresAt); err != nil {
			s.logger.Error("failed to store reset token", slog.String("account_id", account.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		emailSent := true
		if err := s.email.SendPasswordResetLink(ctx, email, token, expiresAt); err != nil {
			emailSent = false
			s.auditLogger.LogDeliveryFallback("password_reset_link", email, token)
		}

		s.auditLogger.LogAccountAction("password_reset_requested", account.ID, map[string]string{
			"method": "link", "email_sent": boolString(emailSent),
		})

		resp := &ForgotPasswordResponse{
			Email:     email,
			EmailSent: emailSent,
			ExpiresAt: expiresAt.Format(time.RFC3339),
		}
		if !emailSent {
			resp.ResetToken = token
		}
		return resp, nil
	}

	otp, err := auth.GenerateOTP(s.cfg.OTPLength, s.cfg.OTPExpiry)
	if err != nil {
		s.logger.Error("failed to generate otp", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.accounts.SetOTP(ctx, account.ID, otp); err != nil {
		s.logger.Error("failed to store otp", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	emailSent := s.deliverOTP(ctx, email, PurposePasswordReset, otp)

	s.auditLogger.LogAccountAction("password_reset_requested", account.ID, map[string]string{
		"method": "otp", "email_sent": boolString(emailSent),
	})

	return &ForgotPasswordResponse{
		Email:     email,
		EmailSent: emailSent,
		ExpiresAt: otp.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// ResetPasswordParams carries either an email+code pair or an opaque token.
type ResetPasswordParams struct {
	Email       string
	OTP         string
	Token       string
	NewPassword string
}

// ResetPassword sets a new password after proving control of the email. The
// strength check runs before anything is consumed, so a weak password leaves
// the code or token intact for another try.
func (s *AuthService) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	if err := pkgauth.ValidatePassword(params.NewPassword); err != nil {
		return err
	}

	var account *models.Account

	switch {
	case params.Token != "":
		var err error
		account, err = s.accounts.GetByResetToken(ctx, params.Token)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrResetTokenInvalid
			}
			s.logger.Error("failed to look up reset token", slog.Any("error", err))
			return models.ErrInternalServer
		}

	case params.Email != "" && params.OTP != "":
		email := normalizeEmail(params.Email)
		var err error
		account, err = s.accounts.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrOTPNotFound
			}
			s.logger.Error("failed to get account by email", slog.Any("error", err))
			return models.ErrInternalServer
		}

		if err := s.verifyAccountOTP(ctx, account, params.OTP, time.Now()); err != nil {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "password_reset_failed",
				UserID:        account.ID,
				FailureReason: otpFailureReason(err),
				Success:       false,
			})
			return err
		}

	default:
		return &models.ValidationError{Message: "either a reset token or an email and code are required"}
	}

	hashedPassword, err := pkgauth.HashPassword(params.NewPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Clears the OTP and the reset token along with the hash, so a consumed
	// proof cannot authorize a second reset.
	if err := s.accounts.UpdatePassword(ctx, account.ID, hashedPassword); err != nil {
		s.logger.Error("failed to update password", slog.String("account_id", account.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	// A reset also unlocks the account; the owner just proved themselves.
	if err := s.accounts.ResetLockout(ctx, account.ID); err != nil {
		s.logger.Warn("failed to reset lockout", slog.String("account_id", account.ID), slog.Any("error", err))
	}

	s.logger.Info("password reset", slog.String("account_id", account.ID))
	s.auditLogger.LogAccountAction("password_reset_completed", account.ID, nil)

	return nil
}

// Logout records the sign-out. Session tokens are stateless, so this is an
// audit point; the client discards the token.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	s.logger.Info("account logged out", slog.String("account_id", userID))
	s.auditLogger.LogAccountAction("logout", userID, nil)
	return nil
}

// verifyAccountOTP checks a submitted code against the account's stored OTP
// and consumes it on success. A mismatch burns an attempt; the consume itself
// is a compare-and-clear so racing submissions redeem the code once.
func (s *AuthService) verifyAccountOTP(ctx context.Context, account *models.Account, code string, now time.Time) error {
	if err := auth.CheckOTP(account.OTP, code, now); err != nil {
		if errors.Is(err, models.ErrOTPMismatch) {
			if _, incErr := s.accounts.IncrementOTPAttempts(ctx, account.ID); incErr != nil {
				s.logger.Error("failed to increment otp attempts", slog.String("account_id", account.ID), slog.Any("error", incErr))
				return models.ErrInternalServer
			}
		}
		return err
	}

	consumed, err := s.accounts.ConsumeOTP(ctx, account.ID, code, auth.MaxOTPAttempts)
	if err != nil {
		s.logger.Error("failed to consume otp", slog.String("account_id", account.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !consumed {
		// Lost a race; re-read for the precise reason.
		fresh, err := s.accounts.GetByID(ctx, account.ID)
		if err != nil {
			return models.ErrOTPNotFound
		}
		if err := auth.CheckOTP(fresh.OTP, code, now); err != nil {
			return err
		}
		return models.ErrOTPNotFound
	}
	return nil
}

// deliverOTP sends the code and reports whether delivery worked. On failure
// the code is routed to the audit fallback instead of erroring the request;
// the client sees email_sent=false and can ask for a resend.
func (s *AuthService) deliverOTP(ctx context.Context, email string, purpose OTPPurpose, otp *models.OTP) bool {
	if err := s.email.SendOTPEmail(ctx, email, purpose, otp.Code, otp.ExpiresAt); err != nil {
		s.auditLogger.LogDeliveryFallback(string(purpose)+"_otp", email, otp.Code)
		return false
	}
	return true
}

func isOTPError(err error) bool {
	return errors.Is(err, models.ErrOTPNotFound) ||
		errors.Is(err, models.ErrOTPExpired) ||
		errors.Is(err, models.ErrOTPExhausted) ||
		errors.Is(err, models.ErrOTPMismatch)
}

func otpFailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrOTPNotFound):
		return "otp_not_found"
	case errors.Is(err, models.ErrOTPExpired):
		return "otp_expired"
	case errors.Is(err, models.ErrOTPExhausted):
		return "otp_attempts_exhausted"
	case errors.Is(err, models.ErrOTPMismatch):
		return "otp_mismatch"
	default:
		return "internal_error"
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// accountModelToResponse converts an account model to its response DTO
func accountModelToResponse(account *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:            account.ID,
		Email:         account.Email,
		FirstName:     account.FirstName,
		EmailVerified: account.EmailVerified,
		Role:          account.Role,
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
	}
}
