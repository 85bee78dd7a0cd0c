package services

import (
	"context"
	"time"

	"github.com/walletgate/authd/internal/models"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByIDFunc                 func(ctx context.Context, id string) (*models.Account, error)
	GetByEmailFunc              func(ctx context.Context, email string) (*models.Account, error)
	CreateFunc                  func(ctx context.Context, account *models.Account) (*models.Account, error)
	SetOTPFunc                  func(ctx context.Context, id string, otp *models.OTP) error
	IncrementOTPAttemptsFunc    func(ctx context.Context, id string) (int, error)
	ConsumeOTPFunc              func(ctx context.Context, id, code string, maxAttempts int) (bool, error)
	RecordFailedLoginFunc       func(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error)
	ResetLockoutFunc            func(ctx context.Context, id string) error
	UpdateLastLoginFunc         func(ctx context.Context, id string, at time.Time) error
	UpdatePasswordFunc          func(ctx context.Context, id, passwordHash string) error
	SetResetTokenFunc           func(ctx context.Context, id, token string, expiresAt time.Time) error
	GetByResetTokenFunc         func(ctx context.Context, token string) (*models.Account, error)
	ClearExpiredResetTokensFunc func(ctx context.Context) (int64, error)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	created := *account
	created.ID = "account_test"
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

func (m *MockAccountRepository) SetOTP(ctx context.Context, id string, otp *models.OTP) error {
	if m.SetOTPFunc != nil {
		return m.SetOTPFunc(ctx, id, otp)
	}
	return nil
}

func (m *MockAccountRepository) IncrementOTPAttempts(ctx context.Context, id string) (int, error) {
	if m.IncrementOTPAttemptsFunc != nil {
		return m.IncrementOTPAttemptsFunc(ctx, id)
	}
	return 1, nil
}

func (m *MockAccountRepository) ConsumeOTP(ctx context.Context, id, code string, maxAttempts int) (bool, error) {
	if m.ConsumeOTPFunc != nil {
		return m.ConsumeOTPFunc(ctx, id, code, maxAttempts)
	}
	return true, nil
}

func (m *MockAccountRepository) RecordFailedLogin(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error) {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, id, threshold, lockDuration)
	}
	return 1, nil, nil
}

func (m *MockAccountRepository) ResetLockout(ctx context.Context, id string) error {
	if m.ResetLockoutFunc != nil {
		return m.ResetLockoutFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockAccountRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	if m.SetResetTokenFunc != nil {
		return m.SetResetTokenFunc(ctx, id, token, expiresAt)
	}
	return nil
}

func (m *MockAccountRepository) GetByResetToken(ctx context.Context, token string) (*models.Account, error) {
	if m.GetByResetTokenFunc != nil {
		return m.GetByResetTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	if m.ClearExpiredResetTokensFunc != nil {
		return m.ClearExpiredResetTokensFunc(ctx)
	}
	return 0, nil
}

// MockPendingSignupStore implements PendingSignupStore for testing
type MockPendingSignupStore struct {
	PutFunc     func(ctx context.Context, pending *models.PendingSignup) error
	GetFunc     func(ctx context.Context, email string) (*models.PendingSignup, error)
	ConsumeFunc func(ctx context.Context, email, code string, maxAttempts int) (*models.PendingSignup, error)
	RemoveFunc  func(ctx context.Context, email string) error
	SweepFunc   func(ctx context.Context) (int, error)
}

func (m *MockPendingSignupStore) Put(ctx context.Context, pending *models.PendingSignup) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, pending)
	}
	return nil
}

func (m *MockPendingSignupStore) Get(ctx context.Context, email string) (*models.PendingSignup, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockPendingSignupStore) Consume(ctx context.Context, email, code string, maxAttempts int) (*models.PendingSignup, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, email, code, maxAttempts)
	}
	return nil, models.ErrOTPNotFound
}

func (m *MockPendingSignupStore) Remove(ctx context.Context, email string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, email)
	}
	return nil
}

func (m *MockPendingSignupStore) Sweep(ctx context.Context) (int, error) {
	if m.SweepFunc != nil {
		return m.SweepFunc(ctx)
	}
	return 0, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendOTPEmailFunc          func(ctx context.Context, email string, purpose OTPPurpose, code string, expiresAt time.Time) error
	SendPasswordResetLinkFunc func(ctx context.Context, email, token string, expiresAt time.Time) error
}

func (m *MockEmailService) SendOTPEmail(ctx context.Context, email string, purpose OTPPurpose, code string, expiresAt time.Time) error {
	if m.SendOTPEmailFunc != nil {
		return m.SendOTPEmailFunc(ctx, email, purpose, code, expiresAt)
	}
	return nil
}

func (m *MockEmailService) SendPasswordResetLink(ctx context.Context, email, token string, expiresAt time.Time) error {
	if m.SendPasswordResetLinkFunc != nil {
		return m.SendPasswordResetLinkFunc(ctx, email, token, expiresAt)
	}
	return nil
}

// NewTestAccount creates a verified account for tests
func NewTestAccount(id, email string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:            id,
		Email:         email,
		FirstName:     "Test",
		EmailVerified: true,
		Role:          models.RoleUser,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestAccountWithPassword creates a verified account with a password hash
func NewTestAccountWithPassword(id, email, passwordHash string) *models.Account {
	account := NewTestAccount(id, email)
	account.PasswordHash = passwordHash
	return account
}

// NewTestAccountLocked creates an account under an active lockout
func NewTestAccountLocked(id, email string, remaining time.Duration) *models.Account {
	account := NewTestAccount(id, email)
	lockUntil := time.Now().Add(remaining)
	account.LockUntil = &lockUntil
	account.LoginAttempts = 5
	return account
}

// NewTestAccountWithOTP creates an account holding a live OTP
func NewTestAccountWithOTP(id, email, code string, ttl time.Duration) *models.Account {
	account := NewTestAccount(id, email)
	account.OTP = &models.OTP{Code: code, ExpiresAt: time.Now().Add(ttl)}
	return account
}

// NewTestPendingSignup creates a pending signup entry
func NewTestPendingSignup(email, code string, ttl time.Duration) *models.PendingSignup {
	return &models.PendingSignup{
		Email:     email,
		Password:  "Val1d$Password",
		FirstName: "Test",
		OTPCode:   code,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
}
