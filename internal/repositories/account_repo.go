package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walletgate/authd/internal/database"
	"github.com/walletgate/authd/internal/models"
)

const accountColumns = `id, email, password_hash, first_name, email_verified, role,
	otp_code, otp_expires_at, otp_attempts, login_attempts, lock_until,
	reset_token, reset_expires, last_login, created_at, updated_at`

// AccountRepository persists durable accounts in postgres. All OTP and
// lockout mutations are single conditional statements so concurrent
// operations on the same account stay linearizable.
type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// rowScanner supports both single rows and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccountRow handles nullable fields and populates an Account model
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var otpCode, resetToken *string
	var otpExpires, lockUntil, resetExpires, lastLogin *time.Time
	var otpAttempts int

	err := scanner.Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.FirstName,
		&account.EmailVerified, &account.Role,
		&otpCode, &otpExpires, &otpAttempts,
		&account.LoginAttempts, &lockUntil,
		&resetToken, &resetExpires, &lastLogin,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if otpCode != nil && otpExpires != nil {
		account.OTP = &models.OTP{Code: *otpCode, ExpiresAt: *otpExpires, Attempts: otpAttempts}
	}
	if resetToken != nil {
		account.ResetToken = *resetToken
	}
	account.LockUntil = lockUntil
	account.ResetExpires = resetExpires
	account.LastLogin = lastLogin

	return &account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.Role == "" {
		account.Role = models.RoleUser
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, first_name, email_verified, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + accountColumns

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.FirstName,
		account.EmailVerified, account.Role, account.CreatedAt, account.UpdatedAt,
	))
}

// SetOTP replaces any prior OTP and resets the attempt counter.
func (r *AccountRepository) SetOTP(ctx context.Context, id string, otp *models.OTP) error {
	query := `
		UPDATE accounts
		SET otp_code = $2, otp_expires_at = $3, otp_attempts = 0, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, otp.Code, otp.ExpiresAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IncrementOTPAttempts atomically bumps the attempt counter and returns the
// post-increment value.
func (r *AccountRepository) IncrementOTPAttempts(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE accounts
		SET otp_attempts = otp_attempts + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING otp_attempts
	`

	var attempts int
	if err := r.db.Pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return attempts, nil
}

// ConsumeOTP clears the stored OTP only if the submitted code still matches a
// live, non-exhausted one. The compare-and-clear is a single statement so a
// code can be consumed at most once even under racing verifications.
func (r *AccountRepository) ConsumeOTP(ctx context.Context, id, code string, maxAttempts int) (bool, error) {
	query := `
		UPDATE accounts
		SET otp_code = NULL, otp_expires_at = NULL, otp_attempts = 0, updated_at = NOW()
		WHERE id = $1 AND otp_code = $2 AND otp_expires_at > NOW() AND otp_attempts < $3
	`

	result, err := r.db.Pool.Exec(ctx, query, id, code, maxAttempts)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return result.RowsAffected() > 0, nil
}

// RecordFailedLogin applies the lockout rules in one statement: an expired
// lock restarts the counter at 1 and clears the lock, otherwise the counter
// increments, and reaching the threshold while unlocked sets lock_until.
// Every CASE sees the pre-update row, which is what makes this linearizable.
func (r *AccountRepository) RecordFailedLogin(ctx context.Context, id string, threshold int, lockDuration time.Duration) (int, *time.Time, error) {
	query := `
		UPDATE accounts
		SET login_attempts = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= NOW() THEN 1
				ELSE login_attempts + 1
			END,
			lock_until = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= NOW() THEN NULL
				WHEN lock_until IS NULL AND login_attempts + 1 >= $2 THEN NOW() + make_interval(secs => $3)
				ELSE lock_until
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING login_attempts, lock_until
	`

	var attempts int
	var lockUntil *time.Time
	err := r.db.Pool.QueryRow(ctx, query, id, threshold, lockDuration.Seconds()).Scan(&attempts, &lockUntil)
	if err != nil {
		return 0, nil, database.MapPostgresError(err)
	}
	return attempts, lockUntil, nil
}

// ResetLockout clears the failed-attempt counter and any lock.
func (r *AccountRepository) ResetLockout(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET login_attempts = 0, lock_until = NULL, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE accounts SET last_login = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the hash and clears all OTP and reset-ticket state,
// so neither the consumed code nor a stale token can authorize another reset.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $2,
			otp_code = NULL, otp_expires_at = NULL, otp_attempts = 0,
			reset_token = NULL, reset_expires = NULL,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetResetToken stores a fresh single-use password-reset ticket.
func (r *AccountRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET reset_token = $2, reset_expires = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, token, expiresAt)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByResetToken returns the account holding a still-live reset ticket.
func (r *AccountRepository) GetByResetToken(ctx context.Context, token string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE reset_token = $1 AND reset_expires > NOW()`
	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, token))
}

// ClearExpiredResetTokens drops reset tickets past their expiry. Advisory:
// GetByResetToken already rejects expired tickets on read.
func (r *AccountRepository) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE accounts
		SET reset_token = NULL, reset_expires = NULL, updated_at = NOW()
		WHERE reset_token IS NOT NULL AND reset_expires <= NOW()
	`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
