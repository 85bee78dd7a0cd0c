package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/authd/internal/models"
	"github.com/walletgate/authd/internal/repositories"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	testDB.Teardown(ctx)
	os.Exit(code)
}

func newRepo(t *testing.T) *repositories.AccountRepository {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	return repositories.NewAccountRepository(testDB.DB)
}

func createAccount(t *testing.T, repo *repositories.AccountRepository, email string) *models.Account {
	t.Helper()
	account, err := repo.Create(context.Background(), &models.Account{
		Email:         email,
		PasswordHash:  "$2a$12$invalidhashplaceholderxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		EmailVerified: true,
	})
	require.NoError(t, err)
	return account
}

func TestAccountCreateAndLookup(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	created := createAccount(t, repo, "ada@example.com")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, created.EmailVerified)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountDuplicateEmail(t *testing.T) {
	repo := newRepo(t)

	createAccount(t, repo, "dup@example.com")
	_, err := repo.Create(context.Background(), &models.Account{
		Email:        "dup@example.com",
		PasswordHash: "hash",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestOTPLifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	account := createAccount(t, repo, "otp@example.com")

	otp := &models.OTP{Code: "482913", ExpiresAt: time.Now().Add(10 * time.Minute)}
	require.NoError(t, repo.SetOTP(ctx, account.ID, otp))

	loaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.OTP)
	assert.Equal(t, "482913", loaded.OTP.Code)
	assert.Equal(t, 0, loaded.OTP.Attempts)

	attempts, err := repo.IncrementOTPAttempts(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	// Wrong code does not consume
	consumed, err := repo.ConsumeOTP(ctx, account.ID, "000000", 3)
	require.NoError(t, err)
	assert.False(t, consumed)

	consumed, err = repo.ConsumeOTP(ctx, account.ID, "482913", 3)
	require.NoError(t, err)
	assert.True(t, consumed)

	// A consumed code is gone
	consumed, err = repo.ConsumeOTP(ctx, account.ID, "482913", 3)
	require.NoError(t, err)
	assert.False(t, consumed)

	loaded, err = repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.OTP)
}

func TestConsumeOTPRejectsExpiredAndExhausted(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	expired := createAccount(t, repo, "expired@example.com")
	require.NoError(t, repo.SetOTP(ctx, expired.ID, &models.OTP{
		Code:      "111111",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	consumed, err := repo.ConsumeOTP(ctx, expired.ID, "111111", 3)
	require.NoError(t, err)
	assert.False(t, consumed)

	exhausted := createAccount(t, repo, "exhausted@example.com")
	require.NoError(t, repo.SetOTP(ctx, exhausted.ID, &models.OTP{
		Code:      "222222",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}))
	for i := 0; i < 3; i++ {
		_, err := repo.IncrementOTPAttempts(ctx, exhausted.ID)
		require.NoError(t, err)
	}
	consumed, err = repo.ConsumeOTP(ctx, exhausted.ID, "222222", 3)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestFailedLoginLockout(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	account := createAccount(t, repo, "lockme@example.com")

	// Four failures stay below the threshold
	for i := 1; i <= 4; i++ {
		attempts, lockUntil, err := repo.RecordFailedLogin(ctx, account.ID, 5, 30*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, attempts)
		assert.Nil(t, lockUntil)
	}

	// The fifth trips the lock
	attempts, lockUntil, err := repo.RecordFailedLogin(ctx, account.ID, 5, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
	require.NotNil(t, lockUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *lockUntil, 5*time.Second)

	require.NoError(t, repo.ResetLockout(ctx, account.ID))
	loaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.LoginAttempts)
	assert.Nil(t, loaded.LockUntil)
}

func TestFailedLoginAfterExpiredLockRestartsCounter(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	account := createAccount(t, repo, "relock@example.com")

	require.NoError(t, SeedExpiredLock(ctx, testDB.Pool, account.ID, 5))

	attempts, lockUntil, err := repo.RecordFailedLogin(ctx, account.ID, 5, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, lockUntil)
}

func TestResetTokenRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	account := createAccount(t, repo, "reset@example.com")

	token := uuid.New().String()
	require.NoError(t, repo.SetResetToken(ctx, account.ID, token, time.Now().Add(15*time.Minute)))

	found, err := repo.GetByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = repo.GetByResetToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, repo.UpdatePassword(ctx, account.ID, "new-hash"))

	// UpdatePassword clears the ticket
	_, err = repo.GetByResetToken(ctx, token)
	assert.ErrorIs(t, err, models.ErrNotFound)

	loaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", loaded.PasswordHash)
	assert.Empty(t, loaded.ResetToken)
}

func TestClearExpiredResetTokens(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	stale := createAccount(t, repo, "stale@example.com")
	require.NoError(t, SeedExpiredResetToken(ctx, testDB.Pool, stale.ID, "stale-token"))

	fresh := createAccount(t, repo, "fresh@example.com")
	require.NoError(t, repo.SetResetToken(ctx, fresh.ID, "fresh-token", time.Now().Add(15*time.Minute)))

	cleared, err := repo.ClearExpiredResetTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	loaded, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.ResetToken)

	found, err := repo.GetByResetToken(ctx, "fresh-token")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, found.ID)
}

func TestMutationsOnMissingAccount(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	missing := uuid.New().String()

	err := repo.SetOTP(ctx, missing, &models.OTP{Code: "123456", ExpiresAt: time.Now().Add(time.Minute)})
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = repo.UpdateLastLogin(ctx, missing, time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = repo.UpdatePassword(ctx, missing, "hash")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
