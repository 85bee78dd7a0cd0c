package integration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/walletgate/authd/internal/database"
	"github.com/walletgate/authd/internal/models"
	"github.com/walletgate/authd/pkg/auth"
)

// TestDB manages a PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("authd"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dbWrapper := database.NewDB(pool, slog.Default())

	// Migrations are embedded in the database package, so the wrapper can run
	// them the same way the server does at startup.
	if err := dbWrapper.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         dbWrapper,
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, "TRUNCATE TABLE accounts CASCADE"); err != nil {
		return fmt.Errorf("failed to truncate accounts: %w", err)
	}
	return nil
}

// SeedAccount inserts a verified or unverified account with a hashed password
func SeedAccount(ctx context.Context, pool *pgxpool.Pool, id, email, password string, verified bool) (*models.Account, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, email, password_hash, email_verified, role, created_at, updated_at
	`

	var account models.Account
	err = pool.QueryRow(ctx, query, id, email, hashedPassword, verified).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.EmailVerified,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	return &account, nil
}

// SeedExpiredLock marks an account as having been locked in the past
func SeedExpiredLock(ctx context.Context, pool *pgxpool.Pool, id string, attempts int) error {
	query := `
		UPDATE accounts
		SET login_attempts = $2, lock_until = NOW() - INTERVAL '1 minute', updated_at = NOW()
		WHERE id = $1
	`
	if _, err := pool.Exec(ctx, query, id, attempts); err != nil {
		return fmt.Errorf("failed to seed expired lock: %w", err)
	}
	return nil
}

// SeedExpiredResetToken stores a reset ticket that lapsed an hour ago
func SeedExpiredResetToken(ctx context.Context, pool *pgxpool.Pool, id, token string) error {
	query := `
		UPDATE accounts
		SET reset_token = $2, reset_expires = NOW() - INTERVAL '1 hour', updated_at = NOW()
		WHERE id = $1
	`
	if _, err := pool.Exec(ctx, query, id, token); err != nil {
		return fmt.Errorf("failed to seed expired reset token: %w", err)
	}
	return nil
}
