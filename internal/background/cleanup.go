package background

import (
	"context"
	"log/slog"
	"time"
)

// PendingSweeper is the slice of the pending-signup store the sweeper needs.
type PendingSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ResetTokenCleaner is the slice of the account repository the sweeper needs.
type ResetTokenCleaner interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

// CleanupManager periodically drops abandoned pending signups and expired
// password-reset tickets. Both stores also reject stale entries on read, so
// this is hygiene, not correctness.
type CleanupManager struct {
	pending  PendingSweeper
	accounts ResetTokenCleaner
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	pending PendingSweeper,
	accounts ResetTokenCleaner,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		pending:  pending,
		accounts: accounts,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	swept, err := cm.pending.Sweep(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to sweep pending signups", slog.Any("error", err))
	} else if swept > 0 {
		cm.logger.Info("swept abandoned pending signups", slog.Int("removed", swept))
	}

	cleared, err := cm.accounts.ClearExpiredResetTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired reset tokens", slog.Any("error", err))
	} else if cleared > 0 {
		cm.logger.Info("cleared expired reset tokens", slog.Int64("rows", cleared))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
