package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/walletgate/authd/internal/models"
)

// MemoryPendingSignupStore is the single-process fallback used when no redis
// address is configured. Same contract as the redis store; a mutex stands in
// for script atomicity.
type MemoryPendingSignupStore struct {
	mu      sync.Mutex
	records map[string]*models.PendingSignup
}

func NewMemoryPendingSignupStore() *MemoryPendingSignupStore {
	return &MemoryPendingSignupStore{records: make(map[string]*models.PendingSignup)}
}

func (s *MemoryPendingSignupStore) Put(ctx context.Context, pending *models.PendingSignup) error {
	if !pending.ExpiresAt.After(time.Now()) {
		return models.ErrBadRequest
	}

	cp := *pending
	s.mu.Lock()
	s.records[pending.Email] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryPendingSignupStore) Get(ctx context.Context, email string) (*models.PendingSignup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryPendingSignupStore) Consume(ctx context.Context, email, code string, maxAttempts int) (*models.PendingSignup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return nil, models.ErrOTPNotFound
	}

	now := time.Now()
	if !rec.ExpiresAt.After(now) {
		delete(s.records, email)
		return nil, models.ErrOTPExpired
	}
	if rec.Attempts >= maxAttempts {
		return nil, models.ErrOTPExhausted
	}
	if rec.OTPCode != code {
		rec.Attempts++
		return nil, models.ErrOTPMismatch
	}

	delete(s.records, email)
	cp := *rec
	return &cp, nil
}

func (s *MemoryPendingSignupStore) Remove(ctx context.Context, email string) error {
	s.mu.Lock()
	delete(s.records, email)
	s.mu.Unlock()
	return nil
}

// Sweep drops records whose grace window has passed. Records stay visible for
// a while after OTP expiry so verification reports "expired" rather than
// "not found".
func (s *MemoryPendingSignupStore) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-pendingGrace)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for email, rec := range s.records {
		if rec.ExpiresAt.Before(cutoff) {
			delete(s.records, email)
			removed++
		}
	}
	return removed, nil
}
