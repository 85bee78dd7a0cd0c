package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walletgate/authd/internal/models"
)

// pendingGrace keeps an expired record in redis a little past its OTP expiry
// so verification can report "expired" instead of "not found" before the key
// evaporates.
const pendingGrace = time.Hour

// consumePendingLua atomically performs GET, validate and DEL/SET on a
// pending-signup record.
// KEYS[1] = record key
// ARGV[1] = submitted code
// ARGV[2] = current unix milliseconds
// ARGV[3] = max attempts
//
// Returns the record JSON on success, or one of the error strings
// "not_found", "expired", "exhausted", "mismatch".
var consumePendingLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return {err='not_found'}
end

local rec = cjson.decode(data)
local now = tonumber(ARGV[2])
local maxAttempts = tonumber(ARGV[3])

if now >= tonumber(rec.expires_at_ms) then
  redis.call('DEL', KEYS[1])
  return {err='expired'}
end

if tonumber(rec.attempts) >= maxAttempts then
  return {err='exhausted'}
end

if rec.otp_code ~= ARGV[1] then
  rec.attempts = rec.attempts + 1
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl > 0 then
    redis.call('SET', KEYS[1], cjson.encode(rec), 'PX', ttl)
  end
  return {err='mismatch'}
end

redis.call('DEL', KEYS[1])
return data
`)

// pendingRecord adds a numeric expiry alongside the model fields so the Lua
// script can compare timestamps without parsing RFC 3339.
type pendingRecord struct {
	models.PendingSignup
	ExpiresAtMS int64 `json:"expires_at_ms"`
}

// RedisPendingSignupStore holds not-yet-verified signups in redis, one key
// per email. Key TTLs ride slightly past the OTP expiry; redis reclaims
// abandoned signups on its own.
type RedisPendingSignupStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisPendingSignupStore(client redis.UniversalClient, prefix string) *RedisPendingSignupStore {
	if prefix == "" {
		prefix = "pending_signup"
	}
	return &RedisPendingSignupStore{client: client, prefix: prefix}
}

func (s *RedisPendingSignupStore) key(email string) string {
	return s.prefix + ":" + email
}

// Put stores or replaces the pending signup for its email. A replacement
// resets the attempt counter, which is what a resend wants.
func (s *RedisPendingSignupStore) Put(ctx context.Context, pending *models.PendingSignup) error {
	// Grace only extends the key's lifetime for reporting; a record that is
	// already expired never gets stored at all.
	if !pending.ExpiresAt.After(time.Now()) {
		return models.ErrBadRequest
	}

	rec := pendingRecord{PendingSignup: *pending, ExpiresAtMS: pending.ExpiresAt.UnixMilli()}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode pending signup: %w", err)
	}

	ttl := time.Until(pending.ExpiresAt) + pendingGrace

	if err := s.client.Set(ctx, s.key(pending.Email), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending signup: %w", err)
	}
	return nil
}

func (s *RedisPendingSignupStore) Get(ctx context.Context, email string) (*models.PendingSignup, error) {
	data, err := s.client.Get(ctx, s.key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending signup: %w", err)
	}

	var rec pendingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode pending signup: %w", err)
	}
	return &rec.PendingSignup, nil
}

// Consume validates the submitted code against the stored record and deletes
// it on success. Validation, attempt accounting and deletion happen inside
// one script, so concurrent submissions of the same code redeem it once.
func (s *RedisPendingSignupStore) Consume(ctx context.Context, email, code string, maxAttempts int) (*models.PendingSignup, error) {
	result, err := consumePendingLua.Run(ctx, s.client,
		[]string{s.key(email)},
		code, time.Now().UnixMilli(), maxAttempts,
	).Result()

	if err != nil {
		switch err.Error() {
		case "not_found":
			return nil, models.ErrOTPNotFound
		case "expired":
			return nil, models.ErrOTPExpired
		case "exhausted":
			return nil, models.ErrOTPExhausted
		case "mismatch":
			return nil, models.ErrOTPMismatch
		default:
			return nil, fmt.Errorf("failed to consume pending signup: %w", err)
		}
	}

	data, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected script result type %T", result)
	}

	var rec pendingRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode pending signup: %w", err)
	}
	return &rec.PendingSignup, nil
}

func (s *RedisPendingSignupStore) Remove(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("failed to remove pending signup: %w", err)
	}
	return nil
}

// Sweep is a no-op here; key TTLs already reclaim abandoned signups.
func (s *RedisPendingSignupStore) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}
