package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	revokedKeyPrefix  = "session_revoked:"
	throttleKeyPrefix = "otp_throttle:"
	attemptsKeyPrefix = "otp_attempts:"
)

// RedisSessionStore keeps signed-out token ids and the per-phone resend throttle.
type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

// Revoke remembers jti until the token would have expired anyway.
func (s *RedisSessionStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.Client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session in Redis: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.Client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return n > 0, nil
}

// AcquireSendSlot returns false while a code was sent to phone within interval.
func (s *RedisSessionStore) AcquireSendSlot(ctx context.Context, phone string, interval time.Duration) (bool, error) {
	ok, err := s.Client.SetNX(ctx, throttleKeyPrefix+phone, time.Now().UTC().Format(time.RFC3339), interval).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire otp send slot: %w", err)
	}
	return ok, nil
}

func (s *RedisSessionStore) ReleaseSendSlot(ctx context.Context, phone string) error {
	return s.Client.Del(ctx, throttleKeyPrefix+phone).Err()
}

// RecordFailedAttempt counts a wrong code for phone and returns the count so
// far. The counter expires window after the first failure.
func (s *RedisSessionStore) RecordFailedAttempt(ctx context.Context, phone string, window time.Duration) (int64, error) {
	key := attemptsKeyPrefix + phone
	n, err := s.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record otp attempt: %w", err)
	}
	if n == 1 {
		if err := s.Client.Expire(ctx, key, window).Err(); err != nil {
			return n, fmt.Errorf("failed to set otp attempt window: %w", err)
		}
	}
	return n, nil
}

func (s *RedisSessionStore) FailedAttempts(ctx context.Context, phone string) (int64, error) {
	n, err := s.Client.Get(ctx, attemptsKeyPrefix+phone).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read otp attempts: %w", err)
	}
	return n, nil
}

func (s *RedisSessionStore) ClearFailedAttempts(ctx context.Context, phone string) error {
	return s.Client.Del(ctx, attemptsKeyPrefix+phone).Err()
}
