package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingKeyPrefix  = "backsync:pending:"
	referralKeyPrefix = "backsync:referral:"

	// Referral slots live as long as a typical storefront browsing
	// session; the browser-side session cookies expire with the tab.
	referralTTL = 24 * time.Hour
)

func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

type RedisPendingStore struct {
	client *redis.Client
}

func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

func (s *RedisPendingStore) Put(ctx context.Context, key, password string, ttl time.Duration) error {
	return s.client.Set(ctx, pendingKeyPrefix+key, password, ttl).Err()
}

// Take reads and deletes in one round trip so a pending password is never
// consumed twice.
func (s *RedisPendingStore) Take(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, pendingKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read pending registration: %w", err)
	}
	return value, true, nil
}

type RedisReferralStore struct {
	client *redis.Client
}

func NewRedisReferralStore(client *redis.Client) *RedisReferralStore {
	return &RedisReferralStore{client: client}
}

func (s *RedisReferralStore) Set(ctx context.Context, sessionID, username string) error {
	return s.client.Set(ctx, referralKeyPrefix+sessionID, username, referralTTL).Err()
}

func (s *RedisReferralStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	value, err := s.client.Get(ctx, referralKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read referral slot: %w", err)
	}
	return value, true, nil
}

func (s *RedisReferralStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, referralKeyPrefix+sessionID).Err()
}
