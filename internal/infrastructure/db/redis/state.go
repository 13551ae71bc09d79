package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys of the shared security state. Every worker reads the same values, so a
// level switch propagates on the next request.
const (
	keySecurityLevel = "civic:security_level"
	keyPanicHistory  = "civic:panic_history"
	keyBlockedIPs    = "civic:blocked_ips"
)

// StateStore implements the shared fast security state on Redis. All reads
// are single round-trips; callers apply their own fail-safe on error.
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// GetLevel reads the global security level. An empty string means unset.
func (s *StateStore) GetLevel(ctx context.Context) (string, error) {
	v, err := s.client.Get(ctx, keySecurityLevel).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

// SetLevel writes the global security level, optionally with an expiry.
func (s *StateStore) SetLevel(ctx context.Context, level string, ttl time.Duration) error {
	return s.client.Set(ctx, keySecurityLevel, level, ttl).Err()
}

// AppendHistory pushes one immutable transition entry onto the history list.
func (s *StateStore) AppendHistory(ctx context.Context, entry string) error {
	return s.client.RPush(ctx, keyPanicHistory, entry).Err()
}

// AddBlockedIP adds an address to the shared blocklist set.
func (s *StateStore) AddBlockedIP(ctx context.Context, ip string) error {
	return s.client.SAdd(ctx, keyBlockedIPs, ip).Err()
}

// IsBlockedIP checks blocklist membership.
func (s *StateStore) IsBlockedIP(ctx context.Context, ip string) (bool, error) {
	return s.client.SIsMember(ctx, keyBlockedIPs, ip).Result()
}

// Healthy pings the store.
func (s *StateStore) Healthy(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
