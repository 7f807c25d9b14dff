package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist provides token revocation via JTI tracking
type TokenBlacklist interface {
	// AddToBlacklist adds a token's JTI to the blacklist with a TTL matching
	// its remaining lifetime
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted checks if a token's JTI is blacklisted
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateUserTokens marks all tokens issued to a user before now as
	// invalid, used on password change and account lock
	InvalidateUserTokens(ctx context.Context, userID string, ttl time.Duration) error

	// IsUserTokenInvalidated checks whether a token issued at issuedAt has
	// been invalidated by a later InvalidateUserTokens call
	IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const blacklistKeyPrefix = "token:blacklist:"

// RedisTokenBlacklist implements TokenBlacklist backed by Redis
type RedisTokenBlacklist struct {
	client *redis.Client
}

// NewRedisTokenBlacklist creates a blacklist sharing an existing Redis client
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return blacklistKeyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) userKey(userID string) string {
	return blacklistKeyPrefix + "user:" + userID
}

func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired, nothing to revoke
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

func (b *RedisTokenBlacklist) InvalidateUserTokens(ctx context.Context, userID string, ttl time.Duration) error {
	now := time.Now().Unix()
	if err := b.client.Set(ctx, b.userKey(userID), now, ttl).Err(); err != nil {
		return fmt.Errorf("invalidate user tokens: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	cutoff, err := b.client.Get(ctx, b.userKey(userID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("check user invalidation: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

// InMemoryTokenBlacklist implements TokenBlacklist in process memory, used in
// tests and single-node development setups
type InMemoryTokenBlacklist struct {
	mu      sync.RWMutex
	jtis    map[string]time.Time // jti -> expiry
	cutoffs map[string]time.Time // userID -> invalidation time
}

// NewInMemoryTokenBlacklist creates an in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:    make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
	}
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = time.Now().Add(ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	expiry, ok := b.jtis[jti]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		b.mu.Lock()
		delete(b.jtis, jti)
		b.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (b *InMemoryTokenBlacklist) InvalidateUserTokens(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cutoffs[userID] = time.Now()
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cutoff, ok := b.cutoffs[userID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(cutoff), nil
}
