package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultDedupKeyPrefix = "reminder:dedup:"

// RedisDedupStore implements shared.DedupStore using Redis. Suitable for
// distributed deployments where multiple dispatcher instances share state.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupStore creates a store with an existing Redis client so the
// client can be shared across components
func NewRedisDedupStore(client *redis.Client, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = defaultDedupKeyPrefix
	}
	return &RedisDedupStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed marks a key as processed with a TTL using SETNX so the check
// and the write are a single atomic operation
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	return ok, nil
}

// Release deletes a key so a failed work item can be claimed again
func (s *RedisDedupStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	return nil
}

// IsProcessed checks if a key has already been processed
func (s *RedisDedupStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return exists > 0, nil
}

var _ shared.DedupStore = (*RedisDedupStore)(nil)
