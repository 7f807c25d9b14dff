package shared

import (
	"context"
	"time"
)

// DedupStore tracks processed work items so retries and concurrent workers do
// not perform the same side effect twice. Implementations must make
// MarkProcessed atomic.
type DedupStore interface {
	// MarkProcessed marks a key as processed with a TTL. Returns true if
	// the key was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release removes a key so the work item can be claimed again. Used
	// when a claimed item fails and should be retried before the TTL
	// expires. Releasing an absent key is a no-op.
	Release(ctx context.Context, key string) error
}
