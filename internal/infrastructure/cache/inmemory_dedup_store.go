package cache

import (
	"context"
	"sync"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
)

type dedupEntry struct {
	expiresAt time.Time
}

// InMemoryDedupStore implements shared.DedupStore with an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryDedupStore struct {
	mu        sync.RWMutex
	entries   map[string]dedupEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDedupStore creates an in-memory dedup store and starts a
// background goroutine that evicts expired entries
func NewInMemoryDedupStore() *InMemoryDedupStore {
	store := &InMemoryDedupStore{
		entries:  make(map[string]dedupEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed marks a key as processed with a TTL. Returns true if the key
// was newly marked, false if it was already processed.
func (s *InMemoryDedupStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[key]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.entries[key] = dedupEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release deletes a key so a failed work item can be claimed again
func (s *InMemoryDedupStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// IsProcessed checks if a key has already been processed
func (s *InMemoryDedupStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryDedupStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryDedupStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryDedupStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of live entries, used in tests
func (s *InMemoryDedupStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.DedupStore = (*InMemoryDedupStore)(nil)
