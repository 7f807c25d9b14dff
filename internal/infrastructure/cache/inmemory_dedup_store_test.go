package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDedupStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "reminder-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkProcessed(ctx, "reminder-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	other, err := store.MarkProcessed(ctx, "reminder-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)
}

func TestInMemoryDedupStore_Release(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "reminder-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, "reminder-1"))

	processed, err := store.IsProcessed(ctx, "reminder-1")
	require.NoError(t, err)
	assert.False(t, processed)

	// released key can be claimed again
	again, err := store.MarkProcessed(ctx, "reminder-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)

	// releasing an absent key is a no-op
	require.NoError(t, store.Release(ctx, "reminder-2"))
}

func TestInMemoryDedupStore_Expiry(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "reminder-1", time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "reminder-1")
	require.NoError(t, err)
	assert.False(t, processed)

	// expired entry can be re-marked
	again, err := store.MarkProcessed(ctx, "reminder-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestInMemoryDedupStore_ConcurrentMark(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(ctx, "contested", time.Minute)
			require.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestInMemoryDedupStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryDedupStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
