package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOutboxRepo keeps entries in memory and claims them the way the GORM
// repository does
type fakeOutboxRepo struct {
	mu      sync.Mutex
	entries []*shared.OutboxEntry
}

func (r *fakeOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeOutboxRepo) ClaimDispatchable(_ context.Context, now time.Time, limit int) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*shared.OutboxEntry
	for _, e := range r.entries {
		if len(claimed) >= limit {
			break
		}
		dispatchable := e.Status == shared.OutboxStatusPending ||
			(e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && !e.NextRetryAt.After(now))
		if dispatchable {
			e.Status = shared.OutboxStatusProcessing
			claimed = append(claimed, e)
		}
	}
	return claimed, nil
}

func (r *fakeOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == entry.ID {
			r.entries[i] = entry
		}
	}
	return nil
}

func (r *fakeOutboxRepo) DeleteSentBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*shared.OutboxEntry
	var deleted int64
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

func (r *fakeOutboxRepo) entry(i int) *shared.OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[i]
}

func newOutboxBus(repo *fakeOutboxRepo) *OutboxEventBus {
	serializer := NewEventSerializer()
	serializer.Register("EventScheduled", &testEvent{})
	return NewOutboxEventBus(config.EventConfig{}, repo, serializer, zap.NewNop())
}

func TestOutboxEventBus_PublishPersistsPending(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := newOutboxBus(repo)

	evt := newTestEvent("EventScheduled")
	require.NoError(t, bus.Publish(context.Background(), evt))

	require.Len(t, repo.entries, 1)
	entry := repo.entry(0)
	assert.Equal(t, shared.OutboxStatusPending, entry.Status)
	assert.Equal(t, "EventScheduled", entry.EventType)
	assert.Equal(t, evt.EventID(), entry.EventID)
	assert.NotEmpty(t, entry.Payload)
}

func TestOutboxEventBus_ProcessBatchDeliversAndMarksSent(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := newOutboxBus(repo)
	handler := &recordingHandler{types: []string{"EventScheduled"}}
	bus.Subscribe(handler)

	evt := newTestEvent("EventScheduled")
	require.NoError(t, bus.Publish(context.Background(), evt))
	require.NoError(t, bus.ProcessBatch(context.Background()))

	received := handler.received()
	require.Len(t, received, 1)
	assert.Equal(t, evt.EventID(), received[0].EventID())

	entry := repo.entry(0)
	assert.Equal(t, shared.OutboxStatusSent, entry.Status)
	require.NotNil(t, entry.ProcessedAt)
}

func TestOutboxEventBus_FailedDeliveryRetriesWithBackoff(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := newOutboxBus(repo)
	handler := &recordingHandler{types: []string{"EventScheduled"}, err: errors.New("downstream unavailable")}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("EventScheduled")))
	require.NoError(t, bus.ProcessBatch(context.Background()))

	entry := repo.entry(0)
	assert.Equal(t, shared.OutboxStatusFailed, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
	assert.Equal(t, "downstream unavailable", entry.LastError)
	require.NotNil(t, entry.NextRetryAt)
	assert.True(t, entry.NextRetryAt.After(time.Now()))

	// backoff has not elapsed, so the entry stays parked
	require.NoError(t, bus.ProcessBatch(context.Background()))
	assert.Equal(t, 1, entry.Attempts)

	// once the retry time passes and the handler recovers, delivery succeeds
	handler.err = nil
	past := time.Now().Add(-time.Second)
	entry.NextRetryAt = &past
	require.NoError(t, bus.ProcessBatch(context.Background()))

	assert.Equal(t, shared.OutboxStatusSent, repo.entry(0).Status)
	assert.Len(t, handler.received(), 2)
}

func TestOutboxEventBus_DeadAfterMaxAttempts(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := newOutboxBus(repo)
	handler := &recordingHandler{types: []string{"EventScheduled"}, err: errors.New("boom")}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("EventScheduled")))

	entry := repo.entry(0)
	for i := 0; i < entry.MaxAttempts; i++ {
		require.NoError(t, bus.ProcessBatch(context.Background()))
		if entry.NextRetryAt != nil {
			past := time.Now().Add(-time.Second)
			entry.NextRetryAt = &past
		}
	}

	assert.Equal(t, shared.OutboxStatusDead, entry.Status)
	assert.Equal(t, entry.MaxAttempts, entry.Attempts)
}

func TestOutboxEventBus_UndecodableEntryGoesDead(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := newOutboxBus(repo)

	// the type was never registered with the serializer
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("EventVanished")))
	require.NoError(t, bus.ProcessBatch(context.Background()))

	entry := repo.entry(0)
	assert.Equal(t, shared.OutboxStatusDead, entry.Status)
	assert.Contains(t, entry.LastError, "unknown event type")
}

func TestOutboxEventBus_CleanupPrunesSentEntries(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := newOutboxBus(repo)
	handler := &recordingHandler{types: []string{"EventScheduled"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("EventScheduled")))
	require.NoError(t, bus.ProcessBatch(context.Background()))

	deleted, err := repo.DeleteSentBefore(context.Background(), time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, repo.entries)
}

func TestOutboxEventBus_StartStop(t *testing.T) {
	repo := &fakeOutboxRepo{}
	bus := newOutboxBus(repo)

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Stop(ctx))
}
