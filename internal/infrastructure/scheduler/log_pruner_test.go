package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/shared"
)

type fakeLogRepo struct {
	deleted int64
	cutoffs []time.Time
}

func (r *fakeLogRepo) Append(context.Context, ...*agent.AgentLog) error { return nil }

func (r *fakeLogRepo) Query(context.Context, uuid.UUID, agent.LogQuery, shared.Filter) ([]agent.AgentLog, error) {
	return nil, nil
}

func (r *fakeLogRepo) Count(context.Context, uuid.UUID, agent.LogQuery) (int64, error) {
	return 0, nil
}

func (r *fakeLogRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.deleted, nil
}

func TestLogPruner_PruneOnce(t *testing.T) {
	repo := &fakeLogRepo{deleted: 42}
	pruner := NewLogPruner(repo, 7*24*time.Hour, zap.NewNop())

	require.NoError(t, pruner.PruneOnce(context.Background()))

	require.Len(t, repo.cutoffs, 1)
	wantCutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
	assert.WithinDuration(t, wantCutoff, repo.cutoffs[0], 2*time.Second)
}

func TestLogPruner_DefaultsRetention(t *testing.T) {
	pruner := NewLogPruner(&fakeLogRepo{}, 0, zap.NewNop())
	assert.Equal(t, 30*24*time.Hour, pruner.retention)
}

func TestLogPruner_StartStop(t *testing.T) {
	pruner := NewLogPruner(&fakeLogRepo{}, time.Hour, zap.NewNop())
	require.NoError(t, pruner.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pruner.Stop(ctx))
}
