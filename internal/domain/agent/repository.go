package agent

import (
	"context"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// DecisionRepository defines the interface for agent decision persistence
type DecisionRepository interface {
	// FindByID finds a decision by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*AgentDecision, error)

	// FindAll finds decisions matching the filter. Recognized filter keys:
	// kind, status.
	FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]AgentDecision, error)

	// Save creates or updates a decision
	Save(ctx context.Context, d *AgentDecision) error

	// Count counts decisions matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)
}

// LogRepository defines the interface for agent log persistence
type LogRepository interface {
	// Append writes log rows. Append is fire-and-forget friendly: callers
	// may ignore the error after logging it.
	Append(ctx context.Context, logs ...*AgentLog) error

	// Query finds log rows matching the query, newest first
	Query(ctx context.Context, orgID uuid.UUID, q LogQuery, filter shared.Filter) ([]AgentLog, error)

	// Count counts log rows matching the query
	Count(ctx context.Context, orgID uuid.UUID, q LogQuery) (int64, error)

	// DeleteOlderThan prunes log rows older than the cutoff, returning the
	// number of rows removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
