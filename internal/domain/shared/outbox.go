package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus represents the delivery state of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusSent       OutboxStatus = "sent"
	OutboxStatusFailed     OutboxStatus = "failed"
	OutboxStatusDead       OutboxStatus = "dead"
)

const (
	outboxMaxAttempts = 5
	outboxBaseBackoff = time.Second
)

// OutboxEntry is a domain event persisted for reliable delivery. Entries
// are written when an aggregate change is saved and dispatched to handlers
// by a background processor, so a crash between save and dispatch cannot
// lose the event.
type OutboxEntry struct {
	ID            uuid.UUID
	OrgID         uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	Attempts      int
	MaxAttempts   int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOutboxEntry creates a pending entry for a domain event
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:            uuid.New(),
		OrgID:         event.OrgID(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxAttempts:   outboxMaxAttempts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MarkSent records a successful dispatch
func (e *OutboxEntry) MarkSent() {
	now := time.Now()
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a dispatch failure and schedules the next retry with
// exponential backoff. The entry goes dead once attempts are exhausted.
func (e *OutboxEntry) MarkFailed(reason string) {
	e.Attempts++
	e.LastError = reason
	e.UpdatedAt = time.Now()

	if e.Attempts >= e.MaxAttempts {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := time.Now().Add(outboxBaseBackoff * time.Duration(1<<uint(e.Attempts-1)))
	e.NextRetryAt = &next
}

// IsDead reports whether delivery has been abandoned
func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// OutboxRepository persists outbox entries
type OutboxRepository interface {
	// Save persists one or more entries
	Save(ctx context.Context, entries ...*OutboxEntry) error
	// ClaimDispatchable atomically marks pending entries, and failed
	// entries whose retry time has passed, as processing and returns them.
	// Claimed entries are invisible to concurrent claimers.
	ClaimDispatchable(ctx context.Context, now time.Time, limit int) ([]*OutboxEntry, error)
	// Update persists the state of a claimed entry
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteSentBefore removes sent entries older than the given time
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
}
