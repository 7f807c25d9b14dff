package scheduling

import (
	"context"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// EventRepository defines the interface for scheduling event persistence
type EventRepository interface {
	// FindByID finds an event by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*SchedulingEvent, error)

	// FindInRange finds events overlapping [from, to). Recognized filter
	// keys: status, source.
	FindInRange(ctx context.Context, orgID uuid.UUID, from, to time.Time, filter shared.Filter) ([]SchedulingEvent, error)

	// FindBusyInRange finds tentative and confirmed events overlapping
	// [from, to), used by conflict checks and slot suggestion
	FindBusyInRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]SchedulingEvent, error)

	// Save creates or updates an event
	Save(ctx context.Context, e *SchedulingEvent) error

	// Count counts events matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)
}

// AvailabilityRuleRepository defines the interface for availability rule persistence
type AvailabilityRuleRepository interface {
	// FindByID finds a rule by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*AvailabilityRule, error)

	// FindAll finds all rules for an organization
	FindAll(ctx context.Context, orgID uuid.UUID) ([]AvailabilityRule, error)

	// FindActive finds the active rules for an organization
	FindActive(ctx context.Context, orgID uuid.UUID) ([]AvailabilityRule, error)

	// Save creates or updates a rule
	Save(ctx context.Context, r *AvailabilityRule) error

	// Delete removes a rule
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

// ReminderRepository defines the interface for event reminder persistence
type ReminderRepository interface {
	// FindByID finds a reminder by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*EventReminder, error)

	// FindByEvent finds all reminders for an event
	FindByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]EventReminder, error)

	// FindDue finds pending reminders due at or before now, across all
	// organizations, oldest first, capped at limit
	FindDue(ctx context.Context, now time.Time, limit int) ([]EventReminder, error)

	// Save creates or updates a reminder
	Save(ctx context.Context, r *EventReminder) error

	// SaveAll persists a batch of reminders
	SaveAll(ctx context.Context, reminders []*EventReminder) error
}
