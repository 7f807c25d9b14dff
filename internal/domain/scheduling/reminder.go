package scheduling

import (
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// ReminderStatus represents the dispatch state of a reminder
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusFailed    ReminderStatus = "failed"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

// maxReminderAttempts is how many dispatch attempts a reminder gets before
// it is marked failed for good.
const maxReminderAttempts = 3

// DefaultReminderOffsets are applied to every newly created event
var DefaultReminderOffsets = []time.Duration{24 * time.Hour, 30 * time.Minute}

// EventReminder is a scheduled notification due at event start minus Offset
type EventReminder struct {
	shared.OrgAggregateRoot
	EventID  uuid.UUID
	Offset   time.Duration
	DueAt    time.Time
	Status   ReminderStatus
	Attempts int
	LastErr  string
	SentAt   *time.Time
}

// NewEventReminder creates a pending reminder for an event
func NewEventReminder(orgID, eventID uuid.UUID, eventStart time.Time, offset time.Duration) (*EventReminder, error) {
	if offset < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "reminder offset must not be negative")
	}
	if offset > 30*24*time.Hour {
		return nil, shared.NewDomainError("INVALID_INPUT", "reminder offset must not exceed 30 days")
	}
	return &EventReminder{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		EventID:          eventID,
		Offset:           offset,
		DueAt:            eventStart.Add(-offset).UTC(),
		Status:           ReminderStatusPending,
	}, nil
}

// RemindersForEvent builds the default reminders for an event, skipping
// offsets that are already in the past.
func RemindersForEvent(e *SchedulingEvent, now time.Time) []*EventReminder {
	reminders := make([]*EventReminder, 0, len(DefaultReminderOffsets))
	for _, offset := range DefaultReminderOffsets {
		r, err := NewEventReminder(e.OrgID, e.GetID(), e.StartAt, offset)
		if err != nil {
			continue
		}
		if r.DueAt.Before(now) {
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders
}

// IsDue reports whether a pending reminder should be dispatched
func (r *EventReminder) IsDue(now time.Time) bool {
	return r.Status == ReminderStatusPending && !r.DueAt.After(now)
}

// MarkSent records a successful dispatch
func (r *EventReminder) MarkSent(now time.Time) error {
	if r.Status != ReminderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "only pending reminders can be sent")
	}
	r.Status = ReminderStatusSent
	r.Attempts++
	sent := now.UTC()
	r.SentAt = &sent
	r.Touch()
	return nil
}

// MarkFailed records a failed attempt. The reminder stays pending until
// the attempt budget is spent.
func (r *EventReminder) MarkFailed(reason string) error {
	if r.Status != ReminderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "only pending reminders can fail")
	}
	r.Attempts++
	r.LastErr = reason
	if r.Attempts >= maxReminderAttempts {
		r.Status = ReminderStatusFailed
	}
	r.Touch()
	return nil
}

// Cancel withdraws a pending reminder
func (r *EventReminder) Cancel() error {
	if r.Status == ReminderStatusCancelled {
		return nil
	}
	if r.Status != ReminderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "only pending reminders can be cancelled")
	}
	r.Status = ReminderStatusCancelled
	r.Touch()
	return nil
}

// Reschedule recomputes the due time after its event moved
func (r *EventReminder) Reschedule(eventStart time.Time) error {
	if r.Status != ReminderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "only pending reminders can be rescheduled")
	}
	r.DueAt = eventStart.Add(-r.Offset).UTC()
	r.Touch()
	return nil
}
