package scheduling

import (
	"strings"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// EventStatus represents the lifecycle state of a scheduling event
type EventStatus string

const (
	EventStatusTentative EventStatus = "tentative"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// EventSource records who created an event
type EventSource string

const (
	EventSourceManual EventSource = "manual"
	EventSourceAgent  EventSource = "agent"
)

// maxEventDuration caps a single event at 24 hours
const maxEventDuration = 24 * time.Hour

// SchedulingEvent is a calendar entry occupying the half-open interval
// [StartAt, EndAt). Two events conflict when their intervals overlap;
// back-to-back events do not.
type SchedulingEvent struct {
	shared.OrgAggregateRoot
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
	Location    string
	Attendees   []string
	Status      EventStatus
	Source      EventSource
}

// NewSchedulingEvent creates a new tentative event with validation
func NewSchedulingEvent(orgID uuid.UUID, title, description string, startAt, endAt time.Time, location string, attendees []string, source EventSource) (*SchedulingEvent, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "event title is required")
	}
	if len(title) > 255 {
		return nil, shared.NewDomainError("INVALID_INPUT", "event title must not exceed 255 characters")
	}
	if err := validateInterval(startAt, endAt); err != nil {
		return nil, err
	}
	if source == "" {
		source = EventSourceManual
	}
	if source != EventSourceManual && source != EventSourceAgent {
		return nil, shared.NewDomainError("INVALID_INPUT", "invalid event source")
	}

	cleaned, err := cleanAttendees(attendees)
	if err != nil {
		return nil, err
	}

	return &SchedulingEvent{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Title:            title,
		Description:      strings.TrimSpace(description),
		StartAt:          startAt.UTC(),
		EndAt:            endAt.UTC(),
		Location:         strings.TrimSpace(location),
		Attendees:        cleaned,
		Status:           EventStatusTentative,
		Source:           source,
	}, nil
}

func validateInterval(startAt, endAt time.Time) error {
	if startAt.IsZero() || endAt.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "start and end times are required")
	}
	if !endAt.After(startAt) {
		return shared.NewDomainError("INVALID_INPUT", "event end must be after start")
	}
	if endAt.Sub(startAt) > maxEventDuration {
		return shared.NewDomainError("INVALID_INPUT", "event must not exceed 24 hours")
	}
	return nil
}

func cleanAttendees(attendees []string) ([]string, error) {
	if len(attendees) > 50 {
		return nil, shared.NewDomainError("INVALID_INPUT", "an event supports at most 50 attendees")
	}
	cleaned := make([]string, 0, len(attendees))
	seen := make(map[string]bool, len(attendees))
	for _, a := range attendees {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		if !strings.Contains(a, "@") {
			return nil, shared.NewDomainError("INVALID_INPUT", "attendee must be an email address: "+a)
		}
		seen[a] = true
		cleaned = append(cleaned, a)
	}
	return cleaned, nil
}

// Interval returns the event's occupied interval
func (e *SchedulingEvent) Interval() Interval {
	return Interval{Start: e.StartAt, End: e.EndAt}
}

// Duration returns the event length
func (e *SchedulingEvent) Duration() time.Duration {
	return e.EndAt.Sub(e.StartAt)
}

// IsBusy reports whether the event occupies calendar time for conflict
// checks. Cancelled events never block.
func (e *SchedulingEvent) IsBusy() bool {
	return e.Status == EventStatusTentative || e.Status == EventStatusConfirmed
}

// Update changes the event's descriptive fields
func (e *SchedulingEvent) Update(title, description, location string, attendees []string) error {
	if e.Status == EventStatusCancelled || e.Status == EventStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "cannot update a finished event")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_INPUT", "event title is required")
	}
	if len(title) > 255 {
		return shared.NewDomainError("INVALID_INPUT", "event title must not exceed 255 characters")
	}
	cleaned, err := cleanAttendees(attendees)
	if err != nil {
		return err
	}
	e.Title = title
	e.Description = strings.TrimSpace(description)
	e.Location = strings.TrimSpace(location)
	e.Attendees = cleaned
	e.Touch()
	e.IncrementVersion()
	return nil
}

// Reschedule moves the event to a new interval and resets it to tentative
func (e *SchedulingEvent) Reschedule(startAt, endAt time.Time) error {
	if e.Status == EventStatusCancelled || e.Status == EventStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "cannot reschedule a finished event")
	}
	if err := validateInterval(startAt, endAt); err != nil {
		return err
	}
	prev := e.Interval()
	e.StartAt = startAt.UTC()
	e.EndAt = endAt.UTC()
	e.Status = EventStatusTentative
	e.Touch()
	e.IncrementVersion()
	e.AddDomainEvent(NewEventRescheduledEvent(e.GetID(), e.OrgID, prev, e.Interval()))
	return nil
}

// Confirm marks a tentative event as confirmed
func (e *SchedulingEvent) Confirm() error {
	if e.Status == EventStatusConfirmed {
		return nil
	}
	if e.Status != EventStatusTentative {
		return shared.NewDomainError("INVALID_STATE", "only tentative events can be confirmed")
	}
	e.Status = EventStatusConfirmed
	e.Touch()
	e.IncrementVersion()
	return nil
}

// Cancel cancels the event. Reminders for it are cancelled by the
// subscriber of the emitted event.
func (e *SchedulingEvent) Cancel() error {
	if e.Status == EventStatusCancelled {
		return nil
	}
	if e.Status == EventStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "cannot cancel a completed event")
	}
	e.Status = EventStatusCancelled
	e.Touch()
	e.IncrementVersion()
	e.AddDomainEvent(NewEventCancelledEvent(e.GetID(), e.OrgID))
	return nil
}

// Complete marks the event as having taken place
func (e *SchedulingEvent) Complete() error {
	if e.Status == EventStatusCompleted {
		return nil
	}
	if e.Status == EventStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "cannot complete a cancelled event")
	}
	e.Status = EventStatusCompleted
	e.Touch()
	e.IncrementVersion()
	return nil
}
