package scheduling

import (
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeSchedulingEvent = "SchedulingEvent"
	AggregateTypeReminder        = "EventReminder"
)

// Event type constants
const (
	EventTypeEventScheduled     = "EventScheduled"
	EventTypeEventRescheduled   = "EventRescheduled"
	EventTypeEventCancelled     = "EventCancelled"
	EventTypeReminderDispatched = "ReminderDispatched"
)

// EventScheduledEvent is raised when a new scheduling event is created
type EventScheduledEvent struct {
	shared.BaseDomainEvent
	Title   string
	When    Interval
	ByAgent bool
}

// NewEventScheduledEvent creates a new event scheduled event
func NewEventScheduledEvent(eventID, orgID uuid.UUID, title string, when Interval, byAgent bool) *EventScheduledEvent {
	return &EventScheduledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEventScheduled, AggregateTypeSchedulingEvent, eventID, orgID),
		Title:           title,
		When:            when,
		ByAgent:         byAgent,
	}
}

// EventRescheduledEvent is raised when an event moves to a new interval
type EventRescheduledEvent struct {
	shared.BaseDomainEvent
	Previous Interval
	Current  Interval
}

// NewEventRescheduledEvent creates a new event rescheduled event
func NewEventRescheduledEvent(eventID, orgID uuid.UUID, previous, current Interval) *EventRescheduledEvent {
	return &EventRescheduledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEventRescheduled, AggregateTypeSchedulingEvent, eventID, orgID),
		Previous:        previous,
		Current:         current,
	}
}

// EventCancelledEvent is raised when an event is cancelled. The reminder
// service subscribes to cancel the event's pending reminders.
type EventCancelledEvent struct {
	shared.BaseDomainEvent
}

// NewEventCancelledEvent creates a new event cancelled event
func NewEventCancelledEvent(eventID, orgID uuid.UUID) *EventCancelledEvent {
	return &EventCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEventCancelled, AggregateTypeSchedulingEvent, eventID, orgID),
	}
}

// ReminderDispatchedEvent is raised after a reminder is sent
type ReminderDispatchedEvent struct {
	shared.BaseDomainEvent
	SchedulingEventID uuid.UUID
}

// NewReminderDispatchedEvent creates a new reminder dispatched event
func NewReminderDispatchedEvent(reminderID, eventID, orgID uuid.UUID) *ReminderDispatchedEvent {
	return &ReminderDispatchedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeReminderDispatched, AggregateTypeReminder, reminderID, orgID),
		SchedulingEventID: eventID,
	}
}
