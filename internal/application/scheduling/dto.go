package scheduling

import (
	"time"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/google/uuid"
)

// CreateEventRequest contains the input for event creation. With Force the
// event is created even when it conflicts with existing busy events.
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,min=1,max=255"`
	Description string    `json:"description" binding:"omitempty,max=10000"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	Location    string    `json:"location" binding:"omitempty,max=255"`
	Attendees   []string  `json:"attendees" binding:"omitempty,max=50,dive,email"`
	Source      string    `json:"source" binding:"omitempty,oneof=manual agent"`
	Force       bool      `json:"force"`
}

// UpdateEventRequest contains the input for event metadata update
type UpdateEventRequest struct {
	Title       *string  `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string  `json:"description" binding:"omitempty,max=10000"`
	Location    *string  `json:"location" binding:"omitempty,max=255"`
	Attendees   []string `json:"attendees" binding:"omitempty,max=50,dive,email"`
}

// RescheduleEventRequest contains the input for moving an event
type RescheduleEventRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at" binding:"required"`
	Force   bool      `json:"force"`
}

// EventResponse is the API shape of a scheduling event
type EventResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Location    string    `json:"location"`
	Attendees   []string  `json:"attendees"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToEventResponse maps a domain event to its API shape
func ToEventResponse(e *scheduling.SchedulingEvent) EventResponse {
	return EventResponse{
		ID:          e.GetID(),
		Title:       e.Title,
		Description: e.Description,
		StartAt:     e.StartAt,
		EndAt:       e.EndAt,
		Location:    e.Location,
		Attendees:   e.Attendees,
		Status:      string(e.Status),
		Source:      string(e.Source),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToEventResponses maps a slice of events
func ToEventResponses(events []scheduling.SchedulingEvent) []EventResponse {
	out := make([]EventResponse, len(events))
	for i := range events {
		out[i] = ToEventResponse(&events[i])
	}
	return out
}

// EventListFilter carries range query parameters
type EventListFilter struct {
	From     time.Time
	To       time.Time
	Status   string
	Source   string
	Page     int
	PageSize int
}

// SlotResponse is the API shape of a suggested slot
type SlotResponse struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Score   float64   `json:"score"`
}

// ToSlotResponses maps scored slots
func ToSlotResponses(slots []scheduling.Slot) []SlotResponse {
	out := make([]SlotResponse, len(slots))
	for i, s := range slots {
		out[i] = SlotResponse{StartAt: s.Start, EndAt: s.End, Score: s.Score}
	}
	return out
}

// ConflictError carries the overlapping events and suggested alternatives
// for a rejected proposal. The HTTP layer renders it as a 409.
type ConflictError struct {
	Conflicts    []EventResponse `json:"conflicts"`
	Alternatives []SlotResponse  `json:"alternatives"`
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return "Requested time conflicts with existing events"
}

// Code returns the stable machine code for this error
func (e *ConflictError) Code() string {
	return "SCHEDULE_CONFLICT"
}

// ConflictCheckRequest contains the input for a conflict check
type ConflictCheckRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at" binding:"required"`
}

// ConflictCheckResponse reports the overlapping busy events
type ConflictCheckResponse struct {
	HasConflict bool            `json:"has_conflict"`
	Conflicts   []EventResponse `json:"conflicts"`
}

// SuggestSlotsRequest contains the input for slot suggestion
type SuggestSlotsRequest struct {
	From            time.Time `json:"from" binding:"required"`
	To              time.Time `json:"to" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,gt=0"`
	StepMinutes     int       `json:"step_minutes" binding:"omitempty,gt=0"`
	Limit           int       `json:"limit" binding:"omitempty,gt=0,lte=50"`
}

// CreateWeeklyRuleRequest contains the input for a weekly availability window
type CreateWeeklyRuleRequest struct {
	Label       string `json:"label" binding:"omitempty,max=100"`
	Weekday     int    `json:"weekday" binding:"min=0,max=6"`
	StartMinute int    `json:"start_minute" binding:"min=0,max=1439"`
	EndMinute   int    `json:"end_minute" binding:"required,min=1,max=1440"`
	Timezone    string `json:"timezone" binding:"omitempty,max=64"`
}

// CreateBlackoutRuleRequest contains the input for a blackout date
type CreateBlackoutRuleRequest struct {
	Label    string `json:"label" binding:"omitempty,max=100"`
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Timezone string `json:"timezone" binding:"omitempty,max=64"`
}

// UpdateRuleRequest contains the input for updating a weekly rule window
type UpdateRuleRequest struct {
	Label       *string `json:"label" binding:"omitempty,max=100"`
	Weekday     *int    `json:"weekday" binding:"omitempty,min=0,max=6"`
	StartMinute *int    `json:"start_minute" binding:"omitempty,min=0,max=1439"`
	EndMinute   *int    `json:"end_minute" binding:"omitempty,min=1,max=1440"`
	Active      *bool   `json:"active"`
}

// RuleResponse is the API shape of an availability rule
type RuleResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Label       string    `json:"label"`
	Weekday     int       `json:"weekday"`
	StartMinute int       `json:"start_minute"`
	EndMinute   int       `json:"end_minute"`
	Date        string    `json:"date,omitempty"`
	Timezone    string    `json:"timezone"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToRuleResponse maps a domain rule to its API shape
func ToRuleResponse(r *scheduling.AvailabilityRule) RuleResponse {
	return RuleResponse{
		ID:          r.GetID(),
		Kind:        string(r.Kind),
		Label:       r.Label,
		Weekday:     int(r.Weekday),
		StartMinute: r.StartMinute,
		EndMinute:   r.EndMinute,
		Date:        r.Date,
		Timezone:    r.Timezone,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ToRuleResponses maps a slice of rules
func ToRuleResponses(rules []scheduling.AvailabilityRule) []RuleResponse {
	out := make([]RuleResponse, len(rules))
	for i := range rules {
		out[i] = ToRuleResponse(&rules[i])
	}
	return out
}

// DayLoadResponse is the API shape of a day's booking load
type DayLoadResponse struct {
	Date             string  `json:"date"`
	AvailableMinutes int     `json:"available_minutes"`
	BookedMinutes    int     `json:"booked_minutes"`
	Utilization      float64 `json:"utilization"`
	Overbooked       bool    `json:"overbooked"`
}

// ToDayLoadResponse maps a domain day load
func ToDayLoadResponse(l scheduling.DayLoad) DayLoadResponse {
	return DayLoadResponse{
		Date:             l.Date,
		AvailableMinutes: l.AvailableMinutes,
		BookedMinutes:    l.BookedMinutes,
		Utilization:      l.Utilization,
		Overbooked:       l.Overbooked,
	}
}

// ReminderResponse is the API shape of an event reminder
type ReminderResponse struct {
	ID       uuid.UUID  `json:"id"`
	EventID  uuid.UUID  `json:"event_id"`
	DueAt    time.Time  `json:"due_at"`
	Status   string     `json:"status"`
	Attempts int        `json:"attempts"`
	LastErr  string     `json:"last_error,omitempty"`
	SentAt   *time.Time `json:"sent_at,omitempty"`
}

// ToReminderResponse maps a domain reminder
func ToReminderResponse(r *scheduling.EventReminder) ReminderResponse {
	return ReminderResponse{
		ID:       r.GetID(),
		EventID:  r.EventID,
		DueAt:    r.DueAt,
		Status:   string(r.Status),
		Attempts: r.Attempts,
		LastErr:  r.LastErr,
		SentAt:   r.SentAt,
	}
}

// ToReminderResponses maps a slice of reminders
func ToReminderResponses(reminders []scheduling.EventReminder) []ReminderResponse {
	out := make([]ReminderResponse, len(reminders))
	for i := range reminders {
		out[i] = ToReminderResponse(&reminders[i])
	}
	return out
}
