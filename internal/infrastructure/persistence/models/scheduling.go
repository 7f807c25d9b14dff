package models

import (
	"encoding/json"
	"time"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/google/uuid"
)

// EventModel is the persistence model for the SchedulingEvent aggregate.
type EventModel struct {
	OrgAggregateModel
	Title       string                 `gorm:"type:varchar(255);not null"`
	Description string                 `gorm:"type:text"`
	StartAt     time.Time              `gorm:"not null;index"`
	EndAt       time.Time              `gorm:"not null;index"`
	Location    string                 `gorm:"type:varchar(255)"`
	Attendees   string                 `gorm:"type:jsonb;default:'[]'"`
	Status      scheduling.EventStatus `gorm:"type:varchar(20);not null;default:'tentative';index"`
	Source      scheduling.EventSource `gorm:"type:varchar(20);not null;default:'manual'"`
}

// TableName returns the table name for GORM
func (EventModel) TableName() string {
	return "scheduling_events"
}

// ToDomain converts the persistence model to a domain SchedulingEvent
func (m *EventModel) ToDomain() *scheduling.SchedulingEvent {
	e := &scheduling.SchedulingEvent{
		Title:       m.Title,
		Description: m.Description,
		StartAt:     m.StartAt.UTC(),
		EndAt:       m.EndAt.UTC(),
		Location:    m.Location,
		Attendees:   make([]string, 0),
		Status:      m.Status,
		Source:      m.Source,
	}
	m.PopulateOrgAggregateRoot(&e.OrgAggregateRoot)
	if m.Attendees != "" {
		var attendees []string
		if err := json.Unmarshal([]byte(m.Attendees), &attendees); err == nil {
			e.Attendees = attendees
		}
	}
	return e
}

// FromDomain populates the persistence model from a domain SchedulingEvent
func (m *EventModel) FromDomain(e *scheduling.SchedulingEvent) {
	m.FromDomainOrgAggregateRoot(e.OrgAggregateRoot)
	m.Title = e.Title
	m.Description = e.Description
	m.StartAt = e.StartAt
	m.EndAt = e.EndAt
	m.Location = e.Location
	m.Status = e.Status
	m.Source = e.Source
	if raw, err := json.Marshal(e.Attendees); err == nil {
		m.Attendees = string(raw)
	} else {
		m.Attendees = "[]"
	}
}

// EventModelFromDomain creates a new persistence model from a domain SchedulingEvent
func EventModelFromDomain(e *scheduling.SchedulingEvent) *EventModel {
	m := &EventModel{}
	m.FromDomain(e)
	return m
}

// AvailabilityRuleModel is the persistence model for the AvailabilityRule aggregate.
type AvailabilityRuleModel struct {
	OrgAggregateModel
	Kind        scheduling.RuleKind `gorm:"type:varchar(20);not null"`
	Label       string              `gorm:"type:varchar(200)"`
	Weekday     int                 `gorm:"not null;default:0"`
	StartMinute int                 `gorm:"not null;default:0"`
	EndMinute   int                 `gorm:"not null;default:0"`
	Date        string              `gorm:"type:varchar(10)"`
	Timezone    string              `gorm:"type:varchar(64);not null;default:'UTC'"`
	Active      bool                `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (AvailabilityRuleModel) TableName() string {
	return "availability_rules"
}

// ToDomain converts the persistence model to a domain AvailabilityRule
func (m *AvailabilityRuleModel) ToDomain() *scheduling.AvailabilityRule {
	r := &scheduling.AvailabilityRule{
		Kind:        m.Kind,
		Label:       m.Label,
		Weekday:     time.Weekday(m.Weekday),
		StartMinute: m.StartMinute,
		EndMinute:   m.EndMinute,
		Date:        m.Date,
		Timezone:    m.Timezone,
		Active:      m.Active,
	}
	m.PopulateOrgAggregateRoot(&r.OrgAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain AvailabilityRule
func (m *AvailabilityRuleModel) FromDomain(r *scheduling.AvailabilityRule) {
	m.FromDomainOrgAggregateRoot(r.OrgAggregateRoot)
	m.Kind = r.Kind
	m.Label = r.Label
	m.Weekday = int(r.Weekday)
	m.StartMinute = r.StartMinute
	m.EndMinute = r.EndMinute
	m.Date = r.Date
	m.Timezone = r.Timezone
	m.Active = r.Active
}

// AvailabilityRuleModelFromDomain creates a new persistence model from a domain AvailabilityRule
func AvailabilityRuleModelFromDomain(r *scheduling.AvailabilityRule) *AvailabilityRuleModel {
	m := &AvailabilityRuleModel{}
	m.FromDomain(r)
	return m
}

// ReminderModel is the persistence model for the EventReminder aggregate.
// Offset is stored in seconds.
type ReminderModel struct {
	OrgAggregateModel
	EventID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	OffsetSeconds int64                     `gorm:"not null"`
	DueAt         time.Time                 `gorm:"not null;index"`
	Status        scheduling.ReminderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Attempts      int                       `gorm:"not null;default:0"`
	LastErr       string                    `gorm:"type:varchar(500)"`
	SentAt        *time.Time
}

// TableName returns the table name for GORM
func (ReminderModel) TableName() string {
	return "event_reminders"
}

// ToDomain converts the persistence model to a domain EventReminder
func (m *ReminderModel) ToDomain() *scheduling.EventReminder {
	r := &scheduling.EventReminder{
		EventID:  m.EventID,
		Offset:   time.Duration(m.OffsetSeconds) * time.Second,
		DueAt:    m.DueAt.UTC(),
		Status:   m.Status,
		Attempts: m.Attempts,
		LastErr:  m.LastErr,
		SentAt:   m.SentAt,
	}
	m.PopulateOrgAggregateRoot(&r.OrgAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain EventReminder
func (m *ReminderModel) FromDomain(r *scheduling.EventReminder) {
	m.FromDomainOrgAggregateRoot(r.OrgAggregateRoot)
	m.EventID = r.EventID
	m.OffsetSeconds = int64(r.Offset / time.Second)
	m.DueAt = r.DueAt
	m.Status = r.Status
	m.Attempts = r.Attempts
	m.LastErr = r.LastErr
	m.SentAt = r.SentAt
}

// ReminderModelFromDomain creates a new persistence model from a domain EventReminder
func ReminderModelFromDomain(r *scheduling.EventReminder) *ReminderModel {
	m := &ReminderModel{}
	m.FromDomain(r)
	return m
}
