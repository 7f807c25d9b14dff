package scheduling

import (
	"strings"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// RuleKind distinguishes weekly availability windows from blackout dates
type RuleKind string

const (
	RuleKindWeekly   RuleKind = "weekly"
	RuleKindBlackout RuleKind = "blackout"
)

const minutesPerDay = 24 * 60

// AvailabilityRule describes when an organization accepts bookings.
//
// Weekly rules open a window [StartMinute, EndMinute) on a weekday, in the
// rule's timezone. Blackout rules close a whole calendar date regardless of
// weekly windows.
type AvailabilityRule struct {
	shared.OrgAggregateRoot
	Kind        RuleKind
	Label       string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Date        string // blackout date, YYYY-MM-DD
	Timezone    string
	Active      bool
}

// NewWeeklyRule creates a weekly availability window
func NewWeeklyRule(orgID uuid.UUID, label string, weekday time.Weekday, startMinute, endMinute int, timezone string) (*AvailabilityRule, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, shared.NewDomainError("INVALID_INPUT", "invalid weekday")
	}
	if startMinute < 0 || endMinute > minutesPerDay || startMinute >= endMinute {
		return nil, shared.NewDomainError("INVALID_INPUT", "window must satisfy 0 <= start < end <= 1440")
	}
	tz, err := normalizeTimezone(timezone)
	if err != nil {
		return nil, err
	}

	return &AvailabilityRule{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Kind:             RuleKindWeekly,
		Label:            strings.TrimSpace(label),
		Weekday:          weekday,
		StartMinute:      startMinute,
		EndMinute:        endMinute,
		Timezone:         tz,
		Active:           true,
	}, nil
}

// NewBlackoutRule creates a blackout for a single calendar date
func NewBlackoutRule(orgID uuid.UUID, label, date, timezone string) (*AvailabilityRule, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "blackout date must be YYYY-MM-DD")
	}
	tz, err := normalizeTimezone(timezone)
	if err != nil {
		return nil, err
	}

	return &AvailabilityRule{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Kind:             RuleKindBlackout,
		Label:            strings.TrimSpace(label),
		Date:             date,
		Timezone:         tz,
		Active:           true,
	}, nil
}

func normalizeTimezone(timezone string) (string, error) {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		return "UTC", nil
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return "", shared.NewDomainError("INVALID_INPUT", "unknown timezone: "+timezone)
	}
	return timezone, nil
}

// Location resolves the rule's timezone, falling back to UTC
func (r *AvailabilityRule) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// UpdateWindow changes a weekly rule's window
func (r *AvailabilityRule) UpdateWindow(weekday time.Weekday, startMinute, endMinute int) error {
	if r.Kind != RuleKindWeekly {
		return shared.NewDomainError("INVALID_STATE", "only weekly rules have a window")
	}
	if weekday < time.Sunday || weekday > time.Saturday {
		return shared.NewDomainError("INVALID_INPUT", "invalid weekday")
	}
	if startMinute < 0 || endMinute > minutesPerDay || startMinute >= endMinute {
		return shared.NewDomainError("INVALID_INPUT", "window must satisfy 0 <= start < end <= 1440")
	}
	r.Weekday = weekday
	r.StartMinute = startMinute
	r.EndMinute = endMinute
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Rename changes the rule's label
func (r *AvailabilityRule) Rename(label string) {
	r.Label = strings.TrimSpace(label)
	r.Touch()
	r.IncrementVersion()
}

// Enable activates the rule
func (r *AvailabilityRule) Enable() {
	r.Active = true
	r.Touch()
	r.IncrementVersion()
}

// Disable deactivates the rule without deleting it
func (r *AvailabilityRule) Disable() {
	r.Active = false
	r.Touch()
	r.IncrementVersion()
}

// WindowOn materializes the rule's window for a calendar day. Returns false
// when the rule does not apply to that day.
func (r *AvailabilityRule) WindowOn(day time.Time) (Interval, bool) {
	if !r.Active || r.Kind != RuleKindWeekly {
		return Interval{}, false
	}
	loc := r.Location()
	local := day.In(loc)
	if local.Weekday() != r.Weekday {
		return Interval{}, false
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Interval{
		Start: midnight.Add(time.Duration(r.StartMinute) * time.Minute),
		End:   midnight.Add(time.Duration(r.EndMinute) * time.Minute),
	}, true
}

// BlocksDate reports whether a blackout rule closes the given local date
func (r *AvailabilityRule) BlocksDate(day time.Time) bool {
	if !r.Active || r.Kind != RuleKindBlackout {
		return false
	}
	return day.In(r.Location()).Format("2006-01-02") == r.Date
}
