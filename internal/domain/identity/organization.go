package identity

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
)

// OrgStatus represents the status of an organization
type OrgStatus string

const (
	OrgStatusActive      OrgStatus = "active"
	OrgStatusSuspended   OrgStatus = "suspended"
	OrgStatusDeactivated OrgStatus = "deactivated"
)

// OrgPlan represents the subscription plan of an organization
type OrgPlan string

const (
	OrgPlanFree       OrgPlan = "free"
	OrgPlanStarter    OrgPlan = "starter"
	OrgPlanGrowth     OrgPlan = "growth"
	OrgPlanEnterprise OrgPlan = "enterprise"
)

var orgCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,48}[a-z0-9]$`)

// Organization is the tenant boundary of the platform. All pipeline, document,
// scheduling and agent aggregates are scoped to exactly one organization.
type Organization struct {
	shared.BaseAggregateRoot
	Code     string
	Name     string
	Plan     OrgPlan
	Status   OrgStatus
	Settings string // JSON blob of org-level settings (timezone, branding, defaults)
}

// NewOrganization creates a new organization with the free plan
func NewOrganization(code, name string) (*Organization, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !orgCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_ORG_CODE",
			"Organization code must be 3-50 lowercase letters, digits or hyphens")
	}
	if err := validateOrgName(name); err != nil {
		return nil, err
	}

	org := &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Plan:              OrgPlanFree,
		Status:            OrgStatusActive,
		Settings:          "{}",
	}
	org.AddDomainEvent(NewOrganizationCreatedEvent(org))
	return org, nil
}

// Update changes the organization's display name
func (o *Organization) Update(name string) error {
	if err := validateOrgName(name); err != nil {
		return err
	}
	o.Name = name
	o.Touch()
	o.IncrementVersion()
	return nil
}

// SetPlan changes the subscription plan
func (o *Organization) SetPlan(plan OrgPlan) error {
	switch plan {
	case OrgPlanFree, OrgPlanStarter, OrgPlanGrowth, OrgPlanEnterprise:
	default:
		return shared.NewDomainError("INVALID_PLAN", "Unknown subscription plan")
	}
	o.Plan = plan
	o.Touch()
	o.IncrementVersion()
	return nil
}

// UpdateSettings replaces the settings JSON blob
func (o *Organization) UpdateSettings(settings string) error {
	if settings == "" {
		settings = "{}"
	}
	if !json.Valid([]byte(settings)) {
		return shared.NewDomainError("INVALID_SETTINGS", "Settings must be valid JSON")
	}
	o.Settings = settings
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Activate transitions the organization to active
func (o *Organization) Activate() error {
	if o.Status == OrgStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Organization is already active")
	}
	o.Status = OrgStatusActive
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Suspend blocks all access for the organization without deleting data
func (o *Organization) Suspend() error {
	if o.Status != OrgStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active organizations can be suspended")
	}
	o.Status = OrgStatusSuspended
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Deactivate permanently retires the organization
func (o *Organization) Deactivate() error {
	if o.Status == OrgStatusDeactivated {
		return shared.NewDomainError("INVALID_STATE", "Organization is already deactivated")
	}
	o.Status = OrgStatusDeactivated
	o.Touch()
	o.IncrementVersion()
	return nil
}

// IsActive reports whether the organization can be used
func (o *Organization) IsActive() bool {
	return o.Status == OrgStatusActive
}

// Timezone returns the org timezone from settings, defaulting to UTC
func (o *Organization) Timezone() *time.Location {
	var settings struct {
		Timezone string `json:"timezone"`
	}
	if err := json.Unmarshal([]byte(o.Settings), &settings); err == nil && settings.Timezone != "" {
		if loc, err := time.LoadLocation(settings.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

func validateOrgName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_ORG_NAME", "Organization name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_ORG_NAME", "Organization name cannot exceed 200 characters")
	}
	return nil
}
