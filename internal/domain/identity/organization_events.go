package identity

import (
	"github.com/astralisone/platform/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeOrganization = "Organization"
	AggregateTypeUser         = "User"
)

// Event type constants
const (
	EventTypeOrganizationCreated = "OrganizationCreated"
	EventTypeUserCreated         = "UserCreated"
	EventTypeUserLocked          = "UserLocked"
)

// OrganizationCreatedEvent is published when a new organization signs up
type OrganizationCreatedEvent struct {
	shared.BaseDomainEvent
	Code string  `json:"code"`
	Name string  `json:"name"`
	Plan OrgPlan `json:"plan"`
}

// NewOrganizationCreatedEvent creates a new OrganizationCreatedEvent
func NewOrganizationCreatedEvent(org *Organization) *OrganizationCreatedEvent {
	return &OrganizationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationCreated, AggregateTypeOrganization, org.ID, org.ID),
		Code:            org.Code,
		Name:            org.Name,
		Plan:            org.Plan,
	}
}

// UserCreatedEvent is published when a user is added to an organization
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// NewUserCreatedEvent creates a new UserCreatedEvent
func NewUserCreatedEvent(user *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, user.ID, user.OrgID),
		Email:           user.Email,
		Role:            user.Role,
	}
}

// UserLockedEvent is published when a user account is locked after repeated
// failed login attempts
type UserLockedEvent struct {
	shared.BaseDomainEvent
	Email          string `json:"email"`
	FailedAttempts int    `json:"failed_attempts"`
}

// NewUserLockedEvent creates a new UserLockedEvent
func NewUserLockedEvent(user *User) *UserLockedEvent {
	return &UserLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserLocked, AggregateTypeUser, user.ID, user.OrgID),
		Email:           user.Email,
		FailedAttempts:  user.FailedAttempts,
	}
}
