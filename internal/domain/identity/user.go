package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusPending     UserStatus = "pending"
	UserStatusActive      UserStatus = "active"
	UserStatusLocked      UserStatus = "locked"
	UserStatusDeactivated UserStatus = "deactivated"
)

// UserRole represents the role of a user within an organization
type UserRole string

const (
	UserRoleOwner  UserRole = "owner"
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

const (
	bcryptCost        = 12
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a member of an organization
type User struct {
	shared.OrgAggregateRoot
	Email          string
	PasswordHash   string
	DisplayName    string
	Role           UserRole
	Status         UserStatus
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewUser creates a new pending user with a hashed password
func NewUser(orgID uuid.UUID, email, password, displayName string, role UserRole) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) || len(email) > 200 {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = email[:strings.Index(email, "@")]
	}
	if len(displayName) > 100 {
		return nil, shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 100 characters")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Email:            email,
		PasswordHash:     hash,
		DisplayName:      displayName,
		Role:             role,
		Status:           UserStatusPending,
	}
	user.AddDomainEvent(NewUserCreatedEvent(user))
	return user, nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword validates and replaces the user's password
func (u *User) ChangePassword(current, next string) error {
	if !u.CheckPassword(current) {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect")
	}
	return u.ResetPassword(next)
}

// ResetPassword replaces the password without checking the current one.
// Intended for admin resets.
func (u *User) ResetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	u.IncrementVersion()
	return nil
}

// RecordLogin clears failure counters and stamps the login time
func (u *User) RecordLogin(at time.Time) {
	u.LastLoginAt = &at
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
	u.IncrementVersion()
}

// RecordFailedLogin increments the failure counter, locking the account when
// the threshold is reached
func (u *User) RecordFailedLogin() {
	u.FailedAttempts++
	if u.FailedAttempts >= maxFailedAttempts {
		until := time.Now().Add(lockoutDuration)
		u.LockedUntil = &until
		u.Status = UserStatusLocked
		u.AddDomainEvent(NewUserLockedEvent(u))
	}
	u.Touch()
	u.IncrementVersion()
}

// CanLogin reports whether login should be allowed right now
func (u *User) CanLogin() bool {
	switch u.Status {
	case UserStatusActive:
		return true
	case UserStatusLocked:
		return u.LockedUntil != nil && time.Now().After(*u.LockedUntil)
	default:
		return false
	}
}

// Update changes the user's display name
func (u *User) Update(displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > 100 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name must be 1-100 characters")
	}
	u.DisplayName = displayName
	u.Touch()
	u.IncrementVersion()
	return nil
}

// AssignRole changes the user's role. The last owner cannot be demoted; the
// service layer enforces that with a repository count.
func (u *User) AssignRole(role UserRole) error {
	if err := validateRole(role); err != nil {
		return err
	}
	u.Role = role
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Activate transitions a pending or deactivated user to active
func (u *User) Activate() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("INVALID_STATE", "User is already active")
	}
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Deactivate disables the user account
func (u *User) Deactivate() error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError("INVALID_STATE", "User is already deactivated")
	}
	u.Status = UserStatusDeactivated
	u.Touch()
	u.IncrementVersion()
	return nil
}

// Unlock clears a lockout before its timer expires
func (u *User) Unlock() error {
	if u.Status != UserStatusLocked {
		return shared.NewDomainError("INVALID_STATE", "User is not locked")
	}
	u.Status = UserStatusActive
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
	u.IncrementVersion()
	return nil
}

func validateRole(role UserRole) error {
	switch role {
	case UserRoleOwner, UserRoleAdmin, UserRoleMember:
		return nil
	}
	return shared.NewDomainError("INVALID_ROLE", "Unknown user role")
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
