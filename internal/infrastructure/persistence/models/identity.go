package models

import (
	"time"

	"github.com/astralisone/platform/internal/domain/identity"
)

// OrganizationModel is the persistence model for the Organization aggregate.
type OrganizationModel struct {
	AggregateModel
	Code     string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name     string             `gorm:"type:varchar(200);not null"`
	Plan     identity.OrgPlan   `gorm:"type:varchar(20);not null;default:'free'"`
	Status   identity.OrgStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Settings string             `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization
func (m *OrganizationModel) ToDomain() *identity.Organization {
	org := &identity.Organization{
		Code:     m.Code,
		Name:     m.Name,
		Plan:     m.Plan,
		Status:   m.Status,
		Settings: m.Settings,
	}
	m.PopulateAggregateRoot(&org.BaseAggregateRoot)
	if org.Settings == "" {
		org.Settings = "{}"
	}
	return org
}

// FromDomain populates the persistence model from a domain Organization
func (m *OrganizationModel) FromDomain(o *identity.Organization) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Code = o.Code
	m.Name = o.Name
	m.Plan = o.Plan
	m.Status = o.Status
	m.Settings = o.Settings
}

// OrganizationModelFromDomain creates a new persistence model from a domain Organization
func OrganizationModelFromDomain(o *identity.Organization) *OrganizationModel {
	m := &OrganizationModel{}
	m.FromDomain(o)
	return m
}

// UserModel is the persistence model for the User aggregate.
type UserModel struct {
	OrgAggregateModel
	Email          string              `gorm:"type:varchar(200);not null;index"`
	PasswordHash   string              `gorm:"type:varchar(255);not null"`
	DisplayName    string              `gorm:"type:varchar(100)"`
	Role           identity.UserRole   `gorm:"type:varchar(20);not null;default:'member'"`
	Status         identity.UserStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	LastLoginAt    *time.Time          `gorm:"index"`
	FailedAttempts int                 `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		DisplayName:    m.DisplayName,
		Role:           m.Role,
		Status:         m.Status,
		LastLoginAt:    m.LastLoginAt,
		FailedAttempts: m.FailedAttempts,
		LockedUntil:    m.LockedUntil,
	}
	m.PopulateOrgAggregateRoot(&user.OrgAggregateRoot)
	return user
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainOrgAggregateRoot(u.OrgAggregateRoot)
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.DisplayName = u.DisplayName
	m.Role = u.Role
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
