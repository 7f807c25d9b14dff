package identity

import (
	"context"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// OrganizationRepository defines the interface for organization persistence
type OrganizationRepository interface {
	// FindByID finds an organization by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)

	// FindByCode finds an organization by its unique code
	FindByCode(ctx context.Context, code string) (*Organization, error)

	// FindAll finds all organizations matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Organization, error)

	// Save creates or updates an organization
	Save(ctx context.Context, org *Organization) error

	// Count counts organizations matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByCode checks if an organization with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email within an organization
	FindByEmail(ctx context.Context, orgID uuid.UUID, email string) (*User, error)

	// FindByEmailGlobal finds a user by email across organizations (login)
	FindByEmailGlobal(ctx context.Context, email string) (*User, error)

	// FindAll finds all users in an organization matching the filter
	FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	// Count counts users in an organization
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByRole counts users with the given role in an organization
	CountByRole(ctx context.Context, orgID uuid.UUID, role UserRole) (int64, error)

	// ExistsByEmail checks if a user with the given email exists in the organization
	ExistsByEmail(ctx context.Context, orgID uuid.UUID, email string) (bool, error)
}
