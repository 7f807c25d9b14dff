package identity

import (
	"context"

	"github.com/astralisone/platform/internal/domain/identity"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user management within an organization
type UserService struct {
	userRepo identity.UserRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, eventBus shared.EventPublisher, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Create adds a user to the organization. The account starts pending and is
// activated explicitly.
func (s *UserService) Create(ctx context.Context, orgID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, orgID, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with this email already exists")
	}

	user, err := identity.NewUser(orgID, req.Email, req.Password, req.DisplayName, identity.UserRole(req.Role))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, user)

	s.logger.Info("user created",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", user.GetID().String()),
		zap.String("role", req.Role))

	resp := ToUserResponse(user)
	return &resp, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, orgID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List retrieves users with filtering and pagination
func (s *UserService) List(ctx context.Context, orgID uuid.UUID, filter UserListFilter) ([]UserResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Role != "" {
		domainFilter.Filters["role"] = filter.Role
	}

	users, err := s.userRepo.FindAll(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToUserResponses(users), total, nil
}

// Update changes a user's profile
func (s *UserService) Update(ctx context.Context, orgID, userID uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		if err := user.Update(*req.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// AssignRole changes a user's role. Demoting the last owner is refused so an
// organization always keeps at least one.
func (s *UserService) AssignRole(ctx context.Context, orgID, userID uuid.UUID, role string) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	newRole := identity.UserRole(role)
	if user.Role == identity.UserRoleOwner && newRole != identity.UserRoleOwner {
		owners, err := s.userRepo.CountByRole(ctx, orgID, identity.UserRoleOwner)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, shared.NewDomainError("LAST_OWNER", "Cannot demote the organization's only owner")
		}
	}

	if err := user.AssignRole(newRole); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		zap.String("user_id", userID.String()),
		zap.String("role", role))

	resp := ToUserResponse(user)
	return &resp, nil
}

// Activate activates a pending or deactivated user
func (s *UserService) Activate(ctx context.Context, orgID, userID uuid.UUID) (*UserResponse, error) {
	return s.transition(ctx, orgID, userID, func(u *identity.User) error { return u.Activate() })
}

// Deactivate disables a user account
func (s *UserService) Deactivate(ctx context.Context, orgID, userID uuid.UUID) (*UserResponse, error) {
	return s.transition(ctx, orgID, userID, func(u *identity.User) error { return u.Deactivate() })
}

// Unlock clears a lockout before its timer expires
func (s *UserService) Unlock(ctx context.Context, orgID, userID uuid.UUID) (*UserResponse, error) {
	return s.transition(ctx, orgID, userID, func(u *identity.User) error { return u.Unlock() })
}

// ResetPassword sets a new password without checking the current one.
// Restricted to admins by the HTTP layer.
func (s *UserService) ResetPassword(ctx context.Context, orgID, userID uuid.UUID, password string) error {
	user, err := s.userRepo.FindByID(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if err := user.ResetPassword(password); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.logger.Info("password reset by admin", zap.String("user_id", userID.String()))
	return nil
}

func (s *UserService) transition(ctx context.Context, orgID, userID uuid.UUID, fn func(*identity.User) error) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

func (s *UserService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}
