package identity

import (
	"context"

	"github.com/astralisone/platform/internal/domain/identity"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrganizationService handles organization lifecycle operations
type OrganizationService struct {
	orgRepo  identity.OrganizationRepository
	userRepo identity.UserRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(
	orgRepo identity.OrganizationRepository,
	userRepo identity.UserRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Create provisions a new organization together with its owner account.
// The owner is activated immediately so the org can log in.
func (s *OrganizationService) Create(ctx context.Context, req CreateOrganizationRequest) (*OrganizationResponse, error) {
	exists, err := s.orgRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Organization code is already taken")
	}

	org, err := identity.NewOrganization(req.Code, req.Name)
	if err != nil {
		return nil, err
	}

	owner, err := identity.NewUser(org.GetID(), req.OwnerEmail, req.OwnerPassword, req.OwnerDisplayName, identity.UserRoleOwner)
	if err != nil {
		return nil, err
	}
	if err := owner.Activate(); err != nil {
		return nil, err
	}

	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, owner); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, org)
	s.publishEvents(ctx, owner)

	s.logger.Info("organization created",
		zap.String("org_id", org.GetID().String()),
		zap.String("code", org.Code))

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// GetByID retrieves an organization by ID
func (s *OrganizationService) GetByID(ctx context.Context, orgID uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// List retrieves organizations with filtering and pagination
func (s *OrganizationService) List(ctx context.Context, filter OrganizationListFilter) ([]OrganizationResponse, int64, error) {
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
	if filter.Plan != "" {
		domainFilter.Filters["plan"] = filter.Plan
	}

	orgs, err := s.orgRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orgRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]OrganizationResponse, len(orgs))
	for i := range orgs {
		out[i] = ToOrganizationResponse(&orgs[i])
	}
	return out, total, nil
}

// Update changes the organization's name or settings
func (s *OrganizationService) Update(ctx context.Context, orgID uuid.UUID, req UpdateOrganizationRequest) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := org.Update(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Settings != nil {
		if err := org.UpdateSettings(*req.Settings); err != nil {
			return nil, err
		}
	}

	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// SetPlan changes the organization's subscription plan
func (s *OrganizationService) SetPlan(ctx context.Context, orgID uuid.UUID, plan string) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := org.SetPlan(identity.OrgPlan(plan)); err != nil {
		return nil, err
	}
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	s.logger.Info("organization plan changed",
		zap.String("org_id", orgID.String()),
		zap.String("plan", plan))

	resp := ToOrganizationResponse(org)
	return &resp, nil
}

// Activate transitions the organization to active
func (s *OrganizationService) Activate(ctx context.Context, orgID uuid.UUID) (*OrganizationResponse, error) {
	return s.transition(ctx, orgID, func(org *identity.Organization) error { return org.Activate() })
}

// Suspend suspends the organization; its users can no longer log in
func (s *OrganizationService) Suspend(ctx context.Context, orgID uuid.UUID) (*OrganizationResponse, error) {
	return s.transition(ctx, orgID, func(org *identity.Organization) error { return org.Suspend() })
}

// Deactivate permanently deactivates the organization
func (s *OrganizationService) Deactivate(ctx context.Context, orgID uuid.UUID) (*OrganizationResponse, error) {
	return s.transition(ctx, orgID, func(org *identity.Organization) error { return org.Deactivate() })
}

func (s *OrganizationService) transition(ctx context.Context, orgID uuid.UUID, fn func(*identity.Organization) error) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := fn(org); err != nil {
		return nil, err
	}
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}
	resp := ToOrganizationResponse(org)
	return &resp, nil
}

func (s *OrganizationService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}
