package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/astralisone/platform/internal/domain/identity"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrganizationRepository implements OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by its ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds an organization by its unique code
func (r *GormOrganizationRepository) FindByCode(ctx context.Context, code string) (*identity.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToLower(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all organizations matching the filter
func (r *GormOrganizationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Organization, error) {
	var orgModels []models.OrganizationModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrganizationModel{}), filter)

	if err := query.Find(&orgModels).Error; err != nil {
		return nil, err
	}

	orgs := make([]identity.Organization, len(orgModels))
	for i, model := range orgModels {
		orgs[i] = *model.ToDomain()
	}
	return orgs, nil
}

// Save creates or updates an organization
func (r *GormOrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	model := models.OrganizationModelFromDomain(org)
	return saveVersioned(ctx, r.db, model, org.GetVersion())
}

// Count counts organizations matching the filter
func (r *GormOrganizationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.OrganizationModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if an organization with the given code exists
func (r *GormOrganizationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrganizationModel{}).
		Where("code = ?", strings.ToLower(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormOrganizationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPagination(query, filter, "name ASC")
}

func (r *GormOrganizationRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "plan":
			query = query.Where("plan = ?", value)
		}
	}
	return query
}

var _ identity.OrganizationRepository = (*GormOrganizationRepository)(nil)
