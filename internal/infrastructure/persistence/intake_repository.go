package persistence

import (
	"context"
	"errors"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIntakeRepository implements IntakeRepository using GORM
type GormIntakeRepository struct {
	db *gorm.DB
}

// NewGormIntakeRepository creates a new GormIntakeRepository
func NewGormIntakeRepository(db *gorm.DB) *GormIntakeRepository {
	return &GormIntakeRepository{db: db}
}

// FindByID finds an intake request by ID within an organization
func (r *GormIntakeRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*pipeline.IntakeRequest, error) {
	var model models.IntakeRequestModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds intake requests matching the filter
func (r *GormIntakeRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]pipeline.IntakeRequest, error) {
	var requestModels []models.IntakeRequestModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.IntakeRequestModel{}).Where("org_id = ?", orgID), filter)

	if err := query.Find(&requestModels).Error; err != nil {
		return nil, err
	}

	requests := make([]pipeline.IntakeRequest, len(requestModels))
	for i, model := range requestModels {
		requests[i] = *model.ToDomain()
	}
	return requests, nil
}

// Save creates or updates an intake request
func (r *GormIntakeRepository) Save(ctx context.Context, req *pipeline.IntakeRequest) error {
	model := models.IntakeRequestModelFromDomain(req)
	return saveVersioned(ctx, r.db, model, req.GetVersion())
}

// Count counts intake requests matching the filter
func (r *GormIntakeRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.IntakeRequestModel{}).Where("org_id = ?", orgID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormIntakeRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPagination(query, filter, "created_at DESC")
}

func (r *GormIntakeRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR company ILIKE ?", pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		}
	}
	return query
}

var _ pipeline.IntakeRepository = (*GormIntakeRepository)(nil)
