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

// GormPipelineRepository implements PipelineRepository using GORM
type GormPipelineRepository struct {
	db *gorm.DB
}

// NewGormPipelineRepository creates a new GormPipelineRepository
func NewGormPipelineRepository(db *gorm.DB) *GormPipelineRepository {
	return &GormPipelineRepository{db: db}
}

// FindByID finds a pipeline by ID within an organization
func (r *GormPipelineRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*pipeline.Pipeline, error) {
	var model models.PipelineModel
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

// FindAll finds all pipelines in an organization
func (r *GormPipelineRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]pipeline.Pipeline, error) {
	var pipelineModels []models.PipelineModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PipelineModel{}).Where("org_id = ?", orgID), filter)

	if err := query.Find(&pipelineModels).Error; err != nil {
		return nil, err
	}

	pipelines := make([]pipeline.Pipeline, len(pipelineModels))
	for i, model := range pipelineModels {
		pipelines[i] = *model.ToDomain()
	}
	return pipelines, nil
}

// FindDefault finds the organization's default pipeline
func (r *GormPipelineRepository) FindDefault(ctx context.Context, orgID uuid.UUID) (*pipeline.Pipeline, error) {
	var model models.PipelineModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND is_default = ? AND status = ?", orgID, true, pipeline.PipelineStatusActive).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a pipeline with its stages
func (r *GormPipelineRepository) Save(ctx context.Context, p *pipeline.Pipeline) error {
	model := models.PipelineModelFromDomain(p)
	return saveVersioned(ctx, r.db, model, p.GetVersion())
}

// Count counts pipelines in an organization
func (r *GormPipelineRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.PipelineModel{}).Where("org_id = ?", orgID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByName checks if a pipeline with the given name exists in the organization
func (r *GormPipelineRepository) ExistsByName(ctx context.Context, orgID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PipelineModel{}).
		Where("org_id = ? AND name = ?", orgID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormPipelineRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPagination(query, filter, "created_at ASC")
}

func (r *GormPipelineRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ?", pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "is_default":
			query = query.Where("is_default = ?", value)
		}
	}
	return query
}

var _ pipeline.PipelineRepository = (*GormPipelineRepository)(nil)
