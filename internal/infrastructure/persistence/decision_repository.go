package persistence

import (
	"context"
	"errors"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDecisionRepository implements DecisionRepository using GORM
type GormDecisionRepository struct {
	db *gorm.DB
}

// NewGormDecisionRepository creates a new GormDecisionRepository
func NewGormDecisionRepository(db *gorm.DB) *GormDecisionRepository {
	return &GormDecisionRepository{db: db}
}

// FindByID finds a decision by ID within an organization
func (r *GormDecisionRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*agent.AgentDecision, error) {
	var model models.DecisionModel
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

// FindAll finds decisions matching the filter
func (r *GormDecisionRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]agent.AgentDecision, error) {
	var decisionModels []models.DecisionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DecisionModel{}).Where("org_id = ?", orgID), filter)

	if err := query.Find(&decisionModels).Error; err != nil {
		return nil, err
	}

	decisions := make([]agent.AgentDecision, len(decisionModels))
	for i, model := range decisionModels {
		decisions[i] = *model.ToDomain()
	}
	return decisions, nil
}

// Save creates or updates a decision
func (r *GormDecisionRepository) Save(ctx context.Context, d *agent.AgentDecision) error {
	model := models.DecisionModelFromDomain(d)
	return saveVersioned(ctx, r.db, model, d.GetVersion())
}

// Count counts decisions matching the filter
func (r *GormDecisionRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.DecisionModel{}).Where("org_id = ?", orgID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormDecisionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPagination(query, filter, "created_at DESC")
}

func (r *GormDecisionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "kind":
			query = query.Where("kind = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

var _ agent.DecisionRepository = (*GormDecisionRepository)(nil)
