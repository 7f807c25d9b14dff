package persistence

import (
	"context"
	"errors"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAvailabilityRuleRepository implements AvailabilityRuleRepository using GORM
type GormAvailabilityRuleRepository struct {
	db *gorm.DB
}

// NewGormAvailabilityRuleRepository creates a new GormAvailabilityRuleRepository
func NewGormAvailabilityRuleRepository(db *gorm.DB) *GormAvailabilityRuleRepository {
	return &GormAvailabilityRuleRepository{db: db}
}

// FindByID finds a rule by ID within an organization
func (r *GormAvailabilityRuleRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*scheduling.AvailabilityRule, error) {
	var model models.AvailabilityRuleModel
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

// FindAll finds all rules for an organization
func (r *GormAvailabilityRuleRepository) FindAll(ctx context.Context, orgID uuid.UUID) ([]scheduling.AvailabilityRule, error) {
	return r.findWhere(ctx, "org_id = ?", orgID)
}

// FindActive finds the active rules for an organization
func (r *GormAvailabilityRuleRepository) FindActive(ctx context.Context, orgID uuid.UUID) ([]scheduling.AvailabilityRule, error) {
	return r.findWhere(ctx, "org_id = ? AND active = ?", orgID, true)
}

func (r *GormAvailabilityRuleRepository) findWhere(ctx context.Context, cond string, args ...interface{}) ([]scheduling.AvailabilityRule, error) {
	var ruleModels []models.AvailabilityRuleModel
	if err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("kind ASC, weekday ASC, start_minute ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	rules := make([]scheduling.AvailabilityRule, len(ruleModels))
	for i, model := range ruleModels {
		rules[i] = *model.ToDomain()
	}
	return rules, nil
}

// Save creates or updates a rule
func (r *GormAvailabilityRuleRepository) Save(ctx context.Context, rule *scheduling.AvailabilityRule) error {
	model := models.AvailabilityRuleModelFromDomain(rule)
	return saveVersioned(ctx, r.db, model, rule.GetVersion())
}

// Delete removes a rule
func (r *GormAvailabilityRuleRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AvailabilityRuleModel{}, "org_id = ? AND id = ?", orgID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ scheduling.AvailabilityRuleRepository = (*GormAvailabilityRuleRepository)(nil)
