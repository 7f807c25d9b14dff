package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEventRepository implements EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// FindByID finds an event by ID within an organization
func (r *GormEventRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*scheduling.SchedulingEvent, error) {
	var model models.EventModel
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

// FindInRange finds events overlapping the half-open range [from, to)
func (r *GormEventRepository) FindInRange(ctx context.Context, orgID uuid.UUID, from, to time.Time, filter shared.Filter) ([]scheduling.SchedulingEvent, error) {
	var eventModels []models.EventModel
	query := r.db.WithContext(ctx).Model(&models.EventModel{}).
		Where("org_id = ? AND start_at < ? AND end_at > ?", orgID, to, from)

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		}
	}
	query = applyPagination(query, filter, "start_at ASC")

	if err := query.Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]scheduling.SchedulingEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

// FindBusyInRange finds tentative and confirmed events overlapping [from, to)
func (r *GormEventRepository) FindBusyInRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]scheduling.SchedulingEvent, error) {
	var eventModels []models.EventModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND start_at < ? AND end_at > ? AND status IN ?",
			orgID, to, from,
			[]scheduling.EventStatus{scheduling.EventStatusTentative, scheduling.EventStatusConfirmed}).
		Order("start_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]scheduling.SchedulingEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

// Save creates or updates an event
func (r *GormEventRepository) Save(ctx context.Context, e *scheduling.SchedulingEvent) error {
	model := models.EventModelFromDomain(e)
	return saveVersioned(ctx, r.db, model, e.GetVersion())
}

// Count counts events matching the filter
func (r *GormEventRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.EventModel{}).Where("org_id = ?", orgID)
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		}
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ scheduling.EventRepository = (*GormEventRepository)(nil)
