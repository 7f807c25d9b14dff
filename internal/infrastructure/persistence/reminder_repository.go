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

// GormReminderRepository implements ReminderRepository using GORM
type GormReminderRepository struct {
	db *gorm.DB
}

// NewGormReminderRepository creates a new GormReminderRepository
func NewGormReminderRepository(db *gorm.DB) *GormReminderRepository {
	return &GormReminderRepository{db: db}
}

// FindByID finds a reminder by ID within an organization
func (r *GormReminderRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*scheduling.EventReminder, error) {
	var model models.ReminderModel
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

// FindByEvent finds all reminders for an event
func (r *GormReminderRepository) FindByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]scheduling.EventReminder, error) {
	var reminderModels []models.ReminderModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND event_id = ?", orgID, eventID).
		Order("due_at ASC").
		Find(&reminderModels).Error; err != nil {
		return nil, err
	}

	reminders := make([]scheduling.EventReminder, len(reminderModels))
	for i, model := range reminderModels {
		reminders[i] = *model.ToDomain()
	}
	return reminders, nil
}

// FindDue finds pending reminders due at or before now, across all
// organizations, oldest first
func (r *GormReminderRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]scheduling.EventReminder, error) {
	if limit <= 0 {
		limit = 100
	}
	var reminderModels []models.ReminderModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due_at <= ?", scheduling.ReminderStatusPending, now).
		Order("due_at ASC").
		Limit(limit).
		Find(&reminderModels).Error; err != nil {
		return nil, err
	}

	reminders := make([]scheduling.EventReminder, len(reminderModels))
	for i, model := range reminderModels {
		reminders[i] = *model.ToDomain()
	}
	return reminders, nil
}

// Save creates or updates a reminder
func (r *GormReminderRepository) Save(ctx context.Context, reminder *scheduling.EventReminder) error {
	model := models.ReminderModelFromDomain(reminder)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of reminders
func (r *GormReminderRepository) SaveAll(ctx context.Context, reminders []*scheduling.EventReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	reminderModels := make([]*models.ReminderModel, len(reminders))
	for i, reminder := range reminders {
		reminderModels[i] = models.ReminderModelFromDomain(reminder)
	}
	return r.db.WithContext(ctx).Save(reminderModels).Error
}

var _ scheduling.ReminderRepository = (*GormReminderRepository)(nil)
