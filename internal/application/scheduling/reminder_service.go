package scheduling

import (
	"context"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReminderService exposes the reminders created alongside events
type ReminderService struct {
	reminderRepo scheduling.ReminderRepository
	logger       *zap.Logger
}

// NewReminderService creates a new ReminderService
func NewReminderService(reminderRepo scheduling.ReminderRepository, logger *zap.Logger) *ReminderService {
	return &ReminderService{reminderRepo: reminderRepo, logger: logger}
}

// ListByEvent retrieves all reminders for an event
func (s *ReminderService) ListByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]ReminderResponse, error) {
	reminders, err := s.reminderRepo.FindByEvent(ctx, orgID, eventID)
	if err != nil {
		return nil, err
	}
	return ToReminderResponses(reminders), nil
}

// Cancel cancels a single pending reminder
func (s *ReminderService) Cancel(ctx context.Context, orgID, reminderID uuid.UUID) (*ReminderResponse, error) {
	reminder, err := s.reminderRepo.FindByID(ctx, orgID, reminderID)
	if err != nil {
		return nil, err
	}
	if err := reminder.Cancel(); err != nil {
		return nil, err
	}
	if err := s.reminderRepo.Save(ctx, reminder); err != nil {
		return nil, err
	}
	response := ToReminderResponse(reminder)
	return &response, nil
}
