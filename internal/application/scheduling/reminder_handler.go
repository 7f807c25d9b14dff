package scheduling

import (
	"context"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"go.uber.org/zap"
)

// ReminderEventHandler keeps reminders in sync with their event: a cancelled
// event cancels its pending reminders, a rescheduled event shifts their due
// times.
type ReminderEventHandler struct {
	reminderRepo scheduling.ReminderRepository
	logger       *zap.Logger
}

// NewReminderEventHandler creates a new ReminderEventHandler
func NewReminderEventHandler(reminderRepo scheduling.ReminderRepository, logger *zap.Logger) *ReminderEventHandler {
	return &ReminderEventHandler{reminderRepo: reminderRepo, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *ReminderEventHandler) EventTypes() []string {
	return []string{
		scheduling.EventTypeEventCancelled,
		scheduling.EventTypeEventRescheduled,
	}
}

// Handle processes a domain event
func (h *ReminderEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *scheduling.EventCancelledEvent:
		return h.cancelPending(ctx, e)
	case *scheduling.EventRescheduledEvent:
		return h.shiftPending(ctx, e)
	default:
		return nil
	}
}

func (h *ReminderEventHandler) cancelPending(ctx context.Context, e *scheduling.EventCancelledEvent) error {
	reminders, err := h.reminderRepo.FindByEvent(ctx, e.OrgID(), e.AggregateID())
	if err != nil {
		return err
	}
	for i := range reminders {
		r := &reminders[i]
		if r.Status != scheduling.ReminderStatusPending {
			continue
		}
		if err := r.Cancel(); err != nil {
			continue
		}
		if err := h.reminderRepo.Save(ctx, r); err != nil {
			h.logger.Error("Failed to cancel reminder",
				zap.String("reminder_id", r.GetID().String()),
				zap.Error(err))
		}
	}
	return nil
}

func (h *ReminderEventHandler) shiftPending(ctx context.Context, e *scheduling.EventRescheduledEvent) error {
	reminders, err := h.reminderRepo.FindByEvent(ctx, e.OrgID(), e.AggregateID())
	if err != nil {
		return err
	}
	for i := range reminders {
		r := &reminders[i]
		if r.Status != scheduling.ReminderStatusPending {
			continue
		}
		if err := r.Reschedule(e.Current.Start); err != nil {
			continue
		}
		if err := h.reminderRepo.Save(ctx, r); err != nil {
			h.logger.Error("Failed to reschedule reminder",
				zap.String("reminder_id", r.GetID().String()),
				zap.Error(err))
		}
	}
	return nil
}
