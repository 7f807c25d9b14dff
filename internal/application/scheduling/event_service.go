package scheduling

import (
	"context"
	"time"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// conflictHorizonDays bounds how far ahead alternatives are searched when a
// proposal conflicts.
const conflictHorizonDays = 7

// EventService handles calendar events, conflict detection and the reminders
// created alongside events.
type EventService struct {
	eventRepo    scheduling.EventRepository
	ruleRepo     scheduling.AvailabilityRuleRepository
	reminderRepo scheduling.ReminderRepository
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewEventService creates a new EventService
func NewEventService(
	eventRepo scheduling.EventRepository,
	ruleRepo scheduling.AvailabilityRuleRepository,
	reminderRepo scheduling.ReminderRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		eventRepo:    eventRepo,
		ruleRepo:     ruleRepo,
		reminderRepo: reminderRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Create schedules an event. Unless forced, a proposal overlapping busy
// events is rejected with the conflict list and nearby free alternatives.
func (s *EventService) Create(ctx context.Context, orgID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	proposed := scheduling.Interval{Start: req.StartAt, End: req.EndAt}
	if !req.Force {
		if err := s.rejectOnConflict(ctx, orgID, proposed, uuid.Nil); err != nil {
			return nil, err
		}
	}

	event, err := scheduling.NewSchedulingEvent(orgID, req.Title, req.Description, req.StartAt, req.EndAt, req.Location, req.Attendees, scheduling.EventSource(req.Source))
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, event)
	s.createReminders(ctx, event)

	s.logger.Info("Event scheduled",
		zap.String("event_id", event.GetID().String()),
		zap.Time("start_at", event.StartAt),
		zap.String("org_id", orgID.String()))

	response := ToEventResponse(event)
	return &response, nil
}

// GetByID retrieves an event by ID
func (s *EventService) GetByID(ctx context.Context, orgID, eventID uuid.UUID) (*EventResponse, error) {
	event, err := s.eventRepo.FindByID(ctx, orgID, eventID)
	if err != nil {
		return nil, err
	}
	response := ToEventResponse(event)
	return &response, nil
}

// List retrieves events overlapping the requested range
func (s *EventService) List(ctx context.Context, orgID uuid.UUID, filter EventListFilter) ([]EventResponse, error) {
	from := filter.From
	to := filter.To
	if from.IsZero() {
		from = time.Now().UTC()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 30)
	}
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "range end must be after range start")
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Source != "" {
		domainFilter.Filters["source"] = filter.Source
	}

	events, err := s.eventRepo.FindInRange(ctx, orgID, from, to, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToEventResponses(events), nil
}

// Update changes an event's title, description, location and attendees
func (s *EventService) Update(ctx context.Context, orgID, eventID uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	event, err := s.eventRepo.FindByID(ctx, orgID, eventID)
	if err != nil {
		return nil, err
	}

	title := event.Title
	if req.Title != nil {
		title = *req.Title
	}
	description := event.Description
	if req.Description != nil {
		description = *req.Description
	}
	location := event.Location
	if req.Location != nil {
		location = *req.Location
	}
	attendees := event.Attendees
	if req.Attendees != nil {
		attendees = req.Attendees
	}
	if err := event.Update(title, description, location, attendees); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, err
	}
	response := ToEventResponse(event)
	return &response, nil
}

// Reschedule moves an event to a new interval. Conflict checking excludes
// the event itself; pending reminders shift with the event.
func (s *EventService) Reschedule(ctx context.Context, orgID, eventID uuid.UUID, req RescheduleEventRequest) (*EventResponse, error) {
	event, err := s.eventRepo.FindByID(ctx, orgID, eventID)
	if err != nil {
		return nil, err
	}

	proposed := scheduling.Interval{Start: req.StartAt, End: req.EndAt}
	if !req.Force {
		if err := s.rejectOnConflict(ctx, orgID, proposed, event.GetID()); err != nil {
			return nil, err
		}
	}

	if err := event.Reschedule(req.StartAt, req.EndAt); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, event)

	response := ToEventResponse(event)
	return &response, nil
}

// Confirm marks a tentative event confirmed
func (s *EventService) Confirm(ctx context.Context, orgID, eventID uuid.UUID) (*EventResponse, error) {
	return s.transition(ctx, orgID, eventID, func(e *scheduling.SchedulingEvent) error {
		return e.Confirm()
	})
}

// Cancel cancels an event. The cancellation event fans out to the reminder
// handler which cancels the event's pending reminders.
func (s *EventService) Cancel(ctx context.Context, orgID, eventID uuid.UUID) (*EventResponse, error) {
	return s.transition(ctx, orgID, eventID, func(e *scheduling.SchedulingEvent) error {
		return e.Cancel()
	})
}

// Complete marks a past event completed
func (s *EventService) Complete(ctx context.Context, orgID, eventID uuid.UUID) (*EventResponse, error) {
	return s.transition(ctx, orgID, eventID, func(e *scheduling.SchedulingEvent) error {
		return e.Complete()
	})
}

// CheckConflicts reports the busy events overlapping the given interval
func (s *EventService) CheckConflicts(ctx context.Context, orgID uuid.UUID, req ConflictCheckRequest) (*ConflictCheckResponse, error) {
	proposed := scheduling.Interval{Start: req.StartAt, End: req.EndAt}
	if !proposed.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "interval end must be after its start")
	}
	conflicts, err := s.findConflicts(ctx, orgID, proposed, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return &ConflictCheckResponse{
		HasConflict: len(conflicts) > 0,
		Conflicts:   ToEventResponses(conflicts),
	}, nil
}

func (s *EventService) findConflicts(ctx context.Context, orgID uuid.UUID, proposed scheduling.Interval, exclude uuid.UUID) ([]scheduling.SchedulingEvent, error) {
	busy, err := s.eventRepo.FindBusyInRange(ctx, orgID, proposed.Start, proposed.End)
	if err != nil {
		return nil, err
	}
	if exclude != uuid.Nil {
		filtered := busy[:0]
		for _, e := range busy {
			if e.GetID() != exclude {
				filtered = append(filtered, e)
			}
		}
		busy = filtered
	}
	return scheduling.FindConflicts(proposed, busy), nil
}

// rejectOnConflict returns a ConflictError with alternatives when the
// proposal overlaps busy events.
func (s *EventService) rejectOnConflict(ctx context.Context, orgID uuid.UUID, proposed scheduling.Interval, exclude uuid.UUID) error {
	if !proposed.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "interval end must be after its start")
	}
	conflicts, err := s.findConflicts(ctx, orgID, proposed, exclude)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	alternatives := s.suggestAlternatives(ctx, orgID, proposed)
	return &ConflictError{
		Conflicts:    ToEventResponses(conflicts),
		Alternatives: alternatives,
	}
}

func (s *EventService) suggestAlternatives(ctx context.Context, orgID uuid.UUID, proposed scheduling.Interval) []SlotResponse {
	rules, err := s.ruleRepo.FindActive(ctx, orgID)
	if err != nil || len(rules) == 0 {
		return nil
	}
	horizon := proposed.Start.AddDate(0, 0, conflictHorizonDays)
	busy, err := s.eventRepo.FindBusyInRange(ctx, orgID, proposed.Start.AddDate(0, 0, -1), horizon)
	if err != nil {
		return nil
	}
	slots, err := scheduling.ResolveConflicts(proposed, conflictHorizonDays, rules, busy)
	if err != nil {
		return nil
	}
	return ToSlotResponses(slots)
}

// createReminders persists the default reminders for a new event. Reminder
// creation failing never fails the event itself.
func (s *EventService) createReminders(ctx context.Context, event *scheduling.SchedulingEvent) {
	reminders := scheduling.RemindersForEvent(event, time.Now().UTC())
	if len(reminders) == 0 {
		return
	}
	if err := s.reminderRepo.SaveAll(ctx, reminders); err != nil {
		s.logger.Error("Failed to create event reminders",
			zap.String("event_id", event.GetID().String()),
			zap.Error(err))
	}
}

func (s *EventService) transition(ctx context.Context, orgID, eventID uuid.UUID, fn func(*scheduling.SchedulingEvent) error) (*EventResponse, error) {
	event, err := s.eventRepo.FindByID(ctx, orgID, eventID)
	if err != nil {
		return nil, err
	}
	if err := fn(event); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, event)

	response := ToEventResponse(event)
	return &response, nil
}

func (s *EventService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}
