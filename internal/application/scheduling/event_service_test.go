package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEventRepository is a mock implementation of scheduling.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*scheduling.SchedulingEvent, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduling.SchedulingEvent), args.Error(1)
}

func (m *MockEventRepository) FindInRange(ctx context.Context, orgID uuid.UUID, from, to time.Time, filter shared.Filter) ([]scheduling.SchedulingEvent, error) {
	args := m.Called(ctx, orgID, from, to, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scheduling.SchedulingEvent), args.Error(1)
}

func (m *MockEventRepository) FindBusyInRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]scheduling.SchedulingEvent, error) {
	args := m.Called(ctx, orgID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scheduling.SchedulingEvent), args.Error(1)
}

func (m *MockEventRepository) Save(ctx context.Context, e *scheduling.SchedulingEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockRuleRepository is a mock implementation of scheduling.AvailabilityRuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*scheduling.AvailabilityRule, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduling.AvailabilityRule), args.Error(1)
}

func (m *MockRuleRepository) FindAll(ctx context.Context, orgID uuid.UUID) ([]scheduling.AvailabilityRule, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scheduling.AvailabilityRule), args.Error(1)
}

func (m *MockRuleRepository) FindActive(ctx context.Context, orgID uuid.UUID) ([]scheduling.AvailabilityRule, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scheduling.AvailabilityRule), args.Error(1)
}

func (m *MockRuleRepository) Save(ctx context.Context, r *scheduling.AvailabilityRule) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

// MockReminderRepository is a mock implementation of scheduling.ReminderRepository
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*scheduling.EventReminder, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduling.EventReminder), args.Error(1)
}

func (m *MockReminderRepository) FindByEvent(ctx context.Context, orgID, eventID uuid.UUID) ([]scheduling.EventReminder, error) {
	args := m.Called(ctx, orgID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scheduling.EventReminder), args.Error(1)
}

func (m *MockReminderRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]scheduling.EventReminder, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scheduling.EventReminder), args.Error(1)
}

func (m *MockReminderRepository) Save(ctx context.Context, r *scheduling.EventReminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReminderRepository) SaveAll(ctx context.Context, reminders []*scheduling.EventReminder) error {
	args := m.Called(ctx, reminders)
	return args.Error(0)
}

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

func newEventService(eventRepo *MockEventRepository, ruleRepo *MockRuleRepository, reminderRepo *MockReminderRepository) *EventService {
	return NewEventService(eventRepo, ruleRepo, reminderRepo, stubPublisher{}, zap.NewNop())
}

func busyEvent(t *testing.T, orgID uuid.UUID, title string, start time.Time, duration time.Duration) scheduling.SchedulingEvent {
	t.Helper()
	e, err := scheduling.NewSchedulingEvent(orgID, title, "", start, start.Add(duration), "", nil, scheduling.EventSourceManual)
	require.NoError(t, err)
	e.ClearDomainEvents()
	return *e
}

func TestEventService_Create(t *testing.T) {
	orgID := uuid.New()
	eventRepo := new(MockEventRepository)
	ruleRepo := new(MockRuleRepository)
	reminderRepo := new(MockReminderRepository)
	service := newEventService(eventRepo, ruleRepo, reminderRepo)

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	eventRepo.On("FindBusyInRange", mock.Anything, orgID, start, start.Add(time.Hour)).Return([]scheduling.SchedulingEvent{}, nil)
	eventRepo.On("Save", mock.Anything, mock.AnythingOfType("*scheduling.SchedulingEvent")).Return(nil)
	reminderRepo.On("SaveAll", mock.Anything, mock.AnythingOfType("[]*scheduling.EventReminder")).Return(nil)

	resp, err := service.Create(context.Background(), orgID, CreateEventRequest{
		Title:   "Planning sync",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, string(scheduling.EventStatusTentative), resp.Status)
	assert.Equal(t, string(scheduling.EventSourceManual), resp.Source)
	reminderRepo.AssertCalled(t, "SaveAll", mock.Anything, mock.AnythingOfType("[]*scheduling.EventReminder"))
}

func TestEventService_Create_ConflictRejected(t *testing.T) {
	orgID := uuid.New()
	eventRepo := new(MockEventRepository)
	ruleRepo := new(MockRuleRepository)
	service := newEventService(eventRepo, ruleRepo, new(MockReminderRepository))

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	existing := busyEvent(t, orgID, "Standup", start.Add(30*time.Minute), time.Hour)

	eventRepo.On("FindBusyInRange", mock.Anything, orgID, start, start.Add(time.Hour)).Return([]scheduling.SchedulingEvent{existing}, nil)
	ruleRepo.On("FindActive", mock.Anything, orgID).Return([]scheduling.AvailabilityRule{}, nil)

	_, err := service.Create(context.Background(), orgID, CreateEventRequest{
		Title:   "Overlapping call",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	})

	require.Error(t, err)
	conflictErr, ok := err.(*ConflictError)
	require.True(t, ok)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, "Standup", conflictErr.Conflicts[0].Title)
	assert.Equal(t, "SCHEDULE_CONFLICT", conflictErr.Code())
	eventRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEventService_Create_ForcedOverridesConflict(t *testing.T) {
	orgID := uuid.New()
	eventRepo := new(MockEventRepository)
	reminderRepo := new(MockReminderRepository)
	service := newEventService(eventRepo, new(MockRuleRepository), reminderRepo)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	eventRepo.On("Save", mock.Anything, mock.AnythingOfType("*scheduling.SchedulingEvent")).Return(nil)
	reminderRepo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	resp, err := service.Create(context.Background(), orgID, CreateEventRequest{
		Title:   "Double booked on purpose",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
		Force:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, string(scheduling.EventStatusTentative), resp.Status)
	eventRepo.AssertNotCalled(t, "FindBusyInRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEventService_Create_BackToBackIsNotAConflict(t *testing.T) {
	orgID := uuid.New()
	eventRepo := new(MockEventRepository)
	reminderRepo := new(MockReminderRepository)
	service := newEventService(eventRepo, new(MockRuleRepository), reminderRepo)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	adjacent := busyEvent(t, orgID, "Earlier meeting", start.Add(-time.Hour), time.Hour)

	eventRepo.On("FindBusyInRange", mock.Anything, orgID, start, start.Add(time.Hour)).Return([]scheduling.SchedulingEvent{adjacent}, nil)
	eventRepo.On("Save", mock.Anything, mock.AnythingOfType("*scheduling.SchedulingEvent")).Return(nil)
	reminderRepo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	_, err := service.Create(context.Background(), orgID, CreateEventRequest{
		Title:   "Right after",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	})

	require.NoError(t, err)
}

func TestEventService_Reschedule_ExcludesSelf(t *testing.T) {
	orgID := uuid.New()
	eventRepo := new(MockEventRepository)
	service := newEventService(eventRepo, new(MockRuleRepository), new(MockReminderRepository))

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	event, err := scheduling.NewSchedulingEvent(orgID, "Review", "", start, start.Add(time.Hour), "", nil, scheduling.EventSourceManual)
	require.NoError(t, err)
	event.ClearDomainEvents()

	newStart := start.Add(30 * time.Minute)
	eventRepo.On("FindByID", mock.Anything, orgID, event.GetID()).Return(event, nil)
	// the only busy event in range is the one being moved
	eventRepo.On("FindBusyInRange", mock.Anything, orgID, newStart, newStart.Add(time.Hour)).Return([]scheduling.SchedulingEvent{*event}, nil)
	eventRepo.On("Save", mock.Anything, event).Return(nil)

	resp, err := service.Reschedule(context.Background(), orgID, event.GetID(), RescheduleEventRequest{
		StartAt: newStart,
		EndAt:   newStart.Add(time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, newStart, resp.StartAt)
}

func TestEventService_CancelCompletedRefused(t *testing.T) {
	orgID := uuid.New()
	eventRepo := new(MockEventRepository)
	service := newEventService(eventRepo, new(MockRuleRepository), new(MockReminderRepository))

	start := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Hour)
	event, err := scheduling.NewSchedulingEvent(orgID, "Done already", "", start, start.Add(time.Hour), "", nil, scheduling.EventSourceManual)
	require.NoError(t, err)
	require.NoError(t, event.Confirm())
	require.NoError(t, event.Complete())
	event.ClearDomainEvents()

	eventRepo.On("FindByID", mock.Anything, orgID, event.GetID()).Return(event, nil)

	_, err = service.Cancel(context.Background(), orgID, event.GetID())

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestReminderEventHandler_CancelsPendingReminders(t *testing.T) {
	orgID := uuid.New()
	reminderRepo := new(MockReminderRepository)
	handler := NewReminderEventHandler(reminderRepo, zap.NewNop())

	start := time.Now().UTC().Add(48 * time.Hour)
	event, err := scheduling.NewSchedulingEvent(orgID, "Cancelled later", "", start, start.Add(time.Hour), "", nil, scheduling.EventSourceManual)
	require.NoError(t, err)

	pending, err := scheduling.NewEventReminder(orgID, event.GetID(), start, 30*time.Minute)
	require.NoError(t, err)
	sent, err := scheduling.NewEventReminder(orgID, event.GetID(), start, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, sent.MarkSent(time.Now()))

	reminderRepo.On("FindByEvent", mock.Anything, orgID, event.GetID()).Return([]scheduling.EventReminder{*pending, *sent}, nil)
	reminderRepo.On("Save", mock.Anything, mock.MatchedBy(func(r *scheduling.EventReminder) bool {
		return r.Status == scheduling.ReminderStatusCancelled
	})).Return(nil)

	err = handler.Handle(context.Background(), scheduling.NewEventCancelledEvent(event.GetID(), orgID))

	require.NoError(t, err)
	reminderRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestReminderEventHandler_ShiftsPendingOnReschedule(t *testing.T) {
	orgID := uuid.New()
	reminderRepo := new(MockReminderRepository)
	handler := NewReminderEventHandler(reminderRepo, zap.NewNop())

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	eventID := uuid.New()
	reminder, err := scheduling.NewEventReminder(orgID, eventID, start, 30*time.Minute)
	require.NoError(t, err)

	newStart := start.Add(2 * time.Hour)
	reminderRepo.On("FindByEvent", mock.Anything, orgID, eventID).Return([]scheduling.EventReminder{*reminder}, nil)
	reminderRepo.On("Save", mock.Anything, mock.MatchedBy(func(r *scheduling.EventReminder) bool {
		return r.DueAt.Equal(newStart.Add(-30 * time.Minute))
	})).Return(nil)

	err = handler.Handle(context.Background(), scheduling.NewEventRescheduledEvent(eventID, orgID,
		scheduling.Interval{Start: start, End: start.Add(time.Hour)},
		scheduling.Interval{Start: newStart, End: newStart.Add(time.Hour)}))

	require.NoError(t, err)
	reminderRepo.AssertNumberOfCalls(t, "Save", 1)
}
