package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	schedulingapp "github.com/astralisone/platform/internal/application/scheduling"
)

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

type chatFixture struct {
	client       *fakeLLM
	eventRepo    *MockEventRepository
	ruleRepo     *MockRuleRepository
	reminderRepo *MockReminderRepository
	decisionRepo *MockDecisionRepository
	logRepo      *fakeLogRepo
	chat         *CalendarChat
	orgID        uuid.UUID
}

func newChatFixture(t *testing.T, client *fakeLLM) *chatFixture {
	t.Helper()
	f := &chatFixture{
		client:       client,
		eventRepo:    new(MockEventRepository),
		ruleRepo:     new(MockRuleRepository),
		reminderRepo: new(MockReminderRepository),
		decisionRepo: new(MockDecisionRepository),
		logRepo:      &fakeLogRepo{},
		orgID:        uuid.New(),
	}
	events := schedulingapp.NewEventService(f.eventRepo, f.ruleRepo, f.reminderRepo, stubPublisher{}, zap.NewNop())
	availability := schedulingapp.NewAvailabilityService(f.ruleRepo, f.eventRepo, zap.NewNop())
	logService := NewLogService(f.logRepo, zap.NewNop())
	f.chat = NewCalendarChat(client, events, availability, f.decisionRepo, logService, testAgentConfig(), zap.NewNop())
	return f
}

func toolCall(id, name, arguments string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: "function",
		Function: llm.ToolCallFunction{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func TestCalendarChat_PlainAnswer(t *testing.T) {
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{Content: "You have nothing scheduled tomorrow.", FinishReason: "stop"},
	}}
	f := newChatFixture(t, client)

	resp, err := f.chat.Chat(context.Background(), f.orgID, ChatRequest{Message: "Am I free tomorrow?"})

	require.NoError(t, err)
	assert.Equal(t, "You have nothing scheduled tomorrow.", resp.Message)
	assert.Empty(t, resp.ToolsUsed)
	require.Len(t, client.requests, 1)
	assert.Equal(t, "system", client.requests[0].Messages[0].Role)
}

func TestCalendarChat_ToolLoop(t *testing.T) {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	argsJSON, _ := json.Marshal(map[string]string{
		"start_at": start.Format(time.RFC3339),
		"end_at":   start.Add(time.Hour).Format(time.RFC3339),
	})
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", toolCheckConflicts, string(argsJSON))}},
		{Content: "That slot is free.", FinishReason: "stop"},
	}}
	f := newChatFixture(t, client)
	f.eventRepo.On("FindBusyInRange", mock.Anything, f.orgID, mock.Anything, mock.Anything).Return([]scheduling.SchedulingEvent{}, nil)

	resp, err := f.chat.Chat(context.Background(), f.orgID, ChatRequest{Message: "Is 2pm free?"})

	require.NoError(t, err)
	assert.Equal(t, "That slot is free.", resp.Message)
	assert.Equal(t, []string{toolCheckConflicts}, resp.ToolsUsed)

	// the tool result was fed back to the model
	require.Len(t, client.requests, 2)
	last := client.requests[1].Messages[len(client.requests[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Contains(t, last.Content, "has_conflict")
}

func TestCalendarChat_MalformedToolArgs(t *testing.T) {
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", toolCheckConflicts, `{"start_at": "not a time"`)}},
		{Content: "Sorry, I stumbled over my own arguments.", FinishReason: "stop"},
	}}
	f := newChatFixture(t, client)

	resp, err := f.chat.Chat(context.Background(), f.orgID, ChatRequest{Message: "check it"})

	require.NoError(t, err)
	assert.Equal(t, "Sorry, I stumbled over my own arguments.", resp.Message)

	last := client.requests[1].Messages[len(client.requests[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Contains(t, last.Content, "error")
}

func TestCalendarChat_UnknownToolSurfacesAsError(t *testing.T) {
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "delete_everything", `{}`)}},
		{Content: "I cannot do that.", FinishReason: "stop"},
	}}
	f := newChatFixture(t, client)

	resp, err := f.chat.Chat(context.Background(), f.orgID, ChatRequest{Message: "wipe my calendar"})

	require.NoError(t, err)
	assert.Equal(t, "I cannot do that.", resp.Message)
	last := client.requests[1].Messages[len(client.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "unknown tool")
}

func TestCalendarChat_IterationCap(t *testing.T) {
	// the model keeps asking for the same tool forever
	call := toolCall("call_n", toolListEvents, `{"from": "2026-09-01T00:00:00Z", "to": "2026-09-08T00:00:00Z"}`)
	responses := make([]*llm.CompletionResponse, 8)
	for i := range responses {
		responses[i] = &llm.CompletionResponse{ToolCalls: []llm.ToolCall{call}}
	}
	client := &fakeLLM{responses: responses}
	f := newChatFixture(t, client)
	f.eventRepo.On("FindInRange", mock.Anything, f.orgID, mock.Anything, mock.Anything, mock.Anything).Return([]scheduling.SchedulingEvent{}, nil)

	resp, err := f.chat.Chat(context.Background(), f.orgID, ChatRequest{Message: "loop forever"})

	require.NoError(t, err)
	assert.Len(t, client.requests, 4) // MaxToolIterations from testAgentConfig
	assert.True(t, strings.Contains(resp.Message, "step budget"))
}

func TestCalendarChat_CreateEventRecordsDecision(t *testing.T) {
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	argsJSON, _ := json.Marshal(map[string]interface{}{
		"title":    "Intro call",
		"start_at": start.Format(time.RFC3339),
		"end_at":   start.Add(30 * time.Minute).Format(time.RFC3339),
	})
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", toolCreateEvent, string(argsJSON))}},
		{Content: "Booked the intro call.", FinishReason: "stop"},
	}}
	f := newChatFixture(t, client)
	f.eventRepo.On("FindBusyInRange", mock.Anything, f.orgID, mock.Anything, mock.Anything).Return([]scheduling.SchedulingEvent{}, nil)
	f.eventRepo.On("Save", mock.Anything, mock.AnythingOfType("*scheduling.SchedulingEvent")).Return(nil)
	f.reminderRepo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)
	var statuses []agent.DecisionStatus
	f.decisionRepo.On("Save", mock.Anything, mock.AnythingOfType("*agent.AgentDecision")).Run(func(args mock.Arguments) {
		statuses = append(statuses, args.Get(1).(*agent.AgentDecision).Status)
	}).Return(nil)

	resp, err := f.chat.Chat(context.Background(), f.orgID, ChatRequest{Message: "book an intro call"})

	require.NoError(t, err)
	assert.Equal(t, "Booked the intro call.", resp.Message)
	require.Len(t, resp.DecisionIDs, 1)
	require.Len(t, resp.Events, 1)
	// the proposal is inserted first, then updated to executed
	require.Equal(t, []agent.DecisionStatus{agent.DecisionStatusProposed, agent.DecisionStatusExecuted}, statuses)
}

func TestCalendarChat_ModelUnavailable(t *testing.T) {
	client := &fakeLLM{errs: []error{llm.ErrUnavailable}}
	f := newChatFixture(t, client)

	_, err := f.chat.Chat(context.Background(), f.orgID, ChatRequest{Message: "hello"})

	require.Error(t, err)
	assert.Equal(t, shared.ErrAgentUnavailable, err)
	// the failure leaves an agent log row behind
	require.NotEmpty(t, f.logRepo.rows)
}
