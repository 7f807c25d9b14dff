package agent

import (
	"context"
	"testing"
	"time"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/astralisone/platform/internal/infrastructure/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLLM replays scripted completions and records the requests it got
type fakeLLM struct {
	responses []*llm.CompletionResponse
	errs      []error
	requests  []llm.CompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &llm.CompletionResponse{Content: "done", FinishReason: "stop"}, nil
}

// MockIntakeRepository is a mock implementation of pipeline.IntakeRepository
type MockIntakeRepository struct {
	mock.Mock
}

func (m *MockIntakeRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*pipeline.IntakeRequest, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.IntakeRequest), args.Error(1)
}

func (m *MockIntakeRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]pipeline.IntakeRequest, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pipeline.IntakeRequest), args.Error(1)
}

func (m *MockIntakeRepository) Save(ctx context.Context, r *pipeline.IntakeRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockIntakeRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockPipelineRepository is a mock implementation of pipeline.PipelineRepository
type MockPipelineRepository struct {
	mock.Mock
}

func (m *MockPipelineRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*pipeline.Pipeline, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]pipeline.Pipeline, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pipeline.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) FindDefault(ctx context.Context, orgID uuid.UUID) (*pipeline.Pipeline, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Pipeline), args.Error(1)
}

func (m *MockPipelineRepository) Save(ctx context.Context, p *pipeline.Pipeline) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPipelineRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPipelineRepository) ExistsByName(ctx context.Context, orgID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, orgID, name)
	return args.Bool(0), args.Error(1)
}

// MockDecisionRepository is a mock implementation of agent.DecisionRepository
type MockDecisionRepository struct {
	mock.Mock
}

func (m *MockDecisionRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*agent.AgentDecision, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.AgentDecision), args.Error(1)
}

func (m *MockDecisionRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]agent.AgentDecision, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]agent.AgentDecision), args.Error(1)
}

func (m *MockDecisionRepository) Save(ctx context.Context, d *agent.AgentDecision) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDecisionRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// fakeLogRepo collects appended rows in memory
type fakeLogRepo struct {
	rows []*agent.AgentLog
}

func (f *fakeLogRepo) Append(_ context.Context, logs ...*agent.AgentLog) error {
	f.rows = append(f.rows, logs...)
	return nil
}

func (f *fakeLogRepo) Query(_ context.Context, _ uuid.UUID, q agent.LogQuery, _ shared.Filter) ([]agent.AgentLog, error) {
	var out []agent.AgentLog
	for _, r := range f.rows {
		if f.matches(r, q) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) Count(_ context.Context, _ uuid.UUID, q agent.LogQuery) (int64, error) {
	var n int64
	for _, r := range f.rows {
		if f.matches(r, q) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLogRepo) matches(r *agent.AgentLog, q agent.LogQuery) bool {
	if q.Level != "" && r.Level != q.Level {
		return false
	}
	if q.Category != "" && r.Category != q.Category {
		return false
	}
	return true
}

func (f *fakeLogRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

func testAgentConfig() config.AgentConfig {
	return config.AgentConfig{MaxToolIterations: 4, MinConfidence: 0.6, LogRetention: time.Hour}
}

type classifierFixture struct {
	client       *fakeLLM
	intakeRepo   *MockIntakeRepository
	pipelineRepo *MockPipelineRepository
	decisionRepo *MockDecisionRepository
	logRepo      *fakeLogRepo
	classifier   *IntakeClassifier
	orgID        uuid.UUID
	intake       *pipeline.IntakeRequest
	sales        *pipeline.Pipeline
	fallbackPipe *pipeline.Pipeline
}

func newClassifierFixture(t *testing.T, client *fakeLLM) *classifierFixture {
	t.Helper()
	orgID := uuid.New()

	sales, err := pipeline.NewPipeline(orgID, "Sales", "", nil)
	require.NoError(t, err)
	sales.ClearDomainEvents()

	inbox, err := pipeline.NewPipeline(orgID, "General Inbox", "", nil)
	require.NoError(t, err)
	inbox.MarkDefault()
	inbox.ClearDomainEvents()

	intake, err := pipeline.NewIntakeRequest(orgID, "Dana Reyes", "dana@example.com", "Example Co", "We want a demo of the sales product", "web")
	require.NoError(t, err)
	intake.ClearDomainEvents()

	f := &classifierFixture{
		client:       client,
		intakeRepo:   new(MockIntakeRepository),
		pipelineRepo: new(MockPipelineRepository),
		decisionRepo: new(MockDecisionRepository),
		logRepo:      &fakeLogRepo{},
		orgID:        orgID,
		intake:       intake,
		sales:        sales,
		fallbackPipe: inbox,
	}
	logService := NewLogService(f.logRepo, zap.NewNop())
	f.classifier = NewIntakeClassifier(client, f.intakeRepo, f.pipelineRepo, f.decisionRepo, logService, stubPublisher{}, testAgentConfig(), zap.NewNop())

	f.intakeRepo.On("FindByID", mock.Anything, orgID, intake.GetID()).Return(intake, nil)
	f.intakeRepo.On("Save", mock.Anything, intake).Return(nil)
	f.pipelineRepo.On("FindAll", mock.Anything, orgID, mock.Anything).Return([]pipeline.Pipeline{*sales, *inbox}, nil)
	f.decisionRepo.On("Save", mock.Anything, mock.AnythingOfType("*agent.AgentDecision")).Return(nil)
	return f
}

func TestIntakeClassifier_RoutesToNamedPipeline(t *testing.T) {
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{Content: `{"pipeline": "Sales", "priority": "high", "confidence": 0.92, "rationale": "demo request"}`},
	}}
	f := newClassifierFixture(t, client)

	resp, err := f.classifier.Classify(context.Background(), f.orgID, f.intake.GetID())

	require.NoError(t, err)
	assert.Equal(t, f.sales.GetID(), resp.PipelineID)
	assert.Equal(t, "high", resp.Priority)
	assert.False(t, resp.Fallback)
	assert.Equal(t, string(agent.DecisionStatusExecuted), resp.Status)
	assert.Equal(t, pipeline.IntakeStatusTriaged, f.intake.Status)
	require.NotNil(t, f.intake.PipelineID)
	assert.Equal(t, f.sales.GetID(), *f.intake.PipelineID)
}

func TestIntakeClassifier_LowConfidenceParksForReview(t *testing.T) {
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{Content: `{"pipeline": "Sales", "priority": "low", "confidence": 0.3, "rationale": "not sure"}`},
	}}
	f := newClassifierFixture(t, client)

	resp, err := f.classifier.Classify(context.Background(), f.orgID, f.intake.GetID())

	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.Equal(t, f.fallbackPipe.GetID(), resp.PipelineID)
	assert.Equal(t, string(agent.DecisionStatusProposed), resp.Status)
	// the intake waits for a human to approve the decision
	assert.Equal(t, pipeline.IntakeStatusNew, f.intake.Status)
	f.intakeRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestIntakeClassifier_ModelUnavailableParksForReview(t *testing.T) {
	client := &fakeLLM{errs: []error{llm.ErrUnavailable}}
	f := newClassifierFixture(t, client)

	resp, err := f.classifier.Classify(context.Background(), f.orgID, f.intake.GetID())

	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.Equal(t, f.fallbackPipe.GetID(), resp.PipelineID)
	assert.Equal(t, string(agent.DecisionStatusProposed), resp.Status)
	assert.Equal(t, pipeline.IntakeStatusNew, f.intake.Status)
	// the degradation leaves an agent log row behind
	require.NotEmpty(t, f.logRepo.rows)
	assert.Equal(t, agent.LogCategoryClassification, f.logRepo.rows[0].Category)
}

func TestIntakeClassifier_MarkdownFencedReply(t *testing.T) {
	client := &fakeLLM{responses: []*llm.CompletionResponse{
		{Content: "```json\n{\"pipeline\": \"Sales\", \"priority\": \"medium\", \"confidence\": 0.8, \"rationale\": \"ok\"}\n```"},
	}}
	f := newClassifierFixture(t, client)

	resp, err := f.classifier.Classify(context.Background(), f.orgID, f.intake.GetID())

	require.NoError(t, err)
	assert.False(t, resp.Fallback)
	assert.Equal(t, f.sales.GetID(), resp.PipelineID)
}

func TestIntakeClassifier_AlreadyTriagedRefused(t *testing.T) {
	client := &fakeLLM{}
	f := newClassifierFixture(t, client)
	require.NoError(t, f.intake.Triage(f.sales.GetID(), nil))
	f.intake.ClearDomainEvents()

	_, err := f.classifier.Classify(context.Background(), f.orgID, f.intake.GetID())

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	assert.Empty(t, client.requests)
}

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
