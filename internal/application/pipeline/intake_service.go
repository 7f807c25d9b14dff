package pipeline

import (
	"context"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntakeService handles inbound requests from the public intake endpoint
// and their triage into pipelines.
type IntakeService struct {
	intakeRepo   pipeline.IntakeRepository
	pipelineRepo pipeline.PipelineRepository
	taskRepo     pipeline.TaskRepository
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewIntakeService creates a new IntakeService
func NewIntakeService(
	intakeRepo pipeline.IntakeRepository,
	pipelineRepo pipeline.PipelineRepository,
	taskRepo pipeline.TaskRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *IntakeService {
	return &IntakeService{
		intakeRepo:   intakeRepo,
		pipelineRepo: pipelineRepo,
		taskRepo:     taskRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Submit records an inbound request. The IntakeReceivedEvent it publishes is
// what triggers agent classification downstream.
func (s *IntakeService) Submit(ctx context.Context, orgID uuid.UUID, req SubmitIntakeRequest) (*IntakeResponse, error) {
	source := req.Source
	if source == "" {
		source = "web"
	}
	r, err := pipeline.NewIntakeRequest(orgID, req.Name, req.Email, req.Company, req.Message, source)
	if err != nil {
		return nil, err
	}

	if err := s.intakeRepo.Save(ctx, r); err != nil {
		s.logger.Error("Failed to save intake request", zap.Error(err), zap.String("org_id", orgID.String()))
		return nil, err
	}
	s.publishEvents(ctx, r)

	s.logger.Info("Intake request received",
		zap.String("intake_id", r.GetID().String()),
		zap.String("source", r.Source),
		zap.String("org_id", orgID.String()))

	response := ToIntakeResponse(r)
	return &response, nil
}

// GetByID retrieves an intake request by ID
func (s *IntakeService) GetByID(ctx context.Context, orgID, intakeID uuid.UUID) (*IntakeResponse, error) {
	r, err := s.intakeRepo.FindByID(ctx, orgID, intakeID)
	if err != nil {
		return nil, err
	}
	response := ToIntakeResponse(r)
	return &response, nil
}

// List retrieves intake requests matching the filter
func (s *IntakeService) List(ctx context.Context, orgID uuid.UUID, filter IntakeListFilter) ([]IntakeResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Source != "" {
		domainFilter.Filters["source"] = filter.Source
	}

	requests, err := s.intakeRepo.FindAll(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.intakeRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToIntakeResponses(requests), total, nil
}

// Triage routes a new intake request to a pipeline. triagedBy is nil when
// the agent performed the triage.
func (s *IntakeService) Triage(ctx context.Context, orgID, intakeID uuid.UUID, req TriageIntakeRequest, triagedBy *uuid.UUID) (*IntakeResponse, error) {
	r, err := s.intakeRepo.FindByID(ctx, orgID, intakeID)
	if err != nil {
		return nil, err
	}
	p, err := s.pipelineRepo.FindByID(ctx, orgID, req.PipelineID)
	if err != nil {
		return nil, err
	}
	if p.Status != pipeline.PipelineStatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Intake requests cannot be routed to an archived pipeline")
	}

	if err := r.Triage(p.GetID(), triagedBy); err != nil {
		return nil, err
	}
	if err := s.intakeRepo.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, r)

	response := ToIntakeResponse(r)
	return &response, nil
}

// Convert turns a triaged intake request into a task in the first stage of
// its pipeline. The task keeps a reference back to the request.
func (s *IntakeService) Convert(ctx context.Context, orgID, intakeID uuid.UUID) (*IntakeResponse, error) {
	r, err := s.intakeRepo.FindByID(ctx, orgID, intakeID)
	if err != nil {
		return nil, err
	}
	if r.PipelineID == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Intake request must be triaged before conversion")
	}
	p, err := s.pipelineRepo.FindByID(ctx, orgID, *r.PipelineID)
	if err != nil {
		return nil, err
	}
	stage := p.FirstStage()
	if stage == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Pipeline has no stages")
	}

	task, err := pipeline.NewTask(orgID, p.GetID(), stage.ID, r.Name, r.Message, pipeline.TaskPriorityMedium)
	if err != nil {
		return nil, err
	}
	sourceID := r.GetID()
	task.SourceID = &sourceID

	if err := r.MarkConverted(task.GetID()); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	if err := s.intakeRepo.Save(ctx, r); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, task)
	s.publishEvents(ctx, r)

	s.logger.Info("Intake request converted",
		zap.String("intake_id", r.GetID().String()),
		zap.String("task_id", task.GetID().String()),
		zap.String("org_id", orgID.String()))

	response := ToIntakeResponse(r)
	return &response, nil
}

// Reject closes an intake request without converting it
func (s *IntakeService) Reject(ctx context.Context, orgID, intakeID uuid.UUID, req RejectIntakeRequest) (*IntakeResponse, error) {
	r, err := s.intakeRepo.FindByID(ctx, orgID, intakeID)
	if err != nil {
		return nil, err
	}
	if err := r.Reject(req.Reason); err != nil {
		return nil, err
	}
	if err := s.intakeRepo.Save(ctx, r); err != nil {
		return nil, err
	}
	response := ToIntakeResponse(r)
	return &response, nil
}

func (s *IntakeService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}
