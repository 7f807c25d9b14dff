package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"

	schedulingapp "github.com/astralisone/platform/internal/application/scheduling"
)

// DecisionService serves the agent decision audit trail. Approving a
// proposed decision executes the action it recorded.
type DecisionService struct {
	decisionRepo agent.DecisionRepository
	intakeRepo   pipeline.IntakeRepository
	events       *schedulingapp.EventService
	logService   *LogService
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewDecisionService creates a new DecisionService
func NewDecisionService(
	decisionRepo agent.DecisionRepository,
	intakeRepo pipeline.IntakeRepository,
	events *schedulingapp.EventService,
	logService *LogService,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *DecisionService {
	return &DecisionService{
		decisionRepo: decisionRepo,
		intakeRepo:   intakeRepo,
		events:       events,
		logService:   logService,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// GetByID retrieves a decision by ID
func (s *DecisionService) GetByID(ctx context.Context, orgID, decisionID uuid.UUID) (*DecisionResponse, error) {
	d, err := s.decisionRepo.FindByID(ctx, orgID, decisionID)
	if err != nil {
		return nil, err
	}
	response := ToDecisionResponse(d)
	return &response, nil
}

// List retrieves decisions matching the filter
func (s *DecisionService) List(ctx context.Context, orgID uuid.UUID, filter DecisionListFilter) ([]DecisionResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Kind != "" {
		domainFilter.Filters["kind"] = filter.Kind
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	decisions, err := s.decisionRepo.FindAll(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.decisionRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToDecisionResponses(decisions), total, nil
}

// Approve accepts a proposed decision and executes the recorded action
func (s *DecisionService) Approve(ctx context.Context, orgID, decisionID, reviewerID uuid.UUID) (*DecisionResponse, error) {
	d, err := s.decisionRepo.FindByID(ctx, orgID, decisionID)
	if err != nil {
		return nil, err
	}
	if err := d.Approve(reviewerID); err != nil {
		return nil, err
	}

	output, execErr := s.execute(ctx, d)
	if execErr != nil {
		_ = d.MarkFailed(execErr.Error())
		s.logService.LogDecision(ctx, orgID, d.GetID(), agent.LogLevelError, agent.LogCategoryDispatch,
			"Approved decision failed to execute", map[string]interface{}{"error": execErr.Error()})
	} else if err := d.MarkExecuted(output); err != nil {
		return nil, err
	}

	if err := s.decisionRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, d)

	if execErr == nil {
		s.logService.LogDecision(ctx, orgID, d.GetID(), agent.LogLevelInfo, agent.LogCategoryDispatch,
			"Approved decision executed", map[string]interface{}{"kind": string(d.Kind)})
	}

	response := ToDecisionResponse(d)
	return &response, nil
}

// Reject declines a proposed decision
func (s *DecisionService) Reject(ctx context.Context, orgID, decisionID, reviewerID uuid.UUID, req RejectDecisionRequest) (*DecisionResponse, error) {
	d, err := s.decisionRepo.FindByID(ctx, orgID, decisionID)
	if err != nil {
		return nil, err
	}
	if err := d.Reject(reviewerID, req.Reason); err != nil {
		return nil, err
	}
	if err := s.decisionRepo.Save(ctx, d); err != nil {
		return nil, err
	}

	response := ToDecisionResponse(d)
	return &response, nil
}

// execute runs the action a decision recorded
func (s *DecisionService) execute(ctx context.Context, d *agent.AgentDecision) (json.RawMessage, error) {
	switch d.Kind {
	case agent.DecisionKindScheduleEvent:
		var in struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			StartAt     time.Time `json:"start_at"`
			EndAt       time.Time `json:"end_at"`
			Location    string    `json:"location"`
			Attendees   []string  `json:"attendees"`
			Force       bool      `json:"force"`
		}
		if err := json.Unmarshal(d.Input, &in); err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "decision input is not a schedulable event")
		}
		created, err := s.events.Create(ctx, d.OrgID, schedulingapp.CreateEventRequest{
			Title:       in.Title,
			Description: in.Description,
			StartAt:     in.StartAt,
			EndAt:       in.EndAt,
			Location:    in.Location,
			Attendees:   in.Attendees,
			Source:      "agent",
			Force:       in.Force,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(created)

	case agent.DecisionKindClassifyIntake:
		var out struct {
			PipelineID uuid.UUID `json:"pipeline_id"`
		}
		if err := json.Unmarshal(d.Output, &out); err != nil || out.PipelineID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "decision output names no pipeline")
		}
		if d.SubjectID == nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "decision has no intake subject")
		}
		intake, err := s.intakeRepo.FindByID(ctx, d.OrgID, *d.SubjectID)
		if err != nil {
			return nil, err
		}
		reviewer := d.ReviewedBy
		if err := intake.Triage(out.PipelineID, reviewer); err != nil {
			return nil, err
		}
		if err := s.intakeRepo.Save(ctx, intake); err != nil {
			return nil, err
		}
		return d.Output, nil

	case agent.DecisionKindSuggestSlots:
		// nothing to run, the suggestion itself was the action
		return d.Output, nil

	default:
		return nil, shared.NewDomainError("INVALID_STATE", "decision kind is not executable")
	}
}

func (s *DecisionService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}
