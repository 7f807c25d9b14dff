package pipeline

import (
	"context"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PipelineService handles pipeline and stage operations
type PipelineService struct {
	pipelineRepo pipeline.PipelineRepository
	taskRepo     pipeline.TaskRepository
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewPipelineService creates a new PipelineService
func NewPipelineService(
	pipelineRepo pipeline.PipelineRepository,
	taskRepo pipeline.TaskRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		pipelineRepo: pipelineRepo,
		taskRepo:     taskRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Create creates a pipeline with the given stages, or the default set
func (s *PipelineService) Create(ctx context.Context, orgID uuid.UUID, req CreatePipelineRequest) (*PipelineResponse, error) {
	exists, err := s.pipelineRepo.ExistsByName(ctx, orgID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A pipeline with this name already exists")
	}

	p, err := pipeline.NewPipeline(orgID, req.Name, req.Description, req.StageNames)
	if err != nil {
		return nil, err
	}

	if req.IsDefault {
		p.MarkDefault()
	} else if _, err := s.pipelineRepo.FindDefault(ctx, orgID); err != nil {
		// First pipeline in the org becomes the intake fallback.
		if !shared.IsNotFound(err) {
			return nil, err
		}
		p.MarkDefault()
	}

	if err := s.pipelineRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, p)

	s.logger.Info("pipeline created",
		zap.String("org_id", orgID.String()),
		zap.String("pipeline_id", p.GetID().String()),
		zap.Bool("is_default", p.IsDefault))

	resp := ToPipelineResponse(p)
	return &resp, nil
}

// GetByID retrieves a pipeline by ID
func (s *PipelineService) GetByID(ctx context.Context, orgID, pipelineID uuid.UUID) (*PipelineResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	resp := ToPipelineResponse(p)
	return &resp, nil
}

// List retrieves pipelines with filtering and pagination
func (s *PipelineService) List(ctx context.Context, orgID uuid.UUID, filter PipelineListFilter) ([]PipelineResponse, int64, error) {
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

	pipelines, err := s.pipelineRepo.FindAll(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.pipelineRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]PipelineResponse, len(pipelines))
	for i := range pipelines {
		out[i] = ToPipelineResponse(&pipelines[i])
	}
	return out, total, nil
}

// Update changes a pipeline's name and description
func (s *PipelineService) Update(ctx context.Context, orgID, pipelineID uuid.UUID, req UpdatePipelineRequest) (*PipelineResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}

	name := p.Name
	description := p.Description
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Name != nil && *req.Name != p.Name {
		exists, err := s.pipelineRepo.ExistsByName(ctx, orgID, *req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A pipeline with this name already exists")
		}
	}

	if err := p.Update(name, description); err != nil {
		return nil, err
	}
	if err := s.pipelineRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	resp := ToPipelineResponse(p)
	return &resp, nil
}

// Archive retires a pipeline. Its tasks stay readable.
func (s *PipelineService) Archive(ctx context.Context, orgID, pipelineID uuid.UUID) (*PipelineResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	if p.IsDefault {
		return nil, shared.NewDomainError("INVALID_STATE", "The default pipeline cannot be archived")
	}
	if err := p.Archive(); err != nil {
		return nil, err
	}
	if err := s.pipelineRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPipelineResponse(p)
	return &resp, nil
}

// AddStage inserts a stage at the given position
func (s *PipelineService) AddStage(ctx context.Context, orgID, pipelineID uuid.UUID, req AddStageRequest) (*PipelineResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	if _, err := p.AddStage(req.Name, req.Position, req.WIPLimit); err != nil {
		return nil, err
	}
	if err := s.pipelineRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPipelineResponse(p)
	return &resp, nil
}

// UpdateStage renames a stage or changes its WIP limit
func (s *PipelineService) UpdateStage(ctx context.Context, orgID, pipelineID, stageID uuid.UUID, req UpdateStageRequest) (*PipelineResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	if err := p.RenameStage(stageID, req.Name, req.WIPLimit); err != nil {
		return nil, err
	}
	if err := s.pipelineRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPipelineResponse(p)
	return &resp, nil
}

// ReorderStage moves a stage to a new position
func (s *PipelineService) ReorderStage(ctx context.Context, orgID, pipelineID, stageID uuid.UUID, req ReorderStageRequest) (*PipelineResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	if err := p.ReorderStage(stageID, req.Position); err != nil {
		return nil, err
	}
	if err := s.pipelineRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPipelineResponse(p)
	return &resp, nil
}

// RemoveStage deletes a stage. Refused while tasks occupy it.
func (s *PipelineService) RemoveStage(ctx context.Context, orgID, pipelineID, stageID uuid.UUID) (*PipelineResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.taskRepo.CountByStage(ctx, orgID, pipelineID, stageID)
	if err != nil {
		return nil, err
	}
	if err := p.RemoveStage(stageID, occupied); err != nil {
		return nil, err
	}
	if err := s.pipelineRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToPipelineResponse(p)
	return &resp, nil
}

func (s *PipelineService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}
