package pipeline

import (
	"context"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService handles task operations
type TaskService struct {
	taskRepo     pipeline.TaskRepository
	pipelineRepo pipeline.PipelineRepository
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo pipeline.TaskRepository,
	pipelineRepo pipeline.PipelineRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		pipelineRepo: pipelineRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Create creates a task in the given pipeline. When no stage is given the
// task lands in the pipeline's first stage.
func (s *TaskService) Create(ctx context.Context, orgID uuid.UUID, req CreateTaskRequest) (*TaskResponse, error) {
	p, err := s.pipelineRepo.FindByID(ctx, orgID, req.PipelineID)
	if err != nil {
		return nil, err
	}
	if p.Status != pipeline.PipelineStatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Tasks can only be created in active pipelines")
	}

	var stage *pipeline.Stage
	if req.StageID != nil {
		stage = p.StageByID(*req.StageID)
		if stage == nil {
			return nil, shared.NewDomainError("STAGE_NOT_FOUND", "Stage does not exist in this pipeline")
		}
	} else {
		stage = p.FirstStage()
		if stage == nil {
			return nil, shared.NewDomainError("INVALID_STATE", "Pipeline has no stages")
		}
	}

	if stage.WIPLimit > 0 {
		occupied, err := s.taskRepo.CountByStage(ctx, orgID, p.GetID(), stage.ID)
		if err != nil {
			return nil, err
		}
		if occupied >= int64(stage.WIPLimit) {
			return nil, shared.NewDomainError("WIP_LIMIT_REACHED", "Stage has reached its WIP limit")
		}
	}

	task, err := pipeline.NewTask(orgID, p.GetID(), stage.ID, req.Title, req.Description, pipeline.TaskPriority(req.Priority))
	if err != nil {
		return nil, err
	}
	if req.AssigneeID != nil {
		if err := task.Assign(req.AssigneeID); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		task.SetDueDate(req.DueDate)
	}
	if len(req.Labels) > 0 {
		if err := task.Update(task.Title, task.Description, req.Labels); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		s.logger.Error("Failed to create task", zap.Error(err), zap.String("org_id", orgID.String()))
		return nil, err
	}
	s.publishEvents(ctx, task)

	s.logger.Info("Task created",
		zap.String("task_id", task.GetID().String()),
		zap.String("pipeline_id", p.GetID().String()),
		zap.String("org_id", orgID.String()))

	response := ToTaskResponse(task)
	return &response, nil
}

// GetByID retrieves a task by ID
func (s *TaskService) GetByID(ctx context.Context, orgID, taskID uuid.UUID) (*TaskResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}
	response := ToTaskResponse(task)
	return &response, nil
}

// List retrieves tasks matching the filter
func (s *TaskService) List(ctx context.Context, orgID uuid.UUID, filter TaskListFilter) ([]TaskResponse, int64, error) {
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
	if filter.PipelineID != nil {
		domainFilter.Filters["pipeline_id"] = *filter.PipelineID
	}
	if filter.StageID != nil {
		domainFilter.Filters["stage_id"] = *filter.StageID
	}
	if filter.AssigneeID != nil {
		domainFilter.Filters["assignee_id"] = *filter.AssigneeID
	}
	if filter.Priority != "" {
		domainFilter.Filters["priority"] = filter.Priority
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	tasks, err := s.taskRepo.FindAll(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.taskRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTaskResponses(tasks), total, nil
}

// ListOverdue retrieves open tasks past their due date
func (s *TaskService) ListOverdue(ctx context.Context, orgID uuid.UUID, filter TaskListFilter) ([]TaskResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.PipelineID != nil {
		domainFilter.Filters["pipeline_id"] = *filter.PipelineID
	}
	if filter.AssigneeID != nil {
		domainFilter.Filters["assignee_id"] = *filter.AssigneeID
	}

	tasks, err := s.taskRepo.FindOverdue(ctx, orgID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToTaskResponses(tasks), nil
}

// Update changes a task's title, description, priority, due date and labels
func (s *TaskService) Update(ctx context.Context, orgID, taskID uuid.UUID, req UpdateTaskRequest) (*TaskResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}

	title := task.Title
	if req.Title != nil {
		title = *req.Title
	}
	description := task.Description
	if req.Description != nil {
		description = *req.Description
	}
	if err := task.Update(title, description, req.Labels); err != nil {
		return nil, err
	}
	if req.Priority != nil {
		if err := task.SetPriority(pipeline.TaskPriority(*req.Priority)); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		task.SetDueDate(req.DueDate)
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	response := ToTaskResponse(task)
	return &response, nil
}

// Move moves a task to another stage of its pipeline, enforcing the WIP
// limit of the target stage. Moving into a terminal stage completes the task.
func (s *TaskService) Move(ctx context.Context, orgID, taskID uuid.UUID, req MoveTaskRequest) (*TaskResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}
	p, err := s.pipelineRepo.FindByID(ctx, orgID, task.PipelineID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.taskRepo.CountByStage(ctx, orgID, p.GetID(), req.StageID)
	if err != nil {
		return nil, err
	}
	if err := task.MoveToStage(p, req.StageID, occupied); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, task)

	response := ToTaskResponse(task)
	return &response, nil
}

// Assign sets or clears the task's assignee
func (s *TaskService) Assign(ctx context.Context, orgID, taskID uuid.UUID, req AssignTaskRequest) (*TaskResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.Assign(req.AssigneeID); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	response := ToTaskResponse(task)
	return &response, nil
}

// Complete marks a task done without moving it
func (s *TaskService) Complete(ctx context.Context, orgID, taskID uuid.UUID) (*TaskResponse, error) {
	return s.transition(ctx, orgID, taskID, func(t *pipeline.Task) error {
		return t.Complete()
	})
}

// Reopen returns a completed task to open
func (s *TaskService) Reopen(ctx context.Context, orgID, taskID uuid.UUID) (*TaskResponse, error) {
	return s.transition(ctx, orgID, taskID, func(t *pipeline.Task) error {
		return t.Reopen()
	})
}

// Archive removes a task from the board
func (s *TaskService) Archive(ctx context.Context, orgID, taskID uuid.UUID) (*TaskResponse, error) {
	return s.transition(ctx, orgID, taskID, func(t *pipeline.Task) error {
		return t.Archive()
	})
}

func (s *TaskService) transition(ctx context.Context, orgID, taskID uuid.UUID, fn func(*pipeline.Task) error) (*TaskResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}
	if err := fn(task); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, task)

	response := ToTaskResponse(task)
	return &response, nil
}

func (s *TaskService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}
