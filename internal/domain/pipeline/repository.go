package pipeline

import (
	"context"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// PipelineRepository defines the interface for pipeline persistence
type PipelineRepository interface {
	// FindByID finds a pipeline by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Pipeline, error)

	// FindAll finds all pipelines in an organization
	FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Pipeline, error)

	// FindDefault finds the organization's default pipeline
	FindDefault(ctx context.Context, orgID uuid.UUID) (*Pipeline, error)

	// Save creates or updates a pipeline with its stages
	Save(ctx context.Context, p *Pipeline) error

	// Count counts pipelines in an organization
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByName checks if a pipeline with the given name exists in the organization
	ExistsByName(ctx context.Context, orgID uuid.UUID, name string) (bool, error)
}

// TaskRepository defines the interface for task persistence
type TaskRepository interface {
	// FindByID finds a task by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Task, error)

	// FindAll finds tasks matching the filter. Recognized filter keys:
	// pipeline_id, stage_id, assignee_id, priority, status.
	FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Task, error)

	// FindOverdue finds open tasks past their due date
	FindOverdue(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Task, error)

	// Save creates or updates a task
	Save(ctx context.Context, t *Task) error

	// Count counts tasks matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStage counts open tasks in a stage (WIP limit checks)
	CountByStage(ctx context.Context, orgID, pipelineID, stageID uuid.UUID) (int64, error)
}

// IntakeRepository defines the interface for intake request persistence
type IntakeRepository interface {
	// FindByID finds an intake request by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*IntakeRequest, error)

	// FindAll finds intake requests matching the filter. Recognized filter
	// keys: status, source.
	FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]IntakeRequest, error)

	// Save creates or updates an intake request
	Save(ctx context.Context, r *IntakeRequest) error

	// Count counts intake requests matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)
}
