package pipeline

import (
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypePipeline = "Pipeline"
	AggregateTypeTask     = "Task"
	AggregateTypeIntake   = "IntakeRequest"
)

// Event type constants
const (
	EventTypePipelineCreated = "PipelineCreated"
	EventTypeTaskCreated     = "TaskCreated"
	EventTypeTaskMoved       = "TaskMoved"
	EventTypeTaskCompleted   = "TaskCompleted"
	EventTypeIntakeReceived  = "IntakeReceived"
	EventTypeIntakeConverted = "IntakeConverted"
)

// PipelineCreatedEvent is published when a pipeline is created
type PipelineCreatedEvent struct {
	shared.BaseDomainEvent
	Name       string `json:"name"`
	StageCount int    `json:"stage_count"`
}

// NewPipelineCreatedEvent creates a new PipelineCreatedEvent
func NewPipelineCreatedEvent(p *Pipeline) *PipelineCreatedEvent {
	return &PipelineCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePipelineCreated, AggregateTypePipeline, p.ID, p.OrgID),
		Name:            p.Name,
		StageCount:      len(p.Stages),
	}
}

// TaskCreatedEvent is published when a task is created
type TaskCreatedEvent struct {
	shared.BaseDomainEvent
	PipelineID uuid.UUID    `json:"pipeline_id"`
	StageID    uuid.UUID    `json:"stage_id"`
	Title      string       `json:"title"`
	Priority   TaskPriority `json:"priority"`
}

// NewTaskCreatedEvent creates a new TaskCreatedEvent
func NewTaskCreatedEvent(t *Task) *TaskCreatedEvent {
	return &TaskCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaskCreated, AggregateTypeTask, t.ID, t.OrgID),
		PipelineID:      t.PipelineID,
		StageID:         t.StageID,
		Title:           t.Title,
		Priority:        t.Priority,
	}
}

// TaskMovedEvent is published when a task changes stage
type TaskMovedEvent struct {
	shared.BaseDomainEvent
	PipelineID uuid.UUID `json:"pipeline_id"`
	FromStage  uuid.UUID `json:"from_stage"`
	ToStage    uuid.UUID `json:"to_stage"`
}

// NewTaskMovedEvent creates a new TaskMovedEvent
func NewTaskMovedEvent(t *Task, from, to uuid.UUID) *TaskMovedEvent {
	return &TaskMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaskMoved, AggregateTypeTask, t.ID, t.OrgID),
		PipelineID:      t.PipelineID,
		FromStage:       from,
		ToStage:         to,
	}
}

// TaskCompletedEvent is published when a task is completed
type TaskCompletedEvent struct {
	shared.BaseDomainEvent
	PipelineID uuid.UUID `json:"pipeline_id"`
	Title      string    `json:"title"`
}

// NewTaskCompletedEvent creates a new TaskCompletedEvent
func NewTaskCompletedEvent(t *Task) *TaskCompletedEvent {
	return &TaskCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaskCompleted, AggregateTypeTask, t.ID, t.OrgID),
		PipelineID:      t.PipelineID,
		Title:           t.Title,
	}
}

// IntakeReceivedEvent is published when an intake request arrives. The agent
// classification handler subscribes to this.
type IntakeReceivedEvent struct {
	shared.BaseDomainEvent
	Email  string `json:"email"`
	Source string `json:"source"`
}

// NewIntakeReceivedEvent creates a new IntakeReceivedEvent
func NewIntakeReceivedEvent(r *IntakeRequest) *IntakeReceivedEvent {
	return &IntakeReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntakeReceived, AggregateTypeIntake, r.ID, r.OrgID),
		Email:           r.Email,
		Source:          r.Source,
	}
}

// IntakeConvertedEvent is published when an intake request becomes a task
type IntakeConvertedEvent struct {
	shared.BaseDomainEvent
	PipelineID uuid.UUID `json:"pipeline_id"`
	TaskID     uuid.UUID `json:"task_id"`
}

// NewIntakeConvertedEvent creates a new IntakeConvertedEvent
func NewIntakeConvertedEvent(r *IntakeRequest) *IntakeConvertedEvent {
	ev := &IntakeConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntakeConverted, AggregateTypeIntake, r.ID, r.OrgID),
	}
	if r.PipelineID != nil {
		ev.PipelineID = *r.PipelineID
	}
	if r.TaskID != nil {
		ev.TaskID = *r.TaskID
	}
	return ev
}
