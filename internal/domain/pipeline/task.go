package pipeline

import (
	"strings"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle status of a task
type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusArchived  TaskStatus = "archived"
)

// TaskPriority represents the urgency of a task
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Task is a card on a pipeline board
type Task struct {
	shared.OrgAggregateRoot
	PipelineID  uuid.UUID
	StageID     uuid.UUID
	Title       string
	Description string
	AssigneeID  *uuid.UUID
	Priority    TaskPriority
	DueDate     *time.Time
	Labels      []string
	Status      TaskStatus
	SourceID    *uuid.UUID // intake request this task was converted from
	CompletedAt *time.Time
}

// NewTask creates an open task in the given pipeline stage
func NewTask(orgID, pipelineID, stageID uuid.UUID, title, description string, priority TaskPriority) (*Task, error) {
	if err := validateTaskTitle(title); err != nil {
		return nil, err
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}
	if err := validatePriority(priority); err != nil {
		return nil, err
	}

	task := &Task{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		PipelineID:       pipelineID,
		StageID:          stageID,
		Title:            strings.TrimSpace(title),
		Description:      description,
		Priority:         priority,
		Labels:           make([]string, 0),
		Status:           TaskStatusOpen,
	}
	task.AddDomainEvent(NewTaskCreatedEvent(task))
	return task, nil
}

// Update changes title, description and labels
func (t *Task) Update(title, description string, labels []string) error {
	if t.Status != TaskStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open tasks can be edited")
	}
	if err := validateTaskTitle(title); err != nil {
		return err
	}
	if len(labels) > 20 {
		return shared.NewDomainError("INVALID_LABELS", "A task can carry at most 20 labels")
	}
	t.Title = strings.TrimSpace(title)
	t.Description = description
	if labels != nil {
		t.Labels = labels
	}
	t.Touch()
	t.IncrementVersion()
	return nil
}

// SetPriority changes the priority
func (t *Task) SetPriority(priority TaskPriority) error {
	if err := validatePriority(priority); err != nil {
		return err
	}
	t.Priority = priority
	t.Touch()
	t.IncrementVersion()
	return nil
}

// SetDueDate sets or clears the due date
func (t *Task) SetDueDate(due *time.Time) {
	t.DueDate = due
	t.Touch()
	t.IncrementVersion()
}

// Assign sets or clears the assignee
func (t *Task) Assign(userID *uuid.UUID) error {
	if t.Status != TaskStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open tasks can be assigned")
	}
	t.AssigneeID = userID
	t.Touch()
	t.IncrementVersion()
	return nil
}

// MoveToStage moves the task to another stage of the same pipeline. The stage
// must exist in the pipeline and its WIP limit must allow one more task;
// stageTaskCount is the current occupancy from the repository.
func (t *Task) MoveToStage(p *Pipeline, stageID uuid.UUID, stageTaskCount int64) error {
	if t.Status != TaskStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open tasks can be moved")
	}
	if p.ID != t.PipelineID {
		return shared.NewDomainError("INVALID_INPUT", "Task does not belong to this pipeline")
	}
	stage := p.StageByID(stageID)
	if stage == nil {
		return shared.NewDomainError("STAGE_NOT_FOUND", "Stage does not exist in this pipeline")
	}
	if stage.ID == t.StageID {
		return nil
	}
	if stage.WIPLimit > 0 && stageTaskCount >= int64(stage.WIPLimit) {
		return shared.NewDomainError("WIP_LIMIT_REACHED", "Stage has reached its WIP limit")
	}
	from := t.StageID
	t.StageID = stage.ID
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTaskMovedEvent(t, from, stage.ID))
	if stage.Terminal {
		now := time.Now()
		t.Status = TaskStatusCompleted
		t.CompletedAt = &now
		t.AddDomainEvent(NewTaskCompletedEvent(t))
	}
	return nil
}

// Complete marks the task done without moving it
func (t *Task) Complete() error {
	if t.Status != TaskStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open tasks can be completed")
	}
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTaskCompletedEvent(t))
	return nil
}

// Reopen puts a completed task back in play
func (t *Task) Reopen() error {
	if t.Status != TaskStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed tasks can be reopened")
	}
	t.Status = TaskStatusOpen
	t.CompletedAt = nil
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Archive soft-deletes the task
func (t *Task) Archive() error {
	if t.Status == TaskStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Task is already archived")
	}
	t.Status = TaskStatusArchived
	t.Touch()
	t.IncrementVersion()
	return nil
}

// IsOverdue reports whether an open task is past its due date
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusOpen && t.DueDate != nil && now.After(*t.DueDate)
}

func validateTaskTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Task title cannot be empty")
	}
	if len(title) > 300 {
		return shared.NewDomainError("INVALID_TITLE", "Task title cannot exceed 300 characters")
	}
	return nil
}

func validatePriority(priority TaskPriority) error {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return nil
	}
	return shared.NewDomainError("INVALID_PRIORITY", "Unknown task priority")
}
