package pipeline

import (
	"time"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/google/uuid"
)

// CreatePipelineRequest contains the input for pipeline creation
type CreatePipelineRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=100"`
	Description string   `json:"description" binding:"omitempty,max=1000"`
	StageNames  []string `json:"stage_names" binding:"omitempty,min=2,dive,min=1,max=100"`
	IsDefault   bool     `json:"is_default"`
}

// UpdatePipelineRequest contains the input for pipeline update
type UpdatePipelineRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

// AddStageRequest contains the input for adding a stage
type AddStageRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Position int    `json:"position" binding:"min=0"`
	WIPLimit int    `json:"wip_limit" binding:"min=0"`
}

// UpdateStageRequest contains the input for renaming a stage or changing its WIP limit
type UpdateStageRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	WIPLimit int    `json:"wip_limit" binding:"min=0"`
}

// ReorderStageRequest contains the input for moving a stage
type ReorderStageRequest struct {
	Position int `json:"position" binding:"min=0"`
}

// StageResponse is the API shape of a pipeline stage
type StageResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
	WIPLimit int       `json:"wip_limit"`
	Terminal bool      `json:"terminal"`
}

// PipelineResponse is the API shape of a pipeline
type PipelineResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	IsDefault   bool            `json:"is_default"`
	Stages      []StageResponse `json:"stages"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToPipelineResponse maps a domain pipeline to its API shape
func ToPipelineResponse(p *pipeline.Pipeline) PipelineResponse {
	stages := make([]StageResponse, len(p.Stages))
	for i, s := range p.Stages {
		stages[i] = StageResponse{
			ID:       s.ID,
			Name:     s.Name,
			Position: s.Position,
			WIPLimit: s.WIPLimit,
			Terminal: s.Terminal,
		}
	}
	return PipelineResponse{
		ID:          p.GetID(),
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		IsDefault:   p.IsDefault,
		Stages:      stages,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PipelineListFilter carries list query parameters
type PipelineListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
}

// CreateTaskRequest contains the input for task creation
type CreateTaskRequest struct {
	PipelineID  uuid.UUID  `json:"pipeline_id" binding:"required"`
	StageID     *uuid.UUID `json:"stage_id"`
	Title       string     `json:"title" binding:"required,min=1,max=300"`
	Description string     `json:"description" binding:"omitempty,max=10000"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	Labels      []string   `json:"labels" binding:"omitempty,max=20,dive,min=1,max=50"`
}

// UpdateTaskRequest contains the input for task update
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=300"`
	Description *string    `json:"description" binding:"omitempty,max=10000"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"due_date"`
	Labels      []string   `json:"labels" binding:"omitempty,max=20,dive,min=1,max=50"`
}

// MoveTaskRequest contains the input for moving a task to another stage
type MoveTaskRequest struct {
	StageID uuid.UUID `json:"stage_id" binding:"required"`
}

// AssignTaskRequest contains the input for assigning a task
type AssignTaskRequest struct {
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

// TaskResponse is the API shape of a task
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	PipelineID  uuid.UUID  `json:"pipeline_id"`
	StageID     uuid.UUID  `json:"stage_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Labels      []string   `json:"labels"`
	Status      string     `json:"status"`
	SourceID    *uuid.UUID `json:"source_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToTaskResponse maps a domain task to its API shape
func ToTaskResponse(t *pipeline.Task) TaskResponse {
	return TaskResponse{
		ID:          t.GetID(),
		PipelineID:  t.PipelineID,
		StageID:     t.StageID,
		Title:       t.Title,
		Description: t.Description,
		AssigneeID:  t.AssigneeID,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Labels:      t.Labels,
		Status:      string(t.Status),
		SourceID:    t.SourceID,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ToTaskResponses maps a slice of tasks
func ToTaskResponses(tasks []pipeline.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i := range tasks {
		out[i] = ToTaskResponse(&tasks[i])
	}
	return out
}

// TaskListFilter carries list query parameters
type TaskListFilter struct {
	Page       int
	PageSize   int
	OrderBy    string
	OrderDir   string
	Search     string
	PipelineID *uuid.UUID
	StageID    *uuid.UUID
	AssigneeID *uuid.UUID
	Priority   string
	Status     string
}

// SubmitIntakeRequest contains the input for the public intake endpoint
type SubmitIntakeRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Company string `json:"company" binding:"omitempty,max=200"`
	Message string `json:"message" binding:"omitempty,max=10000"`
	Source  string `json:"source" binding:"omitempty,oneof=web email referral api"`
}

// TriageIntakeRequest contains the input for manual triage
type TriageIntakeRequest struct {
	PipelineID uuid.UUID `json:"pipeline_id" binding:"required"`
}

// RejectIntakeRequest contains the input for rejecting an intake request
type RejectIntakeRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// IntakeResponse is the API shape of an intake request
type IntakeResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Company        string     `json:"company"`
	Message        string     `json:"message"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	PipelineID     *uuid.UUID `json:"pipeline_id,omitempty"`
	TaskID         *uuid.UUID `json:"task_id,omitempty"`
	TriagedBy      *uuid.UUID `json:"triaged_by,omitempty"`
	TriagedAt      *time.Time `json:"triaged_at,omitempty"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToIntakeResponse maps a domain intake request to its API shape
func ToIntakeResponse(r *pipeline.IntakeRequest) IntakeResponse {
	return IntakeResponse{
		ID:             r.GetID(),
		Name:           r.Name,
		Email:          r.Email,
		Company:        r.Company,
		Message:        r.Message,
		Source:         r.Source,
		Status:         string(r.Status),
		PipelineID:     r.PipelineID,
		TaskID:         r.TaskID,
		TriagedBy:      r.TriagedBy,
		TriagedAt:      r.TriagedAt,
		RejectedReason: r.RejectedReason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ToIntakeResponses maps a slice of intake requests
func ToIntakeResponses(requests []pipeline.IntakeRequest) []IntakeResponse {
	out := make([]IntakeResponse, len(requests))
	for i := range requests {
		out[i] = ToIntakeResponse(&requests[i])
	}
	return out
}

// IntakeListFilter carries list query parameters
type IntakeListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
	Source   string
}
