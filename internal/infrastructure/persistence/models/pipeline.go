package models

import (
	"encoding/json"
	"time"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/google/uuid"
)

// PipelineModel is the persistence model for the Pipeline aggregate. Stages
// live inside the aggregate and are stored as a jsonb column.
type PipelineModel struct {
	OrgAggregateModel
	Name        string                  `gorm:"type:varchar(200);not null"`
	Description string                  `gorm:"type:text"`
	Status      pipeline.PipelineStatus `gorm:"type:varchar(20);not null;default:'active'"`
	IsDefault   bool                    `gorm:"not null;default:false"`
	Stages      string                  `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (PipelineModel) TableName() string {
	return "pipelines"
}

// ToDomain converts the persistence model to a domain Pipeline
func (m *PipelineModel) ToDomain() *pipeline.Pipeline {
	p := &pipeline.Pipeline{
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		IsDefault:   m.IsDefault,
		Stages:      make([]pipeline.Stage, 0),
	}
	m.PopulateOrgAggregateRoot(&p.OrgAggregateRoot)
	if m.Stages != "" {
		var stages []pipeline.Stage
		if err := json.Unmarshal([]byte(m.Stages), &stages); err == nil {
			p.Stages = stages
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Pipeline
func (m *PipelineModel) FromDomain(p *pipeline.Pipeline) {
	m.FromDomainOrgAggregateRoot(p.OrgAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Status = p.Status
	m.IsDefault = p.IsDefault
	if raw, err := json.Marshal(p.Stages); err == nil {
		m.Stages = string(raw)
	} else {
		m.Stages = "[]"
	}
}

// PipelineModelFromDomain creates a new persistence model from a domain Pipeline
func PipelineModelFromDomain(p *pipeline.Pipeline) *PipelineModel {
	m := &PipelineModel{}
	m.FromDomain(p)
	return m
}

// TaskModel is the persistence model for the Task aggregate.
type TaskModel struct {
	OrgAggregateModel
	PipelineID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	StageID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	Title       string                `gorm:"type:varchar(300);not null"`
	Description string                `gorm:"type:text"`
	AssigneeID  *uuid.UUID            `gorm:"type:uuid;index"`
	Priority    pipeline.TaskPriority `gorm:"type:varchar(20);not null;default:'medium'"`
	DueDate     *time.Time            `gorm:"index"`
	Labels      string                `gorm:"type:jsonb;default:'[]'"`
	Status      pipeline.TaskStatus   `gorm:"type:varchar(20);not null;default:'open';index"`
	SourceID    *uuid.UUID            `gorm:"type:uuid"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "tasks"
}

// ToDomain converts the persistence model to a domain Task
func (m *TaskModel) ToDomain() *pipeline.Task {
	t := &pipeline.Task{
		PipelineID:  m.PipelineID,
		StageID:     m.StageID,
		Title:       m.Title,
		Description: m.Description,
		AssigneeID:  m.AssigneeID,
		Priority:    m.Priority,
		DueDate:     m.DueDate,
		Labels:      make([]string, 0),
		Status:      m.Status,
		SourceID:    m.SourceID,
		CompletedAt: m.CompletedAt,
	}
	m.PopulateOrgAggregateRoot(&t.OrgAggregateRoot)
	if m.Labels != "" {
		var labels []string
		if err := json.Unmarshal([]byte(m.Labels), &labels); err == nil {
			t.Labels = labels
		}
	}
	return t
}

// FromDomain populates the persistence model from a domain Task
func (m *TaskModel) FromDomain(t *pipeline.Task) {
	m.FromDomainOrgAggregateRoot(t.OrgAggregateRoot)
	m.PipelineID = t.PipelineID
	m.StageID = t.StageID
	m.Title = t.Title
	m.Description = t.Description
	m.AssigneeID = t.AssigneeID
	m.Priority = t.Priority
	m.DueDate = t.DueDate
	m.Status = t.Status
	m.SourceID = t.SourceID
	m.CompletedAt = t.CompletedAt
	if raw, err := json.Marshal(t.Labels); err == nil {
		m.Labels = string(raw)
	} else {
		m.Labels = "[]"
	}
}

// TaskModelFromDomain creates a new persistence model from a domain Task
func TaskModelFromDomain(t *pipeline.Task) *TaskModel {
	m := &TaskModel{}
	m.FromDomain(t)
	return m
}

// IntakeRequestModel is the persistence model for the IntakeRequest aggregate.
type IntakeRequestModel struct {
	OrgAggregateModel
	Name           string                `gorm:"type:varchar(200);not null"`
	Email          string                `gorm:"type:varchar(200);not null;index"`
	Company        string                `gorm:"type:varchar(200)"`
	Message        string                `gorm:"type:text"`
	Source         string                `gorm:"type:varchar(50);not null;default:'web'"`
	Status         pipeline.IntakeStatus `gorm:"type:varchar(20);not null;default:'new';index"`
	PipelineID     *uuid.UUID            `gorm:"type:uuid"`
	TaskID         *uuid.UUID            `gorm:"type:uuid"`
	TriagedBy      *uuid.UUID            `gorm:"type:uuid"`
	TriagedAt      *time.Time
	RejectedReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (IntakeRequestModel) TableName() string {
	return "intake_requests"
}

// ToDomain converts the persistence model to a domain IntakeRequest
func (m *IntakeRequestModel) ToDomain() *pipeline.IntakeRequest {
	r := &pipeline.IntakeRequest{
		Name:           m.Name,
		Email:          m.Email,
		Company:        m.Company,
		Message:        m.Message,
		Source:         m.Source,
		Status:         m.Status,
		PipelineID:     m.PipelineID,
		TaskID:         m.TaskID,
		TriagedBy:      m.TriagedBy,
		TriagedAt:      m.TriagedAt,
		RejectedReason: m.RejectedReason,
	}
	m.PopulateOrgAggregateRoot(&r.OrgAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain IntakeRequest
func (m *IntakeRequestModel) FromDomain(r *pipeline.IntakeRequest) {
	m.FromDomainOrgAggregateRoot(r.OrgAggregateRoot)
	m.Name = r.Name
	m.Email = r.Email
	m.Company = r.Company
	m.Message = r.Message
	m.Source = r.Source
	m.Status = r.Status
	m.PipelineID = r.PipelineID
	m.TaskID = r.TaskID
	m.TriagedBy = r.TriagedBy
	m.TriagedAt = r.TriagedAt
	m.RejectedReason = r.RejectedReason
}

// IntakeRequestModelFromDomain creates a new persistence model from a domain IntakeRequest
func IntakeRequestModelFromDomain(r *pipeline.IntakeRequest) *IntakeRequestModel {
	m := &IntakeRequestModel{}
	m.FromDomain(r)
	return m
}
