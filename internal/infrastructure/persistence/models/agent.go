package models

import (
	"encoding/json"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/google/uuid"
)

// DecisionModel is the persistence model for the AgentDecision aggregate.
type DecisionModel struct {
	OrgAggregateModel
	Kind       agent.DecisionKind   `gorm:"type:varchar(30);not null;index"`
	SubjectID  *uuid.UUID           `gorm:"type:uuid;index"`
	Input      string               `gorm:"type:jsonb"`
	Output     string               `gorm:"type:jsonb"`
	Rationale  string               `gorm:"type:text"`
	Confidence float64              `gorm:"not null;default:0"`
	Status     agent.DecisionStatus `gorm:"type:varchar(20);not null;default:'proposed';index"`
	ReviewedBy *uuid.UUID           `gorm:"type:uuid"`
	Error      string               `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (DecisionModel) TableName() string {
	return "agent_decisions"
}

// ToDomain converts the persistence model to a domain AgentDecision
func (m *DecisionModel) ToDomain() *agent.AgentDecision {
	d := &agent.AgentDecision{
		Kind:       m.Kind,
		SubjectID:  m.SubjectID,
		Rationale:  m.Rationale,
		Confidence: m.Confidence,
		Status:     m.Status,
		ReviewedBy: m.ReviewedBy,
		Error:      m.Error,
	}
	m.PopulateOrgAggregateRoot(&d.OrgAggregateRoot)
	if m.Input != "" {
		d.Input = json.RawMessage(m.Input)
	}
	if m.Output != "" {
		d.Output = json.RawMessage(m.Output)
	}
	return d
}

// FromDomain populates the persistence model from a domain AgentDecision
func (m *DecisionModel) FromDomain(d *agent.AgentDecision) {
	m.FromDomainOrgAggregateRoot(d.OrgAggregateRoot)
	m.Kind = d.Kind
	m.SubjectID = d.SubjectID
	m.Input = string(d.Input)
	m.Output = string(d.Output)
	m.Rationale = d.Rationale
	m.Confidence = d.Confidence
	m.Status = d.Status
	m.ReviewedBy = d.ReviewedBy
	m.Error = d.Error
}

// DecisionModelFromDomain creates a new persistence model from a domain AgentDecision
func DecisionModelFromDomain(d *agent.AgentDecision) *DecisionModel {
	m := &DecisionModel{}
	m.FromDomain(d)
	return m
}

// AgentLogModel is the persistence model for agent log rows.
type AgentLogModel struct {
	BaseModel
	OrgID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Level      agent.LogLevel    `gorm:"type:varchar(10);not null;index"`
	Category   agent.LogCategory `gorm:"type:varchar(20);not null;index"`
	Message    string            `gorm:"type:varchar(2000);not null"`
	Fields     string            `gorm:"type:jsonb"`
	RequestID  string            `gorm:"type:varchar(64);index"`
	DecisionID *uuid.UUID        `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (AgentLogModel) TableName() string {
	return "agent_logs"
}

// ToDomain converts the persistence model to a domain AgentLog
func (m *AgentLogModel) ToDomain() *agent.AgentLog {
	l := &agent.AgentLog{
		BaseEntity: m.BaseModel.ToDomain(),
		OrgID:      m.OrgID,
		Level:      m.Level,
		Category:   m.Category,
		Message:    m.Message,
		RequestID:  m.RequestID,
		DecisionID: m.DecisionID,
	}
	if m.Fields != "" {
		l.Fields = json.RawMessage(m.Fields)
	}
	return l
}

// FromDomain populates the persistence model from a domain AgentLog
func (m *AgentLogModel) FromDomain(l *agent.AgentLog) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.OrgID = l.OrgID
	m.Level = l.Level
	m.Category = l.Category
	m.Message = l.Message
	m.Fields = string(l.Fields)
	m.RequestID = l.RequestID
	m.DecisionID = l.DecisionID
}

// AgentLogModelFromDomain creates a new persistence model from a domain AgentLog
func AgentLogModelFromDomain(l *agent.AgentLog) *AgentLogModel {
	m := &AgentLogModel{}
	m.FromDomain(l)
	return m
}
