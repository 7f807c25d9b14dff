package agent

import (
	"encoding/json"
	"time"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/google/uuid"
)

// ClassifyIntakeRequest contains the input for a manual classification run
type ClassifyIntakeRequest struct {
	IntakeID uuid.UUID `json:"intake_id" binding:"required"`
}

// ClassificationResponse reports where an intake request was routed and why
type ClassificationResponse struct {
	DecisionID uuid.UUID `json:"decision_id"`
	IntakeID   uuid.UUID `json:"intake_id"`
	PipelineID uuid.UUID `json:"pipeline_id"`
	Priority   string    `json:"priority"`
	Confidence float64   `json:"confidence"`
	Rationale  string    `json:"rationale"`
	Fallback   bool      `json:"fallback"`
	Status     string    `json:"status"`
}

// ChatRequest contains one user turn of a calendar conversation
type ChatRequest struct {
	Message string        `json:"message" binding:"required,min=1,max=4000"`
	History []ChatMessage `json:"history" binding:"omitempty,max=40,dive"`
}

// ChatMessage is one prior turn carried by the client
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required,max=8000"`
}

// ChatResponse is the agent's answer plus what it did along the way
type ChatResponse struct {
	Message     string            `json:"message"`
	ToolsUsed   []string          `json:"tools_used,omitempty"`
	DecisionIDs []uuid.UUID       `json:"decision_ids,omitempty"`
	Events      []json.RawMessage `json:"events,omitempty"`
}

// RejectDecisionRequest contains the input for declining a decision
type RejectDecisionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// DecisionResponse is the API shape of an agent decision
type DecisionResponse struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	SubjectID  *uuid.UUID      `json:"subject_id,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Rationale  string          `json:"rationale"`
	Confidence float64         `json:"confidence"`
	Status     string          `json:"status"`
	ReviewedBy *uuid.UUID      `json:"reviewed_by,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToDecisionResponse maps a domain decision to its API shape
func ToDecisionResponse(d *agent.AgentDecision) DecisionResponse {
	return DecisionResponse{
		ID:         d.GetID(),
		Kind:       string(d.Kind),
		SubjectID:  d.SubjectID,
		Input:      d.Input,
		Output:     d.Output,
		Rationale:  d.Rationale,
		Confidence: d.Confidence,
		Status:     string(d.Status),
		ReviewedBy: d.ReviewedBy,
		Error:      d.Error,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// ToDecisionResponses maps a slice of decisions
func ToDecisionResponses(decisions []agent.AgentDecision) []DecisionResponse {
	out := make([]DecisionResponse, len(decisions))
	for i := range decisions {
		out[i] = ToDecisionResponse(&decisions[i])
	}
	return out
}

// DecisionListFilter carries list query parameters
type DecisionListFilter struct {
	Page     int
	PageSize int
	Kind     string
	Status   string
}

// LogResponse is the API shape of an agent log row
type LogResponse struct {
	ID         uuid.UUID       `json:"id"`
	Level      string          `json:"level"`
	Category   string          `json:"category"`
	Message    string          `json:"message"`
	Fields     json.RawMessage `json:"fields,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	DecisionID *uuid.UUID      `json:"decision_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToLogResponse maps a domain log row
func ToLogResponse(l *agent.AgentLog) LogResponse {
	return LogResponse{
		ID:         l.GetID(),
		Level:      string(l.Level),
		Category:   string(l.Category),
		Message:    l.Message,
		Fields:     l.Fields,
		RequestID:  l.RequestID,
		DecisionID: l.DecisionID,
		CreatedAt:  l.CreatedAt,
	}
}

// ToLogResponses maps a slice of log rows
func ToLogResponses(logs []agent.AgentLog) []LogResponse {
	out := make([]LogResponse, len(logs))
	for i := range logs {
		out[i] = ToLogResponse(&logs[i])
	}
	return out
}

// LogListFilter carries log query parameters
type LogListFilter struct {
	Page     int
	PageSize int
	Level    string
	Category string
	Since    time.Time
	Until    time.Time
}
