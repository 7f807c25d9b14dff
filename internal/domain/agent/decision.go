package agent

import (
	"encoding/json"
	"strings"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// DecisionKind identifies what the agent proposed
type DecisionKind string

const (
	DecisionKindClassifyIntake DecisionKind = "classify_intake"
	DecisionKindScheduleEvent  DecisionKind = "schedule_event"
	DecisionKindSuggestSlots   DecisionKind = "suggest_slots"
)

// DecisionStatus represents the review state of an agent decision
type DecisionStatus string

const (
	DecisionStatusProposed DecisionStatus = "proposed"
	DecisionStatusApproved DecisionStatus = "approved"
	DecisionStatusRejected DecisionStatus = "rejected"
	DecisionStatusExecuted DecisionStatus = "executed"
	DecisionStatusFailed   DecisionStatus = "failed"
)

// autoExecuteConfidence is the confidence at or above which a decision may
// be executed without human review.
const autoExecuteConfidence = 0.8

// AgentDecision records one proposed or executed agent action, with the
// model's input and output preserved for audit.
type AgentDecision struct {
	shared.OrgAggregateRoot
	Kind       DecisionKind
	SubjectID  *uuid.UUID
	Input      json.RawMessage
	Output     json.RawMessage
	Rationale  string
	Confidence float64
	Status     DecisionStatus
	ReviewedBy *uuid.UUID
	Error      string
}

// NewAgentDecision creates a proposed decision
func NewAgentDecision(orgID uuid.UUID, kind DecisionKind, subjectID *uuid.UUID, input, output json.RawMessage, rationale string, confidence float64) (*AgentDecision, error) {
	switch kind {
	case DecisionKindClassifyIntake, DecisionKindScheduleEvent, DecisionKindSuggestSlots:
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown decision kind")
	}
	if confidence < 0 || confidence > 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "confidence must be between 0 and 1")
	}

	d := &AgentDecision{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Kind:             kind,
		SubjectID:        subjectID,
		Input:            input,
		Output:           output,
		Rationale:        strings.TrimSpace(rationale),
		Confidence:       confidence,
		Status:           DecisionStatusProposed,
	}
	d.AddDomainEvent(NewDecisionProposedEvent(d.GetID(), orgID, kind, confidence))
	return d, nil
}

// CanAutoExecute reports whether the decision clears the confidence gate
func (d *AgentDecision) CanAutoExecute() bool {
	return d.Confidence >= autoExecuteConfidence
}

// Approve accepts a proposed decision for execution
func (d *AgentDecision) Approve(reviewerID uuid.UUID) error {
	if d.Status != DecisionStatusProposed {
		return shared.NewDomainError("INVALID_STATE", "only proposed decisions can be approved")
	}
	d.Status = DecisionStatusApproved
	d.ReviewedBy = &reviewerID
	d.Touch()
	d.IncrementVersion()
	return nil
}

// Reject declines a proposed decision
func (d *AgentDecision) Reject(reviewerID uuid.UUID, reason string) error {
	if d.Status != DecisionStatusProposed {
		return shared.NewDomainError("INVALID_STATE", "only proposed decisions can be rejected")
	}
	d.Status = DecisionStatusRejected
	d.ReviewedBy = &reviewerID
	d.Error = strings.TrimSpace(reason)
	d.Touch()
	d.IncrementVersion()
	return nil
}

// MarkExecuted records that the underlying action ran
func (d *AgentDecision) MarkExecuted(output json.RawMessage) error {
	if d.Status != DecisionStatusProposed && d.Status != DecisionStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "decision is not executable")
	}
	if d.Status == DecisionStatusProposed && !d.CanAutoExecute() {
		return shared.NewDomainError("INVALID_STATE", "decision requires approval before execution")
	}
	if len(output) > 0 {
		d.Output = output
	}
	d.Status = DecisionStatusExecuted
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDecisionExecutedEvent(d.GetID(), d.OrgID, d.Kind))
	return nil
}

// MarkFailed records an execution failure
func (d *AgentDecision) MarkFailed(reason string) error {
	if d.Status == DecisionStatusExecuted {
		return shared.NewDomainError("INVALID_STATE", "executed decisions cannot fail")
	}
	d.Status = DecisionStatusFailed
	d.Error = strings.TrimSpace(reason)
	d.Touch()
	d.IncrementVersion()
	return nil
}
