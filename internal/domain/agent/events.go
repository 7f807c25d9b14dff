package agent

import (
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeDecision = "AgentDecision"

// Event type constants
const (
	EventTypeDecisionProposed = "DecisionProposed"
	EventTypeDecisionExecuted = "DecisionExecuted"
)

// DecisionProposedEvent is raised when the agent proposes an action
type DecisionProposedEvent struct {
	shared.BaseDomainEvent
	Kind       DecisionKind
	Confidence float64
}

// NewDecisionProposedEvent creates a new decision proposed event
func NewDecisionProposedEvent(decisionID, orgID uuid.UUID, kind DecisionKind, confidence float64) *DecisionProposedEvent {
	return &DecisionProposedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDecisionProposed, AggregateTypeDecision, decisionID, orgID),
		Kind:            kind,
		Confidence:      confidence,
	}
}

// DecisionExecutedEvent is raised when a decision's action has run
type DecisionExecutedEvent struct {
	shared.BaseDomainEvent
	Kind DecisionKind
}

// NewDecisionExecutedEvent creates a new decision executed event
func NewDecisionExecutedEvent(decisionID, orgID uuid.UUID, kind DecisionKind) *DecisionExecutedEvent {
	return &DecisionExecutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDecisionExecuted, AggregateTypeDecision, decisionID, orgID),
		Kind:            kind,
	}
}
