package agent

import (
	"context"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"go.uber.org/zap"
)

// IntakeClassificationHandler triggers classification when an intake
// request arrives. Classification failure never propagates; the request
// simply stays new for manual triage.
type IntakeClassificationHandler struct {
	classifier *IntakeClassifier
	logger     *zap.Logger
}

// NewIntakeClassificationHandler creates a new IntakeClassificationHandler
func NewIntakeClassificationHandler(classifier *IntakeClassifier, logger *zap.Logger) *IntakeClassificationHandler {
	return &IntakeClassificationHandler{classifier: classifier, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *IntakeClassificationHandler) EventTypes() []string {
	return []string{pipeline.EventTypeIntakeReceived}
}

// Handle processes a domain event
func (h *IntakeClassificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	received, ok := event.(*pipeline.IntakeReceivedEvent)
	if !ok {
		return nil
	}
	if _, err := h.classifier.Classify(ctx, received.OrgID(), received.AggregateID()); err != nil {
		h.logger.Warn("Automatic intake classification failed",
			zap.String("intake_id", received.AggregateID().String()),
			zap.Error(err))
	}
	return nil
}
