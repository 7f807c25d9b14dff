package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/document"
	"github.com/astralisone/platform/internal/domain/identity"
	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
)

// EventSerializer maps event type names to Go types so outbox payloads can
// be turned back into typed domain events when dispatched.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewPlatformSerializer creates a serializer with every platform event
// type registered
func NewPlatformSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(identity.EventTypeOrganizationCreated, &identity.OrganizationCreatedEvent{})
	s.Register(identity.EventTypeUserCreated, &identity.UserCreatedEvent{})
	s.Register(identity.EventTypeUserLocked, &identity.UserLockedEvent{})
	s.Register(pipeline.EventTypePipelineCreated, &pipeline.PipelineCreatedEvent{})
	s.Register(pipeline.EventTypeTaskCreated, &pipeline.TaskCreatedEvent{})
	s.Register(pipeline.EventTypeTaskMoved, &pipeline.TaskMovedEvent{})
	s.Register(pipeline.EventTypeTaskCompleted, &pipeline.TaskCompletedEvent{})
	s.Register(pipeline.EventTypeIntakeReceived, &pipeline.IntakeReceivedEvent{})
	s.Register(pipeline.EventTypeIntakeConverted, &pipeline.IntakeConvertedEvent{})
	s.Register(document.EventTypeDocumentUploaded, &document.DocumentUploadedEvent{})
	s.Register(document.EventTypeDocumentVersioned, &document.DocumentVersionedEvent{})
	s.Register(document.EventTypeDocumentDeleted, &document.DocumentDeletedEvent{})
	s.Register(scheduling.EventTypeEventScheduled, &scheduling.EventScheduledEvent{})
	s.Register(scheduling.EventTypeEventRescheduled, &scheduling.EventRescheduledEvent{})
	s.Register(scheduling.EventTypeEventCancelled, &scheduling.EventCancelledEvent{})
	s.Register(scheduling.EventTypeReminderDispatched, &scheduling.ReminderDispatchedEvent{})
	s.Register(agent.EventTypeDecisionProposed, &agent.DecisionProposedEvent{})
	s.Register(agent.EventTypeDecisionExecuted, &agent.DecisionExecutedEvent{})
	return s
}

// Register maps an event type name to the concrete type of the given event
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes a domain event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes JSON into the registered type for the event type name
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("deserialized %s does not implement DomainEvent", eventType)
	}
	return event, nil
}

// IsRegistered reports whether an event type name is known
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
