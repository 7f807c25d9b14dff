package event

import (
	"testing"
	"time"

	"github.com/astralisone/platform/internal/domain/scheduling"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	s := NewPlatformSerializer()

	when := scheduling.Interval{
		Start: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}
	original := scheduling.NewEventScheduledEvent(uuid.New(), uuid.New(), "Kickoff", when, false)

	data, err := s.Serialize(original)
	require.NoError(t, err)

	decoded, err := s.Deserialize(scheduling.EventTypeEventScheduled, data)
	require.NoError(t, err)

	scheduled, ok := decoded.(*scheduling.EventScheduledEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), scheduled.EventID())
	assert.Equal(t, original.AggregateID(), scheduled.AggregateID())
	assert.Equal(t, original.OrgID(), scheduled.OrgID())
	assert.Equal(t, "Kickoff", scheduled.Title)
	assert.True(t, when.Start.Equal(scheduled.When.Start))
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()

	_, err := s.Deserialize("NeverHeardOfIt", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_PlatformTypesRegistered(t *testing.T) {
	s := NewPlatformSerializer()

	for _, eventType := range []string{
		"OrganizationCreated", "UserCreated", "UserLocked",
		"PipelineCreated", "TaskCreated", "TaskMoved", "TaskCompleted",
		"IntakeReceived", "IntakeConverted",
		"DocumentUploaded", "DocumentVersioned", "DocumentDeleted",
		"EventScheduled", "EventRescheduled", "EventCancelled", "ReminderDispatched",
		"DecisionProposed", "DecisionExecuted",
	} {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}
}
