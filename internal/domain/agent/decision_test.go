package agent

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentDecision(t *testing.T) {
	orgID := uuid.New()
	reviewer := uuid.New()
	input := json.RawMessage(`{"intake_id":"x"}`)
	output := json.RawMessage(`{"pipeline":"sales"}`)

	newDecision := func(t *testing.T, confidence float64) *AgentDecision {
		d, err := NewAgentDecision(orgID, DecisionKindClassifyIntake, nil, input, output, "matched sales keywords", confidence)
		require.NoError(t, err)
		return d
	}

	t.Run("starts proposed", func(t *testing.T) {
		d := newDecision(t, 0.9)
		assert.Equal(t, DecisionStatusProposed, d.Status)
		assert.Len(t, d.GetDomainEvents(), 1)
	})

	t.Run("rejects out-of-range confidence", func(t *testing.T) {
		_, err := NewAgentDecision(orgID, DecisionKindClassifyIntake, nil, input, output, "", 1.2)
		assert.Error(t, err)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := NewAgentDecision(orgID, DecisionKind("guess"), nil, input, output, "", 0.5)
		assert.Error(t, err)
	})

	t.Run("high confidence may auto-execute", func(t *testing.T) {
		d := newDecision(t, 0.8)
		assert.True(t, d.CanAutoExecute())
		require.NoError(t, d.MarkExecuted(nil))
		assert.Equal(t, DecisionStatusExecuted, d.Status)
	})

	t.Run("low confidence requires approval", func(t *testing.T) {
		d := newDecision(t, 0.5)
		assert.False(t, d.CanAutoExecute())
		assert.Error(t, d.MarkExecuted(nil))

		require.NoError(t, d.Approve(reviewer))
		require.NoError(t, d.MarkExecuted(json.RawMessage(`{"task":"t1"}`)))
		assert.Equal(t, DecisionStatusExecuted, d.Status)
	})

	t.Run("rejected decision cannot execute", func(t *testing.T) {
		d := newDecision(t, 0.5)
		require.NoError(t, d.Reject(reviewer, "wrong pipeline"))
		assert.Error(t, d.MarkExecuted(nil))
		assert.Equal(t, DecisionStatusRejected, d.Status)
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		d := newDecision(t, 0.5)
		require.NoError(t, d.Approve(reviewer))
		assert.Error(t, d.Approve(reviewer))
	})

	t.Run("execution failure is recorded", func(t *testing.T) {
		d := newDecision(t, 0.9)
		require.NoError(t, d.MarkFailed("pipeline vanished"))
		assert.Equal(t, DecisionStatusFailed, d.Status)
		assert.Equal(t, "pipeline vanished", d.Error)
	})
}

func TestNewAgentLog(t *testing.T) {
	orgID := uuid.New()

	t.Run("creates log row with fields", func(t *testing.T) {
		l, err := NewAgentLog(orgID, LogLevelInfo, LogCategoryChat, "tool call completed")
		require.NoError(t, err)

		l.WithFields(map[string]interface{}{"tool": "suggest_slots"}).WithRequestID("req-1")

		assert.Equal(t, orgID, l.OrgID)
		assert.Equal(t, "req-1", l.RequestID)
		assert.JSONEq(t, `{"tool":"suggest_slots"}`, string(l.Fields))
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := NewAgentLog(orgID, LogLevel("trace"), LogCategoryChat, "x")
		assert.Error(t, err)
	})

	t.Run("rejects empty message", func(t *testing.T) {
		_, err := NewAgentLog(orgID, LogLevelInfo, LogCategoryChat, "  ")
		assert.Error(t, err)
	})
}
