package agent

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// LogLevel mirrors the usual severity ladder for agent log rows
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogCategory groups agent log rows by concern
type LogCategory string

const (
	LogCategoryClassification LogCategory = "classification"
	LogCategoryChat           LogCategory = "chat"
	LogCategoryTool           LogCategory = "tool"
	LogCategoryDispatch       LogCategory = "dispatch"
	LogCategoryLLM            LogCategory = "llm"
)

// AgentLog is a structured log row persisted to the database. Unlike the
// process logs, these survive restarts and are queryable per organization.
type AgentLog struct {
	shared.BaseEntity
	OrgID      uuid.UUID
	Level      LogLevel
	Category   LogCategory
	Message    string
	Fields     json.RawMessage
	RequestID  string
	DecisionID *uuid.UUID
}

// NewAgentLog creates a log row with validation
func NewAgentLog(orgID uuid.UUID, level LogLevel, category LogCategory, message string) (*AgentLog, error) {
	switch level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "unknown log level")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "log message is required")
	}
	if len(message) > 2000 {
		message = message[:2000]
	}
	return &AgentLog{
		BaseEntity: shared.NewBaseEntity(),
		OrgID:      orgID,
		Level:      level,
		Category:   category,
		Message:    message,
	}, nil
}

// WithFields attaches structured fields as JSON
func (l *AgentLog) WithFields(fields map[string]interface{}) *AgentLog {
	if len(fields) == 0 {
		return l
	}
	if raw, err := json.Marshal(fields); err == nil {
		l.Fields = raw
	}
	return l
}

// WithRequestID correlates the row with an HTTP request
func (l *AgentLog) WithRequestID(requestID string) *AgentLog {
	l.RequestID = requestID
	return l
}

// WithDecision correlates the row with an agent decision
func (l *AgentLog) WithDecision(decisionID uuid.UUID) *AgentLog {
	l.DecisionID = &decisionID
	return l
}

// LogQuery filters agent log listings
type LogQuery struct {
	Level    LogLevel
	Category LogCategory
	Since    time.Time
	Until    time.Time
}
