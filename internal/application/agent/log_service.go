package agent

import (
	"context"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogService writes agent log rows to the database and serves queries over
// them. Writes are best effort: a failed append is logged to the process
// log and swallowed so agent flows never fail on logging.
type LogService struct {
	logRepo agent.LogRepository
	logger  *zap.Logger
}

// NewLogService creates a new LogService
func NewLogService(logRepo agent.LogRepository, logger *zap.Logger) *LogService {
	return &LogService{logRepo: logRepo, logger: logger}
}

// Log writes one row. Invalid rows are dropped with a process log entry.
func (s *LogService) Log(ctx context.Context, orgID uuid.UUID, level agent.LogLevel, category agent.LogCategory, message string, fields map[string]interface{}) *agent.AgentLog {
	row, err := agent.NewAgentLog(orgID, level, category, message)
	if err != nil {
		s.logger.Warn("Dropping invalid agent log row", zap.Error(err))
		return nil
	}
	row.WithFields(fields)
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		row.WithRequestID(requestID)
	}
	if err := s.logRepo.Append(ctx, row); err != nil {
		s.logger.Error("Failed to append agent log", zap.Error(err))
	}
	return row
}

// LogDecision writes a row correlated with a decision
func (s *LogService) LogDecision(ctx context.Context, orgID, decisionID uuid.UUID, level agent.LogLevel, category agent.LogCategory, message string, fields map[string]interface{}) {
	row, err := agent.NewAgentLog(orgID, level, category, message)
	if err != nil {
		s.logger.Warn("Dropping invalid agent log row", zap.Error(err))
		return
	}
	row.WithFields(fields).WithDecision(decisionID)
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		row.WithRequestID(requestID)
	}
	if err := s.logRepo.Append(ctx, row); err != nil {
		s.logger.Error("Failed to append agent log", zap.Error(err))
	}
}

// List retrieves log rows matching the filter, newest first
func (s *LogService) List(ctx context.Context, orgID uuid.UUID, filter LogListFilter) ([]LogResponse, int64, error) {
	q := agent.LogQuery{
		Level:    agent.LogLevel(filter.Level),
		Category: agent.LogCategory(filter.Category),
		Since:    filter.Since,
		Until:    filter.Until,
	}
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}

	logs, err := s.logRepo.Query(ctx, orgID, q, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.logRepo.Count(ctx, orgID, q)
	if err != nil {
		return nil, 0, err
	}
	return ToLogResponses(logs), total, nil
}
