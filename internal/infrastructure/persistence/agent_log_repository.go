package persistence

import (
	"context"
	"time"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLogRepository implements LogRepository using GORM
type GormLogRepository struct {
	db *gorm.DB
}

// NewGormLogRepository creates a new GormLogRepository
func NewGormLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

// Append writes log rows in one batch
func (r *GormLogRepository) Append(ctx context.Context, logs ...*agent.AgentLog) error {
	if len(logs) == 0 {
		return nil
	}
	logModels := make([]*models.AgentLogModel, len(logs))
	for i, l := range logs {
		logModels[i] = models.AgentLogModelFromDomain(l)
	}
	return r.db.WithContext(ctx).Create(logModels).Error
}

// Query finds log rows matching the query, newest first
func (r *GormLogRepository) Query(ctx context.Context, orgID uuid.UUID, q agent.LogQuery, filter shared.Filter) ([]agent.AgentLog, error) {
	var logModels []models.AgentLogModel
	query := r.applyQuery(r.db.WithContext(ctx).Model(&models.AgentLogModel{}).Where("org_id = ?", orgID), q)
	query = applyPagination(query, filter, "created_at DESC")

	if err := query.Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]agent.AgentLog, len(logModels))
	for i, model := range logModels {
		logs[i] = *model.ToDomain()
	}
	return logs, nil
}

// Count counts log rows matching the query
func (r *GormLogRepository) Count(ctx context.Context, orgID uuid.UUID, q agent.LogQuery) (int64, error) {
	var count int64
	query := r.applyQuery(r.db.WithContext(ctx).Model(&models.AgentLogModel{}).Where("org_id = ?", orgID), q)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteOlderThan prunes log rows older than the cutoff
func (r *GormLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AgentLogModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormLogRepository) applyQuery(query *gorm.DB, q agent.LogQuery) *gorm.DB {
	if q.Level != "" {
		query = query.Where("level = ?", q.Level)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if !q.Since.IsZero() {
		query = query.Where("created_at >= ?", q.Since)
	}
	if !q.Until.IsZero() {
		query = query.Where("created_at < ?", q.Until)
	}
	return query
}

var _ agent.LogRepository = (*GormLogRepository)(nil)
