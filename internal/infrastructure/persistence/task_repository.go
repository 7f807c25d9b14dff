package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTaskRepository implements TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByID finds a task by ID within an organization
func (r *GormTaskRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*pipeline.Task, error) {
	var model models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds tasks matching the filter
func (r *GormTaskRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]pipeline.Task, error) {
	var taskModels []models.TaskModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TaskModel{}).Where("org_id = ?", orgID), filter)

	if err := query.Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]pipeline.Task, len(taskModels))
	for i, model := range taskModels {
		tasks[i] = *model.ToDomain()
	}
	return tasks, nil
}

// FindOverdue finds open tasks past their due date
func (r *GormTaskRepository) FindOverdue(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]pipeline.Task, error) {
	var taskModels []models.TaskModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TaskModel{}).
			Where("org_id = ? AND status = ? AND due_date IS NOT NULL AND due_date < ?",
				orgID, pipeline.TaskStatusOpen, time.Now()),
		filter,
	)

	if err := query.Find(&taskModels).Error; err != nil {
		return nil, err
	}

	tasks := make([]pipeline.Task, len(taskModels))
	for i, model := range taskModels {
		tasks[i] = *model.ToDomain()
	}
	return tasks, nil
}

// Save creates or updates a task
func (r *GormTaskRepository) Save(ctx context.Context, t *pipeline.Task) error {
	model := models.TaskModelFromDomain(t)
	return saveVersioned(ctx, r.db, model, t.GetVersion())
}

// Count counts tasks matching the filter
func (r *GormTaskRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.TaskModel{}).Where("org_id = ?", orgID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStage counts open tasks in a stage, used for WIP limit checks
func (r *GormTaskRepository) CountByStage(ctx context.Context, orgID, pipelineID, stageID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Where("org_id = ? AND pipeline_id = ? AND stage_id = ? AND status = ?",
			orgID, pipelineID, stageID, pipeline.TaskStatusOpen).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTaskRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPagination(query, filter, "created_at DESC")
}

func (r *GormTaskRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "pipeline_id":
			query = query.Where("pipeline_id = ?", value)
		case "stage_id":
			query = query.Where("stage_id = ?", value)
		case "assignee_id":
			query = query.Where("assignee_id = ?", value)
		case "priority":
			query = query.Where("priority = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		}
	}
	return query
}

var _ pipeline.TaskRepository = (*GormTaskRepository)(nil)
