package persistence

import (
	"context"
	"errors"

	"github.com/astralisone/platform/internal/domain/document"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by ID within an organization
func (r *GormDocumentRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*document.Document, error) {
	var model models.DocumentModel
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

// FindAll finds documents matching the filter. Deleted documents are excluded
// unless the status filter asks for them explicitly.
func (r *GormDocumentRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]document.Document, error) {
	var docModels []models.DocumentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("org_id = ?", orgID), filter)

	if err := query.Find(&docModels).Error; err != nil {
		return nil, err
	}

	docs := make([]document.Document, len(docModels))
	for i, model := range docModels {
		docs[i] = *model.ToDomain()
	}
	return docs, nil
}

// Save creates or updates a document
func (r *GormDocumentRepository) Save(ctx context.Context, d *document.Document) error {
	model := models.DocumentModelFromDomain(d)
	return saveVersioned(ctx, r.db, model, d.GetVersion())
}

// Count counts documents matching the filter
func (r *GormDocumentRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.DocumentModel{}).Where("org_id = ?", orgID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumSize returns the total stored bytes of non-deleted documents
func (r *GormDocumentRepository) SumSize(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("org_id = ? AND status <> ?", orgID, document.DocumentStatusDeleted).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	return applyPagination(query, filter, "created_at DESC")
}

func (r *GormDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR file_name ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status <> ?", document.DocumentStatusDeleted)
	}
	return query
}

var _ document.DocumentRepository = (*GormDocumentRepository)(nil)
