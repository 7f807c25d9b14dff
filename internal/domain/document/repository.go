package document

import (
	"context"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentRepository defines the interface for document metadata persistence
type DocumentRepository interface {
	// FindByID finds a document by ID within an organization
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Document, error)

	// FindAll finds documents matching the filter. Recognized filter keys:
	// status. Filter.Search matches title and file name.
	FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Document, error)

	// Save creates or updates a document
	Save(ctx context.Context, d *Document) error

	// Count counts documents matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// SumSize returns the total stored bytes of non-deleted documents
	SumSize(ctx context.Context, orgID uuid.UUID) (int64, error)
}
