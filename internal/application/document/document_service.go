package document

import (
	"context"
	"time"

	"github.com/astralisone/platform/internal/domain/document"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// uploadURLExpiry bounds how long a presigned PUT URL stays valid
const uploadURLExpiry = 15 * time.Minute

// downloadURLExpiry bounds how long a presigned GET URL stays valid
const downloadURLExpiry = 15 * time.Minute

// DocumentService handles document metadata and the presigned upload and
// download flow against object storage.
type DocumentService struct {
	documentRepo document.DocumentRepository
	storage      ObjectStorage
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentRepo document.DocumentRepository,
	storage ObjectStorage,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		storage:      storage,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Upload registers a document and returns the presigned PUT URL the client
// uploads the bytes to. The client calls ConfirmUpload afterwards.
func (s *DocumentService) Upload(ctx context.Context, orgID, uploadedBy uuid.UUID, req UploadDocumentRequest) (*UploadResponse, error) {
	d, err := document.NewDocument(orgID, uploadedBy, req.Title, req.FileName, req.ContentType, req.Size)
	if err != nil {
		return nil, err
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, d.StorageKey, d.ContentType, uploadURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign upload", zap.Error(err), zap.String("org_id", orgID.String()))
		return nil, err
	}

	if err := s.documentRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, d)

	s.logger.Info("Document upload initiated",
		zap.String("document_id", d.GetID().String()),
		zap.String("file_name", d.FileName),
		zap.Int64("size", d.Size),
		zap.String("org_id", orgID.String()))

	return &UploadResponse{
		Document:  ToDocumentResponse(d),
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmUpload verifies the object behind the current revision actually
// arrived in storage.
func (s *DocumentService) ConfirmUpload(ctx context.Context, orgID, documentID uuid.UUID) (*DocumentResponse, error) {
	d, err := s.documentRepo.FindByID(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	exists, err := s.storage.ObjectExists(ctx, d.StorageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_INCOMPLETE", "The file has not been uploaded yet")
	}
	response := ToDocumentResponse(d)
	return &response, nil
}

// GetByID retrieves document metadata
func (s *DocumentService) GetByID(ctx context.Context, orgID, documentID uuid.UUID) (*DocumentResponse, error) {
	d, err := s.documentRepo.FindByID(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	response := ToDocumentResponse(d)
	return &response, nil
}

// List retrieves documents matching the filter
func (s *DocumentService) List(ctx context.Context, orgID uuid.UUID, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	docs, err := s.documentRepo.FindAll(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.documentRepo.Count(ctx, orgID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToDocumentResponses(docs), total, nil
}

// Download returns a presigned GET URL for the current revision
func (s *DocumentService) Download(ctx context.Context, orgID, documentID uuid.UUID) (*DownloadResponse, error) {
	d, err := s.documentRepo.FindByID(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if !d.IsDownloadable() {
		return nil, shared.NewDomainError("INVALID_STATE", "Deleted documents cannot be downloaded")
	}

	downloadURL, expiresAt, err := s.storage.GenerateDownloadURL(ctx, d.StorageKey, downloadURLExpiry)
	if err != nil {
		return nil, err
	}
	return &DownloadResponse{
		DownloadURL: downloadURL,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		ExpiresAt:   expiresAt,
	}, nil
}

// UpdateMetadata changes the document title
func (s *DocumentService) UpdateMetadata(ctx context.Context, orgID, documentID uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	return s.transition(ctx, orgID, documentID, func(d *document.Document) error {
		return d.UpdateMetadata(req.Title)
	})
}

// NewVersion registers a new revision and returns a presigned PUT URL for it.
// The previous revision's object stays in storage.
func (s *DocumentService) NewVersion(ctx context.Context, orgID, uploadedBy, documentID uuid.UUID, req NewVersionRequest) (*UploadResponse, error) {
	d, err := s.documentRepo.FindByID(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if err := d.NewRevision(req.FileName, req.ContentType, req.Size, uploadedBy); err != nil {
		return nil, err
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, d.StorageKey, d.ContentType, uploadURLExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, d)

	return &UploadResponse{
		Document:  ToDocumentResponse(d),
		UploadURL: uploadURL,
		ExpiresAt: expiresAt,
	}, nil
}

// Archive moves the document out of active listings
func (s *DocumentService) Archive(ctx context.Context, orgID, documentID uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, orgID, documentID, func(d *document.Document) error {
		return d.Archive()
	})
}

// Restore returns an archived document to active
func (s *DocumentService) Restore(ctx context.Context, orgID, documentID uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, orgID, documentID, func(d *document.Document) error {
		return d.Restore()
	})
}

// Delete tombstones the document. With purgeContent the current revision's
// object is removed from storage as well.
func (s *DocumentService) Delete(ctx context.Context, orgID, documentID uuid.UUID, purgeContent bool) (*DocumentResponse, error) {
	d, err := s.documentRepo.FindByID(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if err := d.Delete(); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, d)

	if purgeContent {
		if err := s.storage.DeleteObject(ctx, d.StorageKey); err != nil {
			s.logger.Warn("Failed to purge document content",
				zap.String("document_id", d.GetID().String()),
				zap.Error(err))
		}
	}

	response := ToDocumentResponse(d)
	return &response, nil
}

// Usage reports the organization's stored bytes across non-deleted documents
func (s *DocumentService) Usage(ctx context.Context, orgID uuid.UUID) (*StorageUsageResponse, error) {
	total, err := s.documentRepo.SumSize(ctx, orgID)
	if err != nil {
		return nil, err
	}
	count, err := s.documentRepo.Count(ctx, orgID, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	return &StorageUsageResponse{TotalBytes: total, DocumentCount: count}, nil
}

func (s *DocumentService) transition(ctx context.Context, orgID, documentID uuid.UUID, fn func(*document.Document) error) (*DocumentResponse, error) {
	d, err := s.documentRepo.FindByID(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, d)

	response := ToDocumentResponse(d)
	return &response, nil
}

func (s *DocumentService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}
