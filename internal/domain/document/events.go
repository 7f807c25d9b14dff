package document

import (
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeDocument = "Document"

// Event type constants
const (
	EventTypeDocumentUploaded  = "DocumentUploaded"
	EventTypeDocumentVersioned = "DocumentVersioned"
	EventTypeDocumentDeleted   = "DocumentDeleted"
)

// DocumentUploadedEvent is raised when a document is first uploaded
type DocumentUploadedEvent struct {
	shared.BaseDomainEvent
	FileName string
	Size     int64
}

// NewDocumentUploadedEvent creates a new document uploaded event
func NewDocumentUploadedEvent(documentID, orgID uuid.UUID, fileName string, size int64) *DocumentUploadedEvent {
	return &DocumentUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentUploaded, AggregateTypeDocument, documentID, orgID),
		FileName:        fileName,
		Size:            size,
	}
}

// DocumentVersionedEvent is raised when a new revision is uploaded
type DocumentVersionedEvent struct {
	shared.BaseDomainEvent
	Revision int
}

// NewDocumentVersionedEvent creates a new document versioned event
func NewDocumentVersionedEvent(documentID, orgID uuid.UUID, revision int) *DocumentVersionedEvent {
	return &DocumentVersionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentVersioned, AggregateTypeDocument, documentID, orgID),
		Revision:        revision,
	}
}

// DocumentDeletedEvent is raised when a document is soft deleted
type DocumentDeletedEvent struct {
	shared.BaseDomainEvent
}

// NewDocumentDeletedEvent creates a new document deleted event
func NewDocumentDeletedEvent(documentID, orgID uuid.UUID) *DocumentDeletedEvent {
	return &DocumentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentDeleted, AggregateTypeDocument, documentID, orgID),
	}
}
