package document

import (
	"fmt"
	"strings"

	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentStatus represents the lifecycle state of a document
type DocumentStatus string

const (
	DocumentStatusActive   DocumentStatus = "active"
	DocumentStatusArchived DocumentStatus = "archived"
	DocumentStatusDeleted  DocumentStatus = "deleted"
)

// maxFileSize is the largest accepted upload in bytes (50 MiB).
const maxFileSize = 50 << 20

// Document is the metadata aggregate for a stored file. The bytes live in
// object storage under StorageKey; this row owns versioning and lifecycle.
type Document struct {
	shared.OrgAggregateRoot
	Title       string
	FileName    string
	ContentType string
	Size        int64
	StorageKey  string
	Revision    int
	Status      DocumentStatus
	UploadedBy  uuid.UUID
}

// NewDocument creates a new document with validation
func NewDocument(orgID, uploadedBy uuid.UUID, title, fileName, contentType string, size int64) (*Document, error) {
	title = strings.TrimSpace(title)
	fileName = strings.TrimSpace(fileName)

	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "file name is required")
	}
	if title == "" {
		title = fileName
	}
	if len(title) > 255 {
		return nil, shared.NewDomainError("INVALID_INPUT", "title must not exceed 255 characters")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "file must not be empty")
	}
	if size > maxFileSize {
		return nil, shared.NewDomainError("INVALID_INPUT", "file exceeds the maximum allowed size")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	d := &Document{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Title:            title,
		FileName:         fileName,
		ContentType:      contentType,
		Size:             size,
		Revision:         1,
		Status:           DocumentStatusActive,
		UploadedBy:       uploadedBy,
	}
	d.StorageKey = buildStorageKey(orgID, d.GetID(), d.Revision, fileName)
	d.AddDomainEvent(NewDocumentUploadedEvent(d.GetID(), orgID, fileName, size))
	return d, nil
}

// buildStorageKey derives the object storage key for a document revision.
// Keys are immutable once written; a new version gets a new key.
func buildStorageKey(orgID, docID uuid.UUID, version int, fileName string) string {
	return fmt.Sprintf("documents/%s/%s/v%d/%s", orgID, docID, version, sanitizeFileName(fileName))
}

// sanitizeFileName strips path separators and control characters so a
// user-supplied name cannot escape the document prefix.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// UpdateMetadata changes the document's title
func (d *Document) UpdateMetadata(title string) error {
	if d.Status == DocumentStatusDeleted {
		return shared.NewDomainError("INVALID_STATE", "cannot update a deleted document")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_INPUT", "title is required")
	}
	if len(title) > 255 {
		return shared.NewDomainError("INVALID_INPUT", "title must not exceed 255 characters")
	}
	d.Title = title
	d.Touch()
	d.IncrementVersion()
	return nil
}

// NewRevision registers a fresh upload of the same document. The previous
// revision's object is kept; only the metadata row advances.
func (d *Document) NewRevision(fileName, contentType string, size int64, uploadedBy uuid.UUID) error {
	if d.Status != DocumentStatusActive {
		return shared.NewDomainError("INVALID_STATE", "only active documents accept new revisions")
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return shared.NewDomainError("INVALID_INPUT", "file name is required")
	}
	if size <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "file must not be empty")
	}
	if size > maxFileSize {
		return shared.NewDomainError("INVALID_INPUT", "file exceeds the maximum allowed size")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	d.Revision++
	d.FileName = fileName
	d.ContentType = contentType
	d.Size = size
	d.UploadedBy = uploadedBy
	d.StorageKey = buildStorageKey(d.OrgID, d.GetID(), d.Revision, fileName)
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentVersionedEvent(d.GetID(), d.OrgID, d.Revision))
	return nil
}

// Archive moves the document out of active listings
func (d *Document) Archive() error {
	if d.Status == DocumentStatusDeleted {
		return shared.NewDomainError("INVALID_STATE", "cannot archive a deleted document")
	}
	if d.Status == DocumentStatusArchived {
		return nil
	}
	d.Status = DocumentStatusArchived
	d.Touch()
	d.IncrementVersion()
	return nil
}

// Restore returns an archived document to active
func (d *Document) Restore() error {
	if d.Status != DocumentStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "only archived documents can be restored")
	}
	d.Status = DocumentStatusActive
	d.Touch()
	d.IncrementVersion()
	return nil
}

// Delete tombstones the document. The row and the stored objects remain.
func (d *Document) Delete() error {
	if d.Status == DocumentStatusDeleted {
		return nil
	}
	d.Status = DocumentStatusDeleted
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentDeletedEvent(d.GetID(), d.OrgID))
	return nil
}

// IsDownloadable reports whether the document content may be served
func (d *Document) IsDownloadable() bool {
	return d.Status == DocumentStatusActive || d.Status == DocumentStatusArchived
}
