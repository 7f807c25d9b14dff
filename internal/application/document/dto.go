package document

import (
	"time"

	"github.com/astralisone/platform/internal/domain/document"
	"github.com/google/uuid"
)

// UploadDocumentRequest contains the input for starting an upload
type UploadDocumentRequest struct {
	Title       string `json:"title" binding:"omitempty,max=255"`
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"omitempty,max=255"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// UpdateDocumentRequest contains the input for metadata update
type UpdateDocumentRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// NewVersionRequest contains the input for uploading a new revision
type NewVersionRequest struct {
	FileName    string `json:"file_name" binding:"required,min=1,max=255"`
	ContentType string `json:"content_type" binding:"omitempty,max=255"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// DocumentResponse is the API shape of a document
type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Revision    int       `json:"revision"`
	Status      string    `json:"status"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UploadResponse carries the document plus the presigned PUT URL the client
// uploads the bytes to.
type UploadResponse struct {
	Document  DocumentResponse `json:"document"`
	UploadURL string           `json:"upload_url"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// DownloadResponse carries a presigned GET URL for the current revision
type DownloadResponse struct {
	DownloadURL string    `json:"download_url"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StorageUsageResponse reports an organization's stored bytes
type StorageUsageResponse struct {
	TotalBytes    int64 `json:"total_bytes"`
	DocumentCount int64 `json:"document_count"`
}

// ToDocumentResponse maps a domain document to its API shape
func ToDocumentResponse(d *document.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.GetID(),
		Title:       d.Title,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		Revision:    d.Revision,
		Status:      string(d.Status),
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// ToDocumentResponses maps a slice of documents
func ToDocumentResponses(docs []document.Document) []DocumentResponse {
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentResponse(&docs[i])
	}
	return out
}

// DocumentListFilter carries list query parameters
type DocumentListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
}
