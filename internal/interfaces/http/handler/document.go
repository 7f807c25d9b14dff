package handler

import (
	"context"
	"strconv"

	documentapp "github.com/astralisone/platform/internal/application/document"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles document endpoints
type DocumentHandler struct {
	BaseHandler
	documentService *documentapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *documentapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload registers a document and returns a presigned upload URL
func (h *DocumentHandler) Upload(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req documentapp.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.documentService.Upload(c.Request.Context(), orgID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ConfirmUpload verifies the object landed in storage and activates the document
func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	documentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	doc, err := h.documentService.ConfirmUpload(c.Request.Context(), orgID, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Get returns one document's metadata
func (h *DocumentHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	documentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), orgID, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// List returns documents matching the query
func (h *DocumentHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	listReq, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	docs, total, err := h.documentService.List(c.Request.Context(), orgID, documentapp.DocumentListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Search:   listReq.Search,
		Status:   c.Query("status"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, listReq.Page, listReq.PageSize)
}

// Download returns a presigned download URL
func (h *DocumentHandler) Download(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	documentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	result, err := h.documentService.Download(c.Request.Context(), orgID, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Update changes a document's metadata
func (h *DocumentHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	documentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	var req documentapp.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.documentService.UpdateMetadata(c.Request.Context(), orgID, documentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// NewVersion starts a new revision and returns a presigned upload URL
func (h *DocumentHandler) NewVersion(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	documentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	var req documentapp.NewVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.documentService.NewVersion(c.Request.Context(), orgID, userID, documentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Archive archives a document
func (h *DocumentHandler) Archive(c *gin.Context) {
	h.lifecycle(c, h.documentService.Archive)
}

// Restore restores an archived document
func (h *DocumentHandler) Restore(c *gin.Context) {
	h.lifecycle(c, h.documentService.Restore)
}

// Delete tombstones a document. With ?purge=true the stored object is
// removed as well.
func (h *DocumentHandler) Delete(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	documentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}
	purge, _ := strconv.ParseBool(c.Query("purge"))

	doc, err := h.documentService.Delete(c.Request.Context(), orgID, documentID, purge)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Usage reports the organization's storage consumption
func (h *DocumentHandler) Usage(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	usage, err := h.documentService.Usage(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, usage)
}

func (h *DocumentHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, orgID, documentID uuid.UUID) (*documentapp.DocumentResponse, error)) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	documentID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	doc, err := fn(c.Request.Context(), orgID, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}
