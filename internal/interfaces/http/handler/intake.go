package handler

import (
	pipelineapp "github.com/astralisone/platform/internal/application/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IntakeHandler handles intake request endpoints. Submit is public; the
// rest require authentication.
type IntakeHandler struct {
	BaseHandler
	intakeService *pipelineapp.IntakeService
}

// NewIntakeHandler creates a new IntakeHandler
func NewIntakeHandler(intakeService *pipelineapp.IntakeService) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService}
}

// Submit accepts an intake request from the public form. The organization
// is addressed by ID in the path since the caller is unauthenticated.
func (h *IntakeHandler) Submit(c *gin.Context) {
	orgID, err := parseIDParam(c, "orgId")
	if err != nil {
		h.BadRequest(c, "Invalid organization ID")
		return
	}

	var req pipelineapp.SubmitIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	intake, err := h.intakeService.Submit(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, intake)
}

// Get returns one intake request
func (h *IntakeHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	intakeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid intake request ID")
		return
	}

	intake, err := h.intakeService.GetByID(c.Request.Context(), orgID, intakeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, intake)
}

// List returns intake requests matching the query
func (h *IntakeHandler) List(c *gin.Context) {
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

	requests, total, err := h.intakeService.List(c.Request.Context(), orgID, pipelineapp.IntakeListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Search:   listReq.Search,
		Status:   c.Query("status"),
		Source:   c.Query("source"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, requests, total, listReq.Page, listReq.PageSize)
}

// Triage routes an intake request to a pipeline
func (h *IntakeHandler) Triage(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	intakeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid intake request ID")
		return
	}

	var req pipelineapp.TriageIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var triagedBy *uuid.UUID
	if userID, err := getUserID(c); err == nil {
		triagedBy = &userID
	}

	intake, err := h.intakeService.Triage(c.Request.Context(), orgID, intakeID, req, triagedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, intake)
}

// Convert turns a triaged intake request into a task
func (h *IntakeHandler) Convert(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	intakeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid intake request ID")
		return
	}

	intake, err := h.intakeService.Convert(c.Request.Context(), orgID, intakeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, intake)
}

// Reject declines an intake request
func (h *IntakeHandler) Reject(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	intakeID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid intake request ID")
		return
	}

	var req pipelineapp.RejectIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	intake, err := h.intakeService.Reject(c.Request.Context(), orgID, intakeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, intake)
}
