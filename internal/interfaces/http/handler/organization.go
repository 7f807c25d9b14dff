package handler

import (
	"context"

	identityapp "github.com/astralisone/platform/internal/application/identity"
	"github.com/astralisone/platform/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrganizationHandler handles organization endpoints
type OrganizationHandler struct {
	BaseHandler
	orgService *identityapp.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgService *identityapp.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// SetPlanRequest is the request body for a plan change
type SetPlanRequest struct {
	Plan string `json:"plan" binding:"required,oneof=free starter growth enterprise"`
}

// Signup registers a new organization with its owner account.
// This is a public endpoint.
func (h *OrganizationHandler) Signup(c *gin.Context) {
	var req identityapp.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Get returns the authenticated user's organization
func (h *OrganizationHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	org, err := h.orgService.GetByID(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Update changes the organization's name or settings
func (h *OrganizationHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req identityapp.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// SetPlan changes the organization's subscription plan
func (h *OrganizationHandler) SetPlan(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	org, err := h.orgService.SetPlan(c.Request.Context(), orgID, req.Plan)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Suspend puts the organization on hold. Logins keep working so an owner
// can resolve the suspension, but write operations are refused downstream.
func (h *OrganizationHandler) Suspend(c *gin.Context) {
	h.setStatus(c, h.orgService.Suspend)
}

// Activate lifts a suspension
func (h *OrganizationHandler) Activate(c *gin.Context) {
	h.setStatus(c, h.orgService.Activate)
}

// Deactivate permanently closes the organization
func (h *OrganizationHandler) Deactivate(c *gin.Context) {
	h.setStatus(c, h.orgService.Deactivate)
}

func (h *OrganizationHandler) setStatus(c *gin.Context, fn func(ctx context.Context, orgID uuid.UUID) (*identityapp.OrganizationResponse, error)) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	org, err := fn(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// bindListRequest binds common pagination query parameters
func bindListRequest(c *gin.Context) (dto.ListRequest, error) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return req, err
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}
	return req, nil
}
