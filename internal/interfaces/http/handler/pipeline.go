package handler

import (
	pipelineapp "github.com/astralisone/platform/internal/application/pipeline"
	"github.com/gin-gonic/gin"
)

// PipelineHandler handles pipeline and stage endpoints
type PipelineHandler struct {
	BaseHandler
	pipelineService *pipelineapp.PipelineService
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(pipelineService *pipelineapp.PipelineService) *PipelineHandler {
	return &PipelineHandler{pipelineService: pipelineService}
}

// Create creates a pipeline
func (h *PipelineHandler) Create(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req pipelineapp.CreatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.pipelineService.Create(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// Get returns one pipeline with its stages
func (h *PipelineHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pipelineID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid pipeline ID")
		return
	}

	p, err := h.pipelineService.GetByID(c.Request.Context(), orgID, pipelineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// List returns the organization's pipelines
func (h *PipelineHandler) List(c *gin.Context) {
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

	pipelines, total, err := h.pipelineService.List(c.Request.Context(), orgID, pipelineapp.PipelineListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Search:   listReq.Search,
		Status:   c.Query("status"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, pipelines, total, listReq.Page, listReq.PageSize)
}

// Update changes a pipeline's name, description or default flag
func (h *PipelineHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pipelineID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid pipeline ID")
		return
	}

	var req pipelineapp.UpdatePipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.pipelineService.Update(c.Request.Context(), orgID, pipelineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Archive archives a pipeline
func (h *PipelineHandler) Archive(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pipelineID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid pipeline ID")
		return
	}

	p, err := h.pipelineService.Archive(c.Request.Context(), orgID, pipelineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// AddStage appends a stage to a pipeline
func (h *PipelineHandler) AddStage(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pipelineID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid pipeline ID")
		return
	}

	var req pipelineapp.AddStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.pipelineService.AddStage(c.Request.Context(), orgID, pipelineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// UpdateStage renames a stage or changes its WIP limit
func (h *PipelineHandler) UpdateStage(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pipelineID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid pipeline ID")
		return
	}
	stageID, err := parseIDParam(c, "stageId")
	if err != nil {
		h.BadRequest(c, "Invalid stage ID")
		return
	}

	var req pipelineapp.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.pipelineService.UpdateStage(c.Request.Context(), orgID, pipelineID, stageID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ReorderStage moves a stage to a new position
func (h *PipelineHandler) ReorderStage(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pipelineID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid pipeline ID")
		return
	}
	stageID, err := parseIDParam(c, "stageId")
	if err != nil {
		h.BadRequest(c, "Invalid stage ID")
		return
	}

	var req pipelineapp.ReorderStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.pipelineService.ReorderStage(c.Request.Context(), orgID, pipelineID, stageID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// RemoveStage deletes an empty stage
func (h *PipelineHandler) RemoveStage(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	pipelineID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid pipeline ID")
		return
	}
	stageID, err := parseIDParam(c, "stageId")
	if err != nil {
		h.BadRequest(c, "Invalid stage ID")
		return
	}

	p, err := h.pipelineService.RemoveStage(c.Request.Context(), orgID, pipelineID, stageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}
