package handler

import (
	"context"

	pipelineapp "github.com/astralisone/platform/internal/application/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	BaseHandler
	taskService *pipelineapp.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *pipelineapp.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// Create creates a task on a pipeline
func (h *TaskHandler) Create(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req pipelineapp.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, task)
}

// Get returns one task
func (h *TaskHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetByID(c.Request.Context(), orgID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// List returns tasks matching the query
func (h *TaskHandler) List(c *gin.Context) {
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

	filter := pipelineapp.TaskListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Search:   listReq.Search,
		Priority: c.Query("priority"),
		Status:   c.Query("status"),
	}
	if id, err := uuid.Parse(c.Query("pipeline_id")); err == nil {
		filter.PipelineID = &id
	}
	if id, err := uuid.Parse(c.Query("stage_id")); err == nil {
		filter.StageID = &id
	}
	if id, err := uuid.Parse(c.Query("assignee_id")); err == nil {
		filter.AssigneeID = &id
	}

	tasks, total, err := h.taskService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, tasks, total, listReq.Page, listReq.PageSize)
}

// ListOverdue returns open tasks past their due date
func (h *TaskHandler) ListOverdue(c *gin.Context) {
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

	tasks, err := h.taskService.ListOverdue(c.Request.Context(), orgID, pipelineapp.TaskListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tasks)
}

// Update changes a task's fields
func (h *TaskHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	var req pipelineapp.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), orgID, taskID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Move moves a task to another stage
func (h *TaskHandler) Move(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	var req pipelineapp.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Move(c.Request.Context(), orgID, taskID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Assign sets or clears a task's assignee
func (h *TaskHandler) Assign(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	var req pipelineapp.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), orgID, taskID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Complete marks a task done
func (h *TaskHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.taskService.Complete)
}

// Reopen reopens a completed task
func (h *TaskHandler) Reopen(c *gin.Context) {
	h.lifecycle(c, h.taskService.Reopen)
}

// Archive archives a task
func (h *TaskHandler) Archive(c *gin.Context) {
	h.lifecycle(c, h.taskService.Archive)
}

func (h *TaskHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, orgID, taskID uuid.UUID) (*pipelineapp.TaskResponse, error)) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := fn(c.Request.Context(), orgID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}
