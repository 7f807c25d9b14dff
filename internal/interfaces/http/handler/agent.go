package handler

import (
	"time"

	agentapp "github.com/astralisone/platform/internal/application/agent"
	"github.com/gin-gonic/gin"
)

// AgentHandler handles calendar chat, intake classification and decision review
type AgentHandler struct {
	BaseHandler
	chat            *agentapp.CalendarChat
	classifier      *agentapp.IntakeClassifier
	decisionService *agentapp.DecisionService
	logService      *agentapp.LogService
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(
	chat *agentapp.CalendarChat,
	classifier *agentapp.IntakeClassifier,
	decisionService *agentapp.DecisionService,
	logService *agentapp.LogService,
) *AgentHandler {
	return &AgentHandler{
		chat:            chat,
		classifier:      classifier,
		decisionService: decisionService,
		logService:      logService,
	}
}

// Chat runs one turn of the scheduling conversation
func (h *AgentHandler) Chat(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req agentapp.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ClassifyIntake runs classification for one intake request
func (h *AgentHandler) ClassifyIntake(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req agentapp.ClassifyIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.classifier.Classify(c.Request.Context(), orgID, req.IntakeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetDecision returns one agent decision
func (h *AgentHandler) GetDecision(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	decisionID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid decision ID")
		return
	}

	decision, err := h.decisionService.GetByID(c.Request.Context(), orgID, decisionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, decision)
}

// ListDecisions returns agent decisions, newest first
func (h *AgentHandler) ListDecisions(c *gin.Context) {
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
	filter := agentapp.DecisionListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Kind:     c.Query("kind"),
		Status:   c.Query("status"),
	}

	decisions, total, err := h.decisionService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, decisions, total, filter.Page, filter.PageSize)
}

// ApproveDecision approves a proposed decision and executes it
func (h *AgentHandler) ApproveDecision(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	reviewerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	decisionID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid decision ID")
		return
	}

	decision, err := h.decisionService.Approve(c.Request.Context(), orgID, decisionID, reviewerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, decision)
}

// RejectDecision declines a proposed decision
func (h *AgentHandler) RejectDecision(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	reviewerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	decisionID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid decision ID")
		return
	}

	var req agentapp.RejectDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	decision, err := h.decisionService.Reject(c.Request.Context(), orgID, decisionID, reviewerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, decision)
}

// ListLogs returns agent log rows filtered by level, category and time range
func (h *AgentHandler) ListLogs(c *gin.Context) {
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
	filter := agentapp.LogListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Level:    c.Query("level"),
		Category: c.Query("category"),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			h.BadRequest(c, "Invalid since timestamp, expected RFC3339")
			return
		}
		filter.Since = t
	}
	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			h.BadRequest(c, "Invalid until timestamp, expected RFC3339")
			return
		}
		filter.Until = t
	}

	logs, total, err := h.logService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, logs, total, filter.Page, filter.PageSize)
}
