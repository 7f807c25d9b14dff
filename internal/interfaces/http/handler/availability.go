package handler

import (
	"time"

	schedulingapp "github.com/astralisone/platform/internal/application/scheduling"
	"github.com/gin-gonic/gin"
)

// AvailabilityHandler handles availability rule and slot suggestion endpoints
type AvailabilityHandler struct {
	BaseHandler
	availabilityService *schedulingapp.AvailabilityService
}

// NewAvailabilityHandler creates a new AvailabilityHandler
func NewAvailabilityHandler(availabilityService *schedulingapp.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// CreateWeeklyRule adds a weekly availability window
func (h *AvailabilityHandler) CreateWeeklyRule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req schedulingapp.CreateWeeklyRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.availabilityService.CreateWeeklyRule(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rule)
}

// CreateBlackoutRule blocks out a whole day
func (h *AvailabilityHandler) CreateBlackoutRule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req schedulingapp.CreateBlackoutRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.availabilityService.CreateBlackoutRule(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rule)
}

// GetRule returns one availability rule
func (h *AvailabilityHandler) GetRule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	ruleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	rule, err := h.availabilityService.GetRule(c.Request.Context(), orgID, ruleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// ListRules returns all availability rules
func (h *AvailabilityHandler) ListRules(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	rules, err := h.availabilityService.ListRules(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rules)
}

// UpdateRule changes a rule's window, label or active flag
func (h *AvailabilityHandler) UpdateRule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	ruleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	var req schedulingapp.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.availabilityService.UpdateRule(c.Request.Context(), orgID, ruleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// DeleteRule removes a rule
func (h *AvailabilityHandler) DeleteRule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	ruleID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return
	}

	if err := h.availabilityService.DeleteRule(c.Request.Context(), orgID, ruleID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SuggestSlots returns free slots for a duration within a range, best first
func (h *AvailabilityHandler) SuggestSlots(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req schedulingapp.SuggestSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	slots, err := h.availabilityService.SuggestSlots(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, slots)
}

// DayLoad reports booking load for one day (?date=YYYY-MM-DD)
func (h *AvailabilityHandler) DayLoad(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing date, expected YYYY-MM-DD")
		return
	}

	load, err := h.availabilityService.DayLoad(c.Request.Context(), orgID, day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, load)
}

// RangeLoad reports booking load per day over a date range
func (h *AvailabilityHandler) RangeLoad(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing from date, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing to date, expected YYYY-MM-DD")
		return
	}

	loads, err := h.availabilityService.RangeLoad(c.Request.Context(), orgID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, loads)
}
