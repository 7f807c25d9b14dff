package handler

import (
	"context"
	"time"

	schedulingapp "github.com/astralisone/platform/internal/application/scheduling"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler handles calendar event and reminder endpoints
type EventHandler struct {
	BaseHandler
	eventService    *schedulingapp.EventService
	reminderService *schedulingapp.ReminderService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService *schedulingapp.EventService, reminderService *schedulingapp.ReminderService) *EventHandler {
	return &EventHandler{eventService: eventService, reminderService: reminderService}
}

// Create schedules an event. Conflicting proposals come back as a 409
// carrying the conflicts and alternative slots unless force is set.
func (h *EventHandler) Create(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req schedulingapp.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, event)
}

// Get returns one event
func (h *EventHandler) Get(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	event, err := h.eventService.GetByID(c.Request.Context(), orgID, eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// List returns events overlapping the requested range
func (h *EventHandler) List(c *gin.Context) {
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

	filter := schedulingapp.EventListFilter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		Status:   c.Query("status"),
		Source:   c.Query("source"),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = to
	}

	events, err := h.eventService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, events)
}

// Update changes an event's descriptive fields
func (h *EventHandler) Update(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	var req schedulingapp.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), orgID, eventID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// Reschedule moves an event to a new time
func (h *EventHandler) Reschedule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	var req schedulingapp.RescheduleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	event, err := h.eventService.Reschedule(c.Request.Context(), orgID, eventID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// Confirm confirms a tentative event
func (h *EventHandler) Confirm(c *gin.Context) {
	h.lifecycle(c, h.eventService.Confirm)
}

// Cancel cancels an event
func (h *EventHandler) Cancel(c *gin.Context) {
	h.lifecycle(c, h.eventService.Cancel)
}

// Complete marks an event as completed
func (h *EventHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.eventService.Complete)
}

// CheckConflicts reports whether a proposed interval collides with
// existing events
func (h *EventHandler) CheckConflicts(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req schedulingapp.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.eventService.CheckConflicts(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListReminders returns the reminders attached to an event
func (h *EventHandler) ListReminders(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	reminders, err := h.reminderService.ListByEvent(c.Request.Context(), orgID, eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reminders)
}

// CancelReminder cancels a pending reminder
func (h *EventHandler) CancelReminder(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	reminderID, err := parseIDParam(c, "reminderId")
	if err != nil {
		h.BadRequest(c, "Invalid reminder ID")
		return
	}

	reminder, err := h.reminderService.Cancel(c.Request.Context(), orgID, reminderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reminder)
}

func (h *EventHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, orgID, eventID uuid.UUID) (*schedulingapp.EventResponse, error)) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	eventID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid event ID")
		return
	}

	event, err := fn(c.Request.Context(), orgID, eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}
