package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/astralisone/platform/internal/infrastructure/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"

	schedulingapp "github.com/astralisone/platform/internal/application/scheduling"
)

const chatSystemPrompt = `You are a scheduling assistant managing a shared team calendar.
Today is %s (UTC). Use the provided tools to inspect the calendar before
answering; never invent events or free slots. When the user asks to book
something, check conflicts first and create the event only when the slot is
free or the user explicitly accepts a conflict. Times are RFC 3339.`

// Tool names exposed to the model
const (
	toolCheckConflicts  = "check_conflicts"
	toolSuggestSlots    = "suggest_slots"
	toolCreateEvent     = "create_event"
	toolListEvents      = "list_events"
	toolGetScheduleLoad = "get_schedule_load"
)

// CalendarChat runs the function-calling conversation loop between the
// model and the scheduling services.
type CalendarChat struct {
	client       llm.Client
	events       *schedulingapp.EventService
	availability *schedulingapp.AvailabilityService
	decisionRepo agent.DecisionRepository
	logService   *LogService
	cfg          config.AgentConfig
	logger       *zap.Logger
}

// NewCalendarChat creates a new CalendarChat
func NewCalendarChat(
	client llm.Client,
	events *schedulingapp.EventService,
	availability *schedulingapp.AvailabilityService,
	decisionRepo agent.DecisionRepository,
	logService *LogService,
	cfg config.AgentConfig,
	logger *zap.Logger,
) *CalendarChat {
	return &CalendarChat{
		client:       client,
		events:       events,
		availability: availability,
		decisionRepo: decisionRepo,
		logService:   logService,
		cfg:          cfg,
		logger:       logger,
	}
}

// Chat runs one user turn through the tool loop. The loop ends when the
// model answers in plain text or the iteration cap is reached.
func (c *CalendarChat) Chat(ctx context.Context, orgID uuid.UUID, req ChatRequest) (*ChatResponse, error) {
	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.SystemMessage(fmt.Sprintf(chatSystemPrompt, time.Now().UTC().Format("Monday, 2 January 2006"))))
	for _, m := range req.History {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.UserMessage(req.Message))

	result := &ChatResponse{}
	maxIterations := c.cfg.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = 8
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		resp, err := c.client.Complete(ctx, llm.CompletionRequest{
			Messages: messages,
			Tools:    chatTools(),
		})
		if err != nil {
			c.logService.Log(ctx, orgID, agent.LogLevelError, agent.LogCategoryChat,
				"Chat turn failed", map[string]interface{}{"error": err.Error(), "iteration": iteration})
			return nil, shared.ErrAgentUnavailable
		}

		if !resp.HasToolCalls() {
			result.Message = resp.Content
			c.logService.Log(ctx, orgID, agent.LogLevelInfo, agent.LogCategoryChat,
				"Chat turn answered", map[string]interface{}{
					"iterations": iteration + 1,
					"tools_used": result.ToolsUsed,
				})
			return result, nil
		}

		messages = append(messages, llm.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			output := c.runTool(ctx, orgID, call, result)
			messages = append(messages, llm.ToolResultMessage(call.ID, call.Function.Name, output))
		}
	}

	c.logService.Log(ctx, orgID, agent.LogLevelWarn, agent.LogCategoryChat,
		"Chat turn hit the tool iteration cap", map[string]interface{}{
			"max_iterations": maxIterations,
			"tools_used":     result.ToolsUsed,
		})
	result.Message = "I could not finish working on that within my step budget. Here is what I found so far; please narrow the request and try again."
	return result, nil
}

// runTool executes one requested tool call. Failures, including malformed
// arguments, come back as a tool error payload for the model to react to.
func (c *CalendarChat) runTool(ctx context.Context, orgID uuid.UUID, call llm.ToolCall, result *ChatResponse) string {
	result.ToolsUsed = append(result.ToolsUsed, call.Function.Name)

	payload, err := c.dispatchTool(ctx, orgID, call, result)
	if err != nil {
		c.logService.Log(ctx, orgID, agent.LogLevelWarn, agent.LogCategoryTool,
			"Tool call failed", map[string]interface{}{
				"tool":  call.Function.Name,
				"error": err.Error(),
			})
		msg, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(msg)
	}

	c.logService.Log(ctx, orgID, agent.LogLevelDebug, agent.LogCategoryTool,
		"Tool call completed", map[string]interface{}{"tool": call.Function.Name})
	return payload
}

func (c *CalendarChat) dispatchTool(ctx context.Context, orgID uuid.UUID, call llm.ToolCall, result *ChatResponse) (string, error) {
	args := []byte(call.Function.Arguments)

	switch call.Function.Name {
	case toolCheckConflicts:
		var in struct {
			StartAt time.Time `json:"start_at"`
			EndAt   time.Time `json:"end_at"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("invalid arguments: %v", err)
		}
		out, err := c.events.CheckConflicts(ctx, orgID, schedulingapp.ConflictCheckRequest{StartAt: in.StartAt, EndAt: in.EndAt})
		if err != nil {
			return "", err
		}
		return marshalToolResult(out)

	case toolSuggestSlots:
		var in struct {
			From            time.Time `json:"from"`
			To              time.Time `json:"to"`
			DurationMinutes int       `json:"duration_minutes"`
			Limit           int       `json:"limit"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("invalid arguments: %v", err)
		}
		out, err := c.availability.SuggestSlots(ctx, orgID, schedulingapp.SuggestSlotsRequest{
			From:            in.From,
			To:              in.To,
			DurationMinutes: in.DurationMinutes,
			Limit:           in.Limit,
		})
		if err != nil {
			return "", err
		}
		return marshalToolResult(out)

	case toolCreateEvent:
		var in struct {
			Title       string    `json:"title"`
			Description string    `json:"description"`
			StartAt     time.Time `json:"start_at"`
			EndAt       time.Time `json:"end_at"`
			Location    string    `json:"location"`
			Attendees   []string  `json:"attendees"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("invalid arguments: %v", err)
		}
		return c.createEvent(ctx, orgID, in.Title, in.Description, in.StartAt, in.EndAt, in.Location, in.Attendees, result)

	case toolListEvents:
		var in struct {
			From time.Time `json:"from"`
			To   time.Time `json:"to"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("invalid arguments: %v", err)
		}
		out, err := c.events.List(ctx, orgID, schedulingapp.EventListFilter{From: in.From, To: in.To})
		if err != nil {
			return "", err
		}
		return marshalToolResult(out)

	case toolGetScheduleLoad:
		var in struct {
			Date string `json:"date"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("invalid arguments: %v", err)
		}
		day, err := time.Parse("2006-01-02", in.Date)
		if err != nil {
			return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", in.Date)
		}
		out, err := c.availability.DayLoad(ctx, orgID, day)
		if err != nil {
			return "", err
		}
		return marshalToolResult(out)

	default:
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}
}

// createEvent books an event on the model's behalf and records the decision
func (c *CalendarChat) createEvent(ctx context.Context, orgID uuid.UUID, title, description string, startAt, endAt time.Time, location string, attendees []string, result *ChatResponse) (string, error) {
	input, _ := json.Marshal(map[string]interface{}{
		"title":    title,
		"start_at": startAt,
		"end_at":   endAt,
	})

	created, err := c.events.Create(ctx, orgID, schedulingapp.CreateEventRequest{
		Title:       title,
		Description: description,
		StartAt:     startAt,
		EndAt:       endAt,
		Location:    location,
		Attendees:   attendees,
		Source:      "agent",
	})
	if err != nil {
		if conflictErr, ok := err.(*schedulingapp.ConflictError); ok {
			// hand the conflict back to the model as data rather than
			// failing the whole turn, and record a proposal a human can
			// approve to book the slot anyway
			conflictOut, _ := json.Marshal(conflictErr)
			proposal, derr := agent.NewAgentDecision(orgID, agent.DecisionKindScheduleEvent, nil,
				mustMarshal(map[string]interface{}{
					"title":       title,
					"description": description,
					"start_at":    startAt,
					"end_at":      endAt,
					"location":    location,
					"attendees":   attendees,
					"force":       true,
				}), conflictOut, "proposed booking conflicts with existing events", 0.5)
			if derr == nil {
				if err := c.decisionRepo.Save(ctx, proposal); err != nil {
					c.logger.Error("Failed to save agent decision", zap.Error(err))
				} else {
					result.DecisionIDs = append(result.DecisionIDs, proposal.GetID())
				}
			}
			return marshalToolResult(conflictErr)
		}
		return "", err
	}

	output, _ := json.Marshal(created)
	eventID := created.ID
	decision, derr := agent.NewAgentDecision(orgID, agent.DecisionKindScheduleEvent, &eventID, input, output, "event created through calendar chat", 1.0)
	if derr == nil {
		// record the proposal before the executed transition so the audit
		// trail keeps both states
		if err := c.decisionRepo.Save(ctx, decision); err != nil {
			c.logger.Error("Failed to save agent decision", zap.Error(err))
		} else if err := decision.MarkExecuted(output); err == nil {
			if err := c.decisionRepo.Save(ctx, decision); err != nil {
				c.logger.Error("Failed to save agent decision", zap.Error(err))
			} else {
				result.DecisionIDs = append(result.DecisionIDs, decision.GetID())
			}
		}
	}
	result.Events = append(result.Events, output)

	return marshalToolResult(created)
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}

func marshalToolResult(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// chatTools declares the calendar tools in OpenAI function schema form
func chatTools() []llm.Tool {
	return []llm.Tool{
		llm.NewTool(toolCheckConflicts,
			"Check whether a proposed time interval conflicts with existing events",
			json.RawMessage(`{"type":"object","properties":{"start_at":{"type":"string","format":"date-time"},"end_at":{"type":"string","format":"date-time"}},"required":["start_at","end_at"]}`)),
		llm.NewTool(toolSuggestSlots,
			"Suggest free slots of a given duration within a date range, best first",
			json.RawMessage(`{"type":"object","properties":{"from":{"type":"string","format":"date-time"},"to":{"type":"string","format":"date-time"},"duration_minutes":{"type":"integer","minimum":1},"limit":{"type":"integer","minimum":1,"maximum":50}},"required":["from","to","duration_minutes"]}`)),
		llm.NewTool(toolCreateEvent,
			"Create a calendar event. Conflicting proposals are returned as data, not booked",
			json.RawMessage(`{"type":"object","properties":{"title":{"type":"string"},"description":{"type":"string"},"start_at":{"type":"string","format":"date-time"},"end_at":{"type":"string","format":"date-time"},"location":{"type":"string"},"attendees":{"type":"array","items":{"type":"string"}}},"required":["title","start_at","end_at"]}`)),
		llm.NewTool(toolListEvents,
			"List calendar events overlapping a time range",
			json.RawMessage(`{"type":"object","properties":{"from":{"type":"string","format":"date-time"},"to":{"type":"string","format":"date-time"}},"required":["from","to"]}`)),
		llm.NewTool(toolGetScheduleLoad,
			"Report booking load and overbooking for one calendar day",
			json.RawMessage(`{"type":"object","properties":{"date":{"type":"string","description":"YYYY-MM-DD"}},"required":["date"]}`)),
	}
}
