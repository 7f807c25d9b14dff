package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/astralisone/platform/internal/domain/agent"
	"github.com/astralisone/platform/internal/domain/pipeline"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/astralisone/platform/internal/infrastructure/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const classifierSystemPrompt = `You are an intake triage assistant for a business platform.
Given an inbound request and the organization's pipelines, pick the pipeline
that should handle it and a priority. Respond with a single JSON object:
{"pipeline": "<pipeline name>", "priority": "low|medium|high|urgent",
"confidence": <0.0-1.0>, "rationale": "<one sentence>"}
Respond with JSON only, no prose around it.`

// classifierOutput is the JSON shape the model is asked to produce
type classifierOutput struct {
	Pipeline   string  `json:"pipeline"`
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// IntakeClassifier routes inbound intake requests into pipelines using the
// model, with a confidence-gated fallback to the organization's default
// pipeline.
type IntakeClassifier struct {
	client       llm.Client
	intakeRepo   pipeline.IntakeRepository
	pipelineRepo pipeline.PipelineRepository
	decisionRepo agent.DecisionRepository
	logService   *LogService
	eventBus     shared.EventPublisher
	cfg          config.AgentConfig
	logger       *zap.Logger
}

// NewIntakeClassifier creates a new IntakeClassifier
func NewIntakeClassifier(
	client llm.Client,
	intakeRepo pipeline.IntakeRepository,
	pipelineRepo pipeline.PipelineRepository,
	decisionRepo agent.DecisionRepository,
	logService *LogService,
	eventBus shared.EventPublisher,
	cfg config.AgentConfig,
	logger *zap.Logger,
) *IntakeClassifier {
	return &IntakeClassifier{
		client:       client,
		intakeRepo:   intakeRepo,
		pipelineRepo: pipelineRepo,
		decisionRepo: decisionRepo,
		logService:   logService,
		eventBus:     eventBus,
		cfg:          cfg,
		logger:       logger,
	}
}

// Classify routes one intake request. When the model is unavailable or not
// confident enough the request falls back to the default pipeline; only a
// missing default pipeline makes classification fail.
func (c *IntakeClassifier) Classify(ctx context.Context, orgID, intakeID uuid.UUID) (*ClassificationResponse, error) {
	intake, err := c.intakeRepo.FindByID(ctx, orgID, intakeID)
	if err != nil {
		return nil, err
	}
	if intake.Status != pipeline.IntakeStatusNew {
		return nil, shared.NewDomainError("INVALID_STATE", "only new intake requests can be classified")
	}

	pipelines, err := c.pipelineRepo.FindAll(ctx, orgID, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	active := make([]pipeline.Pipeline, 0, len(pipelines))
	for _, p := range pipelines {
		if p.Status == pipeline.PipelineStatusActive {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "organization has no active pipelines")
	}

	out, llmErr := c.askModel(ctx, intake, active)
	if llmErr != nil {
		c.logService.Log(ctx, orgID, agent.LogLevelWarn, agent.LogCategoryClassification,
			"Classification fell back to the default pipeline", map[string]interface{}{
				"intake_id": intakeID.String(),
				"reason":    llmErr.Error(),
			})
		return c.fallback(ctx, intake, active, "model unavailable")
	}

	target := matchPipeline(active, out.Pipeline)
	if target == nil || out.Confidence < c.cfg.MinConfidence {
		reason := fmt.Sprintf("confidence %.2f below threshold %.2f", out.Confidence, c.cfg.MinConfidence)
		if target == nil {
			reason = fmt.Sprintf("model proposed unknown pipeline %q", out.Pipeline)
		}
		c.logService.Log(ctx, orgID, agent.LogLevelInfo, agent.LogCategoryClassification,
			"Classification fell back to the default pipeline", map[string]interface{}{
				"intake_id": intakeID.String(),
				"reason":    reason,
			})
		return c.fallback(ctx, intake, active, reason)
	}

	return c.route(ctx, intake, target, out, false)
}

// askModel sends the classification prompt and parses the JSON reply
func (c *IntakeClassifier) askModel(ctx context.Context, intake *pipeline.IntakeRequest, pipelines []pipeline.Pipeline) (*classifierOutput, error) {
	names := make([]string, len(pipelines))
	for i, p := range pipelines {
		names[i] = p.Name
	}

	var prompt strings.Builder
	prompt.WriteString("Pipelines: ")
	prompt.WriteString(strings.Join(names, ", "))
	prompt.WriteString("\n\nInbound request:\n")
	fmt.Fprintf(&prompt, "From: %s <%s>\n", intake.Name, intake.Email)
	if intake.Company != "" {
		fmt.Fprintf(&prompt, "Company: %s\n", intake.Company)
	}
	fmt.Fprintf(&prompt, "Source: %s\nMessage: %s\n", intake.Source, intake.Message)

	resp, err := c.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			llm.SystemMessage(classifierSystemPrompt),
			llm.UserMessage(prompt.String()),
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &out); err != nil {
		return nil, fmt.Errorf("malformed classifier reply: %w", err)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, fmt.Errorf("classifier confidence %f out of range", out.Confidence)
	}
	switch out.Priority {
	case "low", "medium", "high", "urgent":
	default:
		out.Priority = "medium"
	}
	return &out, nil
}

// fallback proposes the default pipeline with zero confidence, which
// always parks the decision for human review
func (c *IntakeClassifier) fallback(ctx context.Context, intake *pipeline.IntakeRequest, pipelines []pipeline.Pipeline, reason string) (*ClassificationResponse, error) {
	var target *pipeline.Pipeline
	for i := range pipelines {
		if pipelines[i].IsDefault {
			target = &pipelines[i]
			break
		}
	}
	if target == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "organization has no default pipeline to fall back to")
	}
	out := &classifierOutput{
		Pipeline:   target.Name,
		Priority:   "medium",
		Confidence: 0,
		Rationale:  "fallback: " + reason,
	}
	return c.route(ctx, intake, target, out, true)
}

// route records the decision and, when it clears the auto-execute gate,
// triages the intake into the target pipeline. Below the gate the decision
// stays proposed and a reviewer approves it later.
func (c *IntakeClassifier) route(ctx context.Context, intake *pipeline.IntakeRequest, target *pipeline.Pipeline, out *classifierOutput, fallback bool) (*ClassificationResponse, error) {
	input, _ := json.Marshal(map[string]interface{}{
		"intake_id": intake.GetID(),
		"source":    intake.Source,
		"email":     intake.Email,
	})
	output, _ := json.Marshal(map[string]interface{}{
		"pipeline_id": target.GetID(),
		"pipeline":    target.Name,
		"priority":    out.Priority,
		"fallback":    fallback,
	})

	intakeID := intake.GetID()
	decision, err := agent.NewAgentDecision(intake.OrgID, agent.DecisionKindClassifyIntake, &intakeID, input, output, out.Rationale, out.Confidence)
	if err != nil {
		return nil, err
	}
	// record the proposal before any transition so the audit trail keeps
	// both states
	if err := c.decisionRepo.Save(ctx, decision); err != nil {
		return nil, err
	}

	if !decision.CanAutoExecute() {
		// park the decision for human review; the intake stays untouched
		// until someone approves it
		c.publishEvents(ctx, decision)
		c.logService.LogDecision(ctx, intake.OrgID, decision.GetID(), agent.LogLevelInfo, agent.LogCategoryClassification,
			"Intake routing parked for review", map[string]interface{}{
				"intake_id":  intakeID.String(),
				"pipeline":   target.Name,
				"confidence": out.Confidence,
				"fallback":   fallback,
			})
		return &ClassificationResponse{
			DecisionID: decision.GetID(),
			IntakeID:   intakeID,
			PipelineID: target.GetID(),
			Priority:   out.Priority,
			Confidence: out.Confidence,
			Rationale:  out.Rationale,
			Fallback:   fallback,
			Status:     string(decision.Status),
		}, nil
	}

	if err := intake.Triage(target.GetID(), nil); err != nil {
		_ = decision.MarkFailed(err.Error())
		if saveErr := c.decisionRepo.Save(ctx, decision); saveErr != nil {
			c.logger.Error("Failed to save agent decision", zap.Error(saveErr))
		}
		return nil, err
	}
	if err := c.intakeRepo.Save(ctx, intake); err != nil {
		return nil, err
	}

	if err := decision.MarkExecuted(nil); err != nil {
		return nil, err
	}
	if err := c.decisionRepo.Save(ctx, decision); err != nil {
		c.logger.Error("Failed to save agent decision", zap.Error(err))
	}
	c.publishEvents(ctx, decision)
	c.publishEvents(ctx, intake)

	c.logService.LogDecision(ctx, intake.OrgID, decision.GetID(), agent.LogLevelInfo, agent.LogCategoryClassification,
		"Intake request routed", map[string]interface{}{
			"intake_id":  intakeID.String(),
			"pipeline":   target.Name,
			"confidence": out.Confidence,
			"fallback":   fallback,
		})

	return &ClassificationResponse{
		DecisionID: decision.GetID(),
		IntakeID:   intakeID,
		PipelineID: target.GetID(),
		Priority:   out.Priority,
		Confidence: out.Confidence,
		Rationale:  out.Rationale,
		Fallback:   fallback,
		Status:     string(decision.Status),
	}, nil
}

func (c *IntakeClassifier) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	for _, event := range aggregate.GetDomainEvents() {
		if err := c.eventBus.Publish(ctx, event); err != nil {
			c.logger.Error("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	aggregate.ClearDomainEvents()
}

// matchPipeline finds a pipeline by case-insensitive name
func matchPipeline(pipelines []pipeline.Pipeline, name string) *pipeline.Pipeline {
	name = strings.TrimSpace(strings.ToLower(name))
	for i := range pipelines {
		if strings.ToLower(pipelines[i].Name) == name {
			return &pipelines[i]
		}
	}
	return nil
}

// extractJSON strips markdown fences some models wrap around JSON replies
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	if start := strings.Index(s, "{"); start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndex(s, "}"); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}
	return strings.TrimSpace(s)
}
