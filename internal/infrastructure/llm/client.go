package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/astralisone/platform/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Client is the completion interface the agent services depend on
type Client interface {
	// Complete performs one chat completion call, optionally with tools
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Common errors. ErrUnavailable covers transport failures, timeouts, rate
// limiting and upstream 5xx responses; callers map it to AGENT_UNAVAILABLE.
var (
	ErrUnavailable = errors.New("llm provider unavailable")
	ErrBadRequest  = errors.New("llm request rejected")
)

const maxResponseBytes = 4 << 20

// DisabledClient stands in when no LLM provider is configured. Every call
// reports ErrUnavailable so agent features degrade to their fallbacks.
type DisabledClient struct{}

// Complete always fails with ErrUnavailable
func (DisabledClient) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return nil, fmt.Errorf("%w: llm disabled", ErrUnavailable)
}

// OpenAIClient speaks the OpenAI-compatible chat completions API. Any
// provider exposing that surface works by pointing BaseURL at it.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewOpenAIClient creates a client from configuration
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string     `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage TokenUsage `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete performs one chat completion call. Requests hitting 429 or 5xx
// are retried with exponential backoff up to the configured retry budget.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	wireReq := chatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	if len(req.Tools) > 0 {
		wireReq.Tools = req.Tools
		wireReq.ToolChoice = "auto"
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Warn("retrying llm request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, retryable, err := c.doRequest(ctx, endpoint, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *OpenAIClient) doRequest(ctx context.Context, endpoint string, body []byte) (*CompletionResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("%w: status %d", ErrUnavailable, httpResp.StatusCode)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrBadRequest, httpResp.StatusCode, truncate(respBody, 500))
	}

	var wireResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, false, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if wireResp.Error != nil && wireResp.Error.Message != "" {
		return nil, false, fmt.Errorf("%w: %s: %s", ErrBadRequest, wireResp.Error.Type, wireResp.Error.Message)
	}
	if len(wireResp.Choices) == 0 {
		return nil, true, fmt.Errorf("%w: no choices in response", ErrUnavailable)
	}

	choice := wireResp.Choices[0]
	c.logger.Debug("llm completion",
		zap.String("model", c.model),
		zap.String("finish_reason", choice.FinishReason),
		zap.Int("total_tokens", wireResp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &CompletionResponse{
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
		Usage:        wireResp.Usage,
	}, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ Client = (*OpenAIClient)(nil)
