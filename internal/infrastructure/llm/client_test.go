package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(baseURL string, maxRetries int) *OpenAIClient {
	return NewOpenAIClient(config.LLMConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Timeout:     5 * time.Second,
		MaxRetries:  maxRetries,
		Temperature: 0.2,
	}, zap.NewNop())
}

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": "Tuesday at 10:00 works."},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52},
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 0)
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("When can we meet?")},
	})

	require.NoError(t, err)
	assert.Equal(t, "Tuesday at 10:00 works.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 52, resp.Usage.TotalTokens)
	assert.False(t, resp.HasToolCalls())
}

func TestOpenAIClient_CompleteWithToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "check_conflicts", req.Tools[0].Function.Name)
		assert.Equal(t, "auto", req.ToolChoice)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "check_conflicts",
							"arguments": `{"start":"2026-03-02T10:00:00Z","end":"2026-03-02T11:00:00Z"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 0)
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("Book Monday 10am")},
		Tools:    []Tool{NewTool("check_conflicts", "Check for conflicts", json.RawMessage(`{"type":"object"}`))},
	})

	require.NoError(t, err)
	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "check_conflicts", resp.ToolCalls[0].Function.Name)
}

func TestOpenAIClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"content": "ok"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	client := testClient(server.URL, 2)
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClient_UnavailableAfterRetryBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(server.URL, 1)
	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
	})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIClient_BadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad tool schema"}}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 3)
	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
	})

	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, int32(1), calls.Load())
}
