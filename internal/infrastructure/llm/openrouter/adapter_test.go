package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any)                  { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...any)                   { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)                   { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...any)                  { l.record(msg) }
func (l *recordingLogger) WithField(string, any) output.LoggerPort     { return l }
func (l *recordingLogger) WithFields(map[string]any) output.LoggerPort { return l }
func (l *recordingLogger) Close() error                                { return nil }

func newChatServer(t *testing.T, reply string, captured *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("key", "openai/gpt-4o-mini")

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Model)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestChat_SendsModelToolsAndMessages(t *testing.T) {
	var captured openai.ChatCompletionRequest
	server := newChatServer(t, `{
		"id": "gen-1",
		"object": "chat.completion",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "navigate", "arguments": "{\"url\":\"https://arkmedical.ie/\"}"}
				}]
			}
		}]
	}`, &captured)

	logger := &recordingLogger{}
	adapter := NewOpenRouterAdapter(Config{
		APIKey:  "test-key",
		Model:   "anthropic/claude-3.5-sonnet",
		BaseURL: server.URL,
		Logger:  logger,
	})

	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: "You are a browsing agent."},
			{Role: entity.RoleUser, Content: "Check the practice."},
		},
		Tools: []entity.ToolDefinition{{
			Name:        entity.ToolBrowserNavigate,
			Description: "Open a URL",
			Parameters:  map[string]any{"type": "object"},
		}},
		Temperature: 0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-3.5-sonnet", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "navigate", captured.Tools[0].Function.Name)

	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "navigate", resp.Message.ToolCalls[0].Name)
	assert.JSONEq(t, `{"url":"https://arkmedical.ie/"}`, resp.Message.ToolCalls[0].Arguments)

	assert.Contains(t, logger.messages, "llm request")
}

func TestChat_NoToolsOmitsToolChoice(t *testing.T) {
	var captured openai.ChatCompletionRequest
	server := newChatServer(t, `{"choices":[{"index":0,"message":{"role":"assistant","content":"[]"}}]}`, &captured)

	adapter := NewOpenRouterAdapter(Config{APIKey: "test-key", Model: "m", BaseURL: server.URL})

	resp, err := adapter.Chat(context.Background(), output.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Empty(t, captured.Tools)
	assert.Nil(t, captured.ToolChoice)
	assert.Equal(t, "[]", resp.Message.Content)
}

func TestChat_NoChoices(t *testing.T) {
	server := newChatServer(t, `{"choices":[]}`, nil)
	adapter := NewOpenRouterAdapter(Config{APIKey: "test-key", Model: "m", BaseURL: server.URL})

	_, err := adapter.Chat(context.Background(), output.ChatRequest{})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestChat_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","code":401}}`)
	}))
	defer server.Close()

	adapter := NewOpenRouterAdapter(Config{APIKey: "test-key", Model: "m", BaseURL: server.URL})

	_, err := adapter.Chat(context.Background(), output.ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestChat_OnRequestObserver(t *testing.T) {
	server := newChatServer(t, `{"choices":[{"index":0,"message":{"role":"assistant","content":"[]"}}]}`, nil)

	var calls int
	var lastErr error
	observe := func(_ time.Duration, err error) {
		calls++
		lastErr = err
	}
	adapter := NewOpenRouterAdapter(Config{
		APIKey:    "test-key",
		Model:     "m",
		BaseURL:   server.URL,
		OnRequest: observe,
	})

	_, err := adapter.Chat(context.Background(), output.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, lastErr)
}

func TestChat_RateLimitHonoursContext(t *testing.T) {
	server := newChatServer(t, `{"choices":[{"index":0,"message":{"role":"assistant","content":"[]"}}]}`, nil)
	adapter := NewOpenRouterAdapter(Config{
		APIKey:            "test-key",
		Model:             "m",
		BaseURL:           server.URL,
		RequestsPerMinute: 1,
	})

	_, err := adapter.Chat(context.Background(), output.ChatRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = adapter.Chat(ctx, output.ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Hello, world!",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Hello, world!", result.Content)
	assert.Empty(t, result.ToolCalls)
}

func TestConvertMessages_ToolRoundTrip(t *testing.T) {
	messages := []entity.Message{
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call_9", Name: "extract_text", Arguments: "{}"},
			},
		},
		{
			Role:       entity.RoleTool,
			Content:    "We are not accepting new patients.",
			ToolCallID: "call_9",
			Name:       "extract_text",
		},
	}

	result := convertMessages(messages)

	require.Len(t, result, 2)
	require.Len(t, result[0].ToolCalls, 1)
	assert.Equal(t, openai.ToolTypeFunction, result[0].ToolCalls[0].Type)
	assert.Equal(t, "extract_text", result[0].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", result[1].Role)
	assert.Equal(t, "call_9", result[1].ToolCallID)
	assert.Equal(t, "We are not accepting new patients.", result[1].Content)
}

func TestConvertTools(t *testing.T) {
	tools := convertTools([]entity.ToolDefinition{
		{Name: entity.ToolBrowserScroll, Description: "Scroll", Parameters: map[string]any{"type": "object"}},
	})

	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "scroll", tools[0].Function.Name)
	assert.Equal(t, "Scroll", tools[0].Function.Description)
}
