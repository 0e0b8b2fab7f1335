package openrouter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

var _ output.LLMPort = (*OpenRouterAdapter)(nil)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

var ErrNoChoices = errors.New("no choices in response")

type OpenRouterAdapter struct {
	client    *openai.Client
	model     string
	logger    output.LoggerPort
	limiter   *rate.Limiter
	onRequest func(time.Duration, error)
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort

	// RequestsPerMinute paces chat requests. Zero means unlimited.
	RequestsPerMinute int
	// OnRequest, when set, is called after every chat request.
	OnRequest func(elapsed time.Duration, err error)
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: DefaultBaseURL,
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var size int
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		size = len(body)
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("llm request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"error", err,
		)
		return resp, err
	}

	t.logger.Debug("llm request",
		"method", req.Method,
		"url", req.URL.String(),
		"requestBytes", size,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).String(),
	)
	return resp, nil
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			},
		}
	}

	adapter := &OpenRouterAdapter{
		client:    openai.NewClientWithConfig(config),
		model:     cfg.Model,
		logger:    cfg.Logger,
		onRequest: cfg.OnRequest,
	}
	if cfg.RequestsPerMinute > 0 {
		adapter.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return adapter
}

func (a *OpenRouterAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	request := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
	}
	if tools := convertTools(req.Tools); len(tools) > 0 {
		request.Tools = tools
		request.ToolChoice = "auto"
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, request)
	if a.onRequest != nil {
		a.onRequest(time.Since(start), err)
	}
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	return &output.ChatResponse{
		Message: convertResponseMessage(resp.Choices[0].Message),
	}, nil
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}
	return result
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        string(t.Name),
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func convertResponseMessage(msg openai.ChatCompletionMessage) entity.Message {
	result := entity.Message{
		Role:    entity.MessageRole(msg.Role),
		Content: msg.Content,
	}

	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result
}
