package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/application/service"
	"gp-intake-checker/internal/domain/entity"
)

var _ output.BrowsingAgent = (*UseCase)(nil)

var ErrNoSession = errors.New("agent run without a browsing session")

const (
	maxObservationLen = 20000
	defaultMaxSteps   = 40
)

// ToolFactory binds the agent's tools to one browsing session.
type ToolFactory func(session output.BrowserPort, logger output.LoggerPort) []output.ToolPort

// PromptBuilder renders the system prompt for the session's tools and the
// expected output schema.
type PromptBuilder func(tools []entity.ToolDefinition, schema map[string]any) (string, error)

type UseCase struct {
	llm    output.LLMPort
	tools  ToolFactory
	prompt PromptBuilder
	logger output.LoggerPort
}

func New(
	llm output.LLMPort,
	tools ToolFactory,
	prompt PromptBuilder,
	logger output.LoggerPort,
) *UseCase {
	return &UseCase{
		llm:    llm,
		tools:  tools,
		prompt: prompt,
		logger: logger,
	}
}

// Run drives the tool-calling loop for at most run.MaxSteps model turns.
// Running out of steps is not an error: the result is empty and Exhausted.
func (uc *UseCase) Run(ctx context.Context, run output.AgentRun) (*entity.AgentResult, error) {
	if run.Session == nil {
		return nil, ErrNoSession
	}
	maxSteps := run.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	registry := service.NewToolRegistry(uc.tools(run.Session, uc.logger)...)
	toolDefs := registry.Definitions()

	prompt, err := uc.prompt(toolDefs, run.Schema)
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: prompt},
		{Role: entity.RoleUser, Content: run.Task},
	}

	for step := 1; step <= maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		uc.logger.Debug("Starting step", "step", step, "maxSteps", maxSteps)

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: 0.0,
		})
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			return &entity.AgentResult{
				FinalResult: unwrapFence(resp.Message.Content),
				Steps:       step,
			}, nil
		}

		for _, tc := range resp.Message.ToolCalls {
			observation := uc.executeTool(ctx, registry, tc)

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}
	}

	uc.logger.Warn("Step budget exhausted", "maxSteps", maxSteps)
	return &entity.AgentResult{Steps: maxSteps, Exhausted: true}, nil
}

func (uc *UseCase) executeTool(ctx context.Context, registry output.ToolRegistry, tc entity.ToolCall) string {
	tool, ok := registry.Get(entity.ToolName(tc.Name))
	if !ok {
		uc.logger.Warn("Unknown tool called", "name", tc.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name)
	}

	uc.logger.Info("Executing tool", "name", tc.Name, "args", tc.Arguments)

	result, err := tool.Execute(ctx, tc.Arguments)
	if err != nil {
		uc.logger.Warn("Tool execution failed", "name", tc.Name, "error", err)
		return "Error: " + err.Error()
	}

	result = truncateObservation(result)
	uc.logger.Debug("Tool completed", "name", tc.Name, "resultLen", len(result))
	return result
}

func truncateObservation(s string) string {
	if len(s) <= maxObservationLen {
		return s
	}
	cut := maxObservationLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}

// unwrapFence strips one enclosing markdown code fence from the final answer.
func unwrapFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "[{") {
		body = body[nl+1:]
	}
	return strings.TrimSpace(body)
}
