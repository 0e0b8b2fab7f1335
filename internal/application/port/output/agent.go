package output

import (
	"context"

	"gp-intake-checker/internal/domain/entity"
)

// AgentRun is one bounded browsing-agent invocation against a single session.
type AgentRun struct {
	Task     string
	Schema   map[string]any
	MaxSteps int
	Session  BrowserPort
}

type BrowsingAgent interface {
	Run(ctx context.Context, run AgentRun) (*entity.AgentResult, error)
}
