package checker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gp-intake-checker/internal/application/port/input"
	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.CheckRunner = (*UseCase)(nil)

type FailurePolicy string

const (
	// FailurePolicyIsolate records a failed practice as Unclear and moves on.
	FailurePolicyIsolate FailurePolicy = "isolate"
	// FailurePolicyAbort stops the whole run on the first failure.
	FailurePolicyAbort FailurePolicy = "abort"
)

type Config struct {
	MaxSteps      int
	FailurePolicy FailurePolicy
	Now           func() time.Time
}

func DefaultConfig() Config {
	return Config{
		MaxSteps:      DefaultMaxSteps,
		FailurePolicy: FailurePolicyIsolate,
	}
}

type UseCase struct {
	sessions   output.SessionProvider
	agent      output.BrowsingAgent
	logger     output.LoggerPort
	normalizer *Normalizer
	maxSteps   int
	policy     FailurePolicy
}

func New(
	sessions output.SessionProvider,
	agent output.BrowsingAgent,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailurePolicyIsolate
	}

	return &UseCase{
		sessions:   sessions,
		agent:      agent,
		logger:     logger,
		normalizer: NewNormalizer(cfg.Now),
		maxSteps:   cfg.MaxSteps,
		policy:     cfg.FailurePolicy,
	}
}

// Run checks practices one after another. Each practice gets its own browsing
// session, which is closed before the next practice starts.
func (uc *UseCase) Run(ctx context.Context, practices []entity.Practice) ([]entity.PracticeCheck, error) {
	log := uc.logger.WithField("run_id", uuid.NewString())
	log.Info("Check run started", "practices", len(practices), "max_steps", uc.maxSteps, "policy", uc.policy)

	results := NewResults(len(practices))

	for i, p := range practices {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("check run canceled before %q: %w", p.Name, err)
		}

		plog := log.WithFields(map[string]any{
			"index":    i,
			"practice": p.Name,
			"url":      p.URL,
		})

		check, err := uc.checkPractice(ctx, p, plog)
		if err != nil {
			if uc.policy == FailurePolicyAbort || ctx.Err() != nil {
				plog.Error("Practice check failed, aborting run", "error", err)
				return nil, fmt.Errorf("check %q: %w", p.Name, err)
			}
			plog.Warn("Practice check failed, recording fallback", "error", err)
			fallback := FailureFallback(p, err)
			check = &fallback
		}

		uc.normalizer.Normalize(check, p)
		results.Append(*check)

		plog.Info("Practice checked", "status", check.Status, "has_email", check.HasEmail())
	}

	log.Info("Check run completed", "results", results.Len())
	return results.All(), nil
}

func (uc *UseCase) checkPractice(ctx context.Context, p entity.Practice, log output.LoggerPort) (*entity.PracticeCheck, error) {
	session, err := uc.sessions.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browsing session: %w", err)
	}
	defer session.Close()

	result, err := uc.agent.Run(ctx, output.AgentRun{
		Task:     BuildTask(p.Name, p.URL),
		Schema:   OutputSchema(),
		MaxSteps: uc.maxSteps,
		Session:  session,
	})
	if err != nil {
		return nil, fmt.Errorf("run browsing agent: %w", err)
	}

	payload := "[]"
	if result != nil && strings.TrimSpace(result.FinalResult) != "" {
		payload = result.FinalResult
	}
	if result != nil {
		log.Debug("Agent finished", "steps", result.Steps, "exhausted", result.Exhausted, "payloadLen", len(payload))
	}

	checks, err := ParseChecks(payload)
	if err != nil {
		return nil, fmt.Errorf("parse agent result: %w", err)
	}

	check, ok := FirstCheck(checks)
	if !ok {
		log.Info("Agent returned no result, using fallback")
		check = Fallback(p)
	} else if len(checks) > 1 {
		log.Warn("Agent returned extra records, keeping the first", "count", len(checks))
	}

	return &check, nil
}
