package di

import (
	"errors"
	"fmt"
	"time"

	"gp-intake-checker/internal/adapter/tool"
	"gp-intake-checker/internal/application/port/input"
	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/infrastructure/browser/rod"
	"gp-intake-checker/internal/infrastructure/llm/openrouter"
	"gp-intake-checker/internal/infrastructure/logger"
	"gp-intake-checker/internal/infrastructure/metrics"
	"gp-intake-checker/internal/infrastructure/prompts"
	"gp-intake-checker/internal/usecase/checker"
	"gp-intake-checker/internal/usecase/executor"
)

var ErrNoLLMCredentials = errors.New("llm api key and model are required")

type Container struct {
	Sessions output.SessionProvider
	LLM      output.LLMPort
	Logger   output.LoggerPort
	Agent    output.BrowsingAgent
	Checker  input.CheckRunner
	Metrics  *metrics.Metrics
}

type Config struct {
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	OpenRouterRPM     int

	BrowserHeadless  bool
	BrowserTimeout   time.Duration
	BrowserNoSandbox bool
	UseCloudBrowser  bool
	CloudCDPURL      string

	MaxSteps int
	FailFast bool

	LogLevel string
	LogDir   string

	// Logger, when set, replaces the logger built from LogLevel and LogDir.
	Logger output.LoggerPort
}

func NewContainer(cfg Config) (*Container, error) {
	if cfg.OpenRouterAPIKey == "" || cfg.OpenRouterModel == "" {
		return nil, ErrNoLLMCredentials
	}

	log := cfg.Logger
	if log == nil {
		zl, err := logger.NewLoggerAdapter(logger.Config{
			Level: cfg.LogLevel,
			Dir:   cfg.LogDir,
			Name:  "gpcheck",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		log = zl
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browserCfg.NoSandbox = cfg.BrowserNoSandbox
	browserCfg.UseCloud = cfg.UseCloudBrowser
	browserCfg.RemoteURL = cfg.CloudCDPURL
	if cfg.BrowserTimeout > 0 {
		browserCfg.Timeout = cfg.BrowserTimeout
	}
	sessions, err := rod.NewSessionProvider(browserCfg, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser sessions: %w", err)
	}

	m := metrics.New()

	llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	if cfg.OpenRouterBaseURL != "" {
		llmCfg.BaseURL = cfg.OpenRouterBaseURL
	}
	llmCfg.Logger = log
	llmCfg.RequestsPerMinute = cfg.OpenRouterRPM
	llmCfg.OnRequest = m.ObserveLLMRequest
	llm := openrouter.NewOpenRouterAdapter(llmCfg)

	agent := executor.New(llm, tool.NewBrowserTools, prompts.SystemPrompt, log)

	checkerCfg := checker.DefaultConfig()
	if cfg.MaxSteps > 0 {
		checkerCfg.MaxSteps = cfg.MaxSteps
	}
	if cfg.FailFast {
		checkerCfg.FailurePolicy = checker.FailurePolicyAbort
	}

	return &Container{
		Sessions: sessions,
		LLM:      llm,
		Logger:   log,
		Agent:    agent,
		Checker:  metrics.InstrumentRunner(checker.New(sessions, agent, log, checkerCfg), m),
		Metrics:  m,
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}
