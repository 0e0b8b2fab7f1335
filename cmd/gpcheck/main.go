package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gp-intake-checker/internal/di"
	"gp-intake-checker/internal/infrastructure/config"
	"gp-intake-checker/internal/infrastructure/env"
	"gp-intake-checker/internal/infrastructure/report"

	"github.com/spf13/cobra"
)

const defaultRunTimeout = 30 * time.Minute

type options struct {
	practicesFile string
	maxSteps      int
	headless      bool
	failFast      bool
	verbose       bool
}

type settings struct {
	container     di.Config
	practicesFile string
	metricsFile   string
	timeout       time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gpcheck",
		Short: "Check which GP practices are accepting new patients",
		Long: `gpcheck visits each configured GP practice website with an LLM-driven browser
agent, classifies whether the practice is accepting new patients, and prints the
results as a JSON array.

Credentials come from the environment (or .env): OPENROUTER_API_KEY and
OPENROUTER_MODEL_NAME. Set BROWSER_USE_USE_CLOUD=1 and BROWSER_CDP_URL to use a
remote browser instead of launching Chrome locally.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, opts)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "gpcheck: %v\n", err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.practicesFile, "practices", "", "YAML file with the practice list (default: built-in list, or PRACTICES_FILE)")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "agent step budget per practice (default: MAX_STEPS or 40)")
	cmd.Flags().BoolVar(&opts.headless, "headless", true, "run the local browser headless")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "abort the whole run on the first failed practice")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	s, err := resolveSettings(cmd, opts, env.NewEnvService())
	if err != nil {
		return err
	}

	practices, err := config.LoadPractices(s.practicesFile)
	if err != nil {
		return fmt.Errorf("load practices: %w", err)
	}

	container, err := di.NewContainer(s.container)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := container.Checker.Run(ctx, practices)
	if s.metricsFile != "" {
		if werr := container.Metrics.WriteTextfile(s.metricsFile); werr != nil {
			container.Logger.Warn("Failed to write metrics", "path", s.metricsFile, "error", werr)
		}
	}
	if err != nil {
		container.Logger.Error("Check run failed", "error", err)
		return err
	}

	return report.WriteJSON(cmd.OutOrStdout(), results)
}

// resolveSettings merges flags over environment over defaults.
func resolveSettings(cmd *cobra.Command, opts *options, envs *env.EnvService) (settings, error) {
	apiKey, err := envs.MustGet("OPENROUTER_API_KEY")
	if err != nil {
		return settings{}, err
	}
	model, err := envs.MustGet("OPENROUTER_MODEL_NAME")
	if err != nil {
		return settings{}, err
	}

	practicesFile := envs.Get("PRACTICES_FILE")
	if cmd.Flags().Changed("practices") {
		practicesFile = opts.practicesFile
	}

	maxSteps, err := envs.GetInt("MAX_STEPS", 0)
	if err != nil {
		return settings{}, err
	}
	if cmd.Flags().Changed("max-steps") {
		maxSteps = opts.maxSteps
	}

	logLevel := envs.GetWithDefault("LOG_LEVEL", "info")
	if opts.verbose {
		logLevel = "debug"
	}

	useCloud := envs.GetTruthy("BROWSER_USE_USE_CLOUD")
	cdpURL := envs.Get("BROWSER_CDP_URL")
	if useCloud && cdpURL == "" {
		return settings{}, fmt.Errorf("BROWSER_USE_USE_CLOUD is set: %w: BROWSER_CDP_URL", env.ErrMissing)
	}

	rpm, err := envs.GetInt("OPENROUTER_RPM", 0)
	if err != nil {
		return settings{}, err
	}
	browserTimeout, err := envs.GetDuration("BROWSER_TIMEOUT", 0)
	if err != nil {
		return settings{}, err
	}
	noSandbox, err := envs.GetBool("BROWSER_NO_SANDBOX", false)
	if err != nil {
		return settings{}, err
	}
	runTimeout, err := envs.GetDuration("RUN_TIMEOUT", defaultRunTimeout)
	if err != nil {
		return settings{}, err
	}

	return settings{
		container: di.Config{
			OpenRouterAPIKey:  apiKey,
			OpenRouterModel:   model,
			OpenRouterBaseURL: envs.Get("OPENROUTER_BASE_URL"),
			OpenRouterRPM:     rpm,
			BrowserHeadless:   opts.headless,
			BrowserTimeout:    browserTimeout,
			BrowserNoSandbox:  noSandbox,
			UseCloudBrowser:   useCloud,
			CloudCDPURL:       cdpURL,
			MaxSteps:          maxSteps,
			FailFast:          opts.failFast,
			LogLevel:          logLevel,
			LogDir:            envs.Get("LOG_DIR"),
		},
		practicesFile: practicesFile,
		metricsFile:   envs.Get("METRICS_FILE"),
		timeout:       runTimeout,
	}, nil
}
