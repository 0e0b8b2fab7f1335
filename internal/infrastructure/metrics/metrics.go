package metrics

import (
	"context"
	"time"

	"gp-intake-checker/internal/application/port/input"
	"gp-intake-checker/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gpcheck"

// Metrics holds the counters of one process. gpcheck is a batch job, so the
// registry is written to a node_exporter textfile instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry

	// Practice results by status
	PracticeOutcome *prometheus.CounterVec

	// Whole check runs by result: ok, failed
	Runs *prometheus.CounterVec

	RunDuration prometheus.Histogram

	// LLM requests by result: ok, error
	LLMRequests *prometheus.CounterVec

	LLMLatency prometheus.Histogram

	LastRun prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PracticeOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "practice_checks_total",
			Help:      "Practice checks by resulting status",
		}, []string{"status"}),

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Check runs by result",
		}, []string{"result"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full check run",
			Buckets:   []float64{30, 60, 120, 300, 600, 900, 1800},
		}),

		LLMRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Chat completion requests by result",
		}, []string{"result"}),

		LLMLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of chat completion requests",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),

		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last check run finished",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one finished run and the status of every record it produced.
func (m *Metrics) ObserveRun(d time.Duration, results []entity.PracticeCheck, err error) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
	m.LastRun.SetToCurrentTime()
	if err != nil {
		m.Runs.WithLabelValues("failed").Inc()
		return
	}
	m.Runs.WithLabelValues("ok").Inc()
	for _, r := range results {
		m.PracticeOutcome.WithLabelValues(r.Status.String()).Inc()
	}
}

func (m *Metrics) ObserveLLMRequest(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.LLMRequests.WithLabelValues(result).Inc()
	m.LLMLatency.Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

type instrumentedRunner struct {
	next    input.CheckRunner
	metrics *Metrics
}

// InstrumentRunner wraps a CheckRunner so every run is recorded in m.
func InstrumentRunner(next input.CheckRunner, m *Metrics) input.CheckRunner {
	return &instrumentedRunner{next: next, metrics: m}
}

func (r *instrumentedRunner) Run(ctx context.Context, practices []entity.Practice) ([]entity.PracticeCheck, error) {
	start := time.Now()
	results, err := r.next.Run(ctx, practices)
	r.metrics.ObserveRun(time.Since(start), results, err)
	return results, err
}
