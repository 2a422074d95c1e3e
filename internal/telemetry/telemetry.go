// Package telemetry exposes the pipeline's operational metrics through
// Prometheus instruments and names the tracer used for per-phase spans.
package telemetry

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "deepresearch/research"

// Tracer returns the tracer the orchestrator uses for phase spans.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Telemetry holds the Prometheus instruments for the research pipeline.
type Telemetry struct {
	logger *log.Logger

	SearchesTotal          *prometheus.CounterVec
	SourcesDiscoveredTotal prometheus.Counter
	FindingsTotal          prometheus.Counter
	LLMRequestsTotal       *prometheus.CounterVec
	PhaseDuration          *prometheus.HistogramVec
	ResearchDuration       *prometheus.HistogramVec
}

// NewTelemetry creates the instruments and registers them with reg.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepresearch_searches_total",
			Help: "Search adapter calls by adapter and outcome.",
		}, []string{"adapter", "outcome"}),
		SourcesDiscoveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deepresearch_sources_discovered_total",
			Help: "Deduplicated sources discovered across all runs.",
		}),
		FindingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deepresearch_findings_total",
			Help: "Findings produced by the analysis stage.",
		}),
		LLMRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepresearch_llm_requests_total",
			Help: "Completion-service requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deepresearch_phase_duration_seconds",
			Help:    "Wall time per pipeline phase.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"phase"}),
		ResearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deepresearch_research_duration_seconds",
			Help:    "Wall time per research run by depth and terminal state.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"depth", "state"}),
	}
	reg.MustRegister(
		t.SearchesTotal,
		t.SourcesDiscoveredTotal,
		t.FindingsTotal,
		t.LLMRequestsTotal,
		t.PhaseDuration,
		t.ResearchDuration,
	)
	return t
}

// ObservePhase records one phase duration.
func (t *Telemetry) ObservePhase(phase string, elapsed time.Duration) {
	t.PhaseDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

// ObserveRun records a completed run and logs its summary line.
func (t *Telemetry) ObserveRun(depth, state string, elapsed time.Duration) {
	t.ResearchDuration.WithLabelValues(depth, state).Observe(elapsed.Seconds())
	t.logger.Printf("run finished: depth=%s state=%s elapsed=%v", depth, state, elapsed.Round(time.Millisecond))
}

// RecordSearch records one adapter call outcome.
func (t *Telemetry) RecordSearch(adapter string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.SearchesTotal.WithLabelValues(adapter, outcome).Inc()
}

// RecordLLM records one completion-service call outcome.
func (t *Telemetry) RecordLLM(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.LLMRequestsTotal.WithLabelValues(operation, outcome).Inc()
}
