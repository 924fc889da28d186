package llm

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ═══════════════════════════════════════════════════════════════════════════════
// METRICS
// ═══════════════════════════════════════════════════════════════════════════════

// Call outcomes recorded by MetricsBackend.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeQuota = "quota"
)

// Metrics collects per-backend call counts and latencies on a private
// Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates and registers the oracle collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alquad",
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Oracle backend calls by outcome.",
		}, []string{"backend", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "alquad",
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Oracle backend call latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 15, 60, 120},
		}, []string{"backend"}),
	}
	m.registry.MustRegister(m.calls, m.latency)
	return m
}

// Registry exposes the collectors, e.g. for a /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Wrap returns b instrumented with m.
func (m *Metrics) Wrap(b Backend) Backend {
	return &MetricsBackend{backend: b, metrics: m}
}

// Snapshot summarizes the collected metrics.
type Snapshot struct {
	Calls       int
	Errors      int
	Quota       int
	MeanLatency time.Duration
}

// Snapshot gathers the current totals across all backends.
func (m *Metrics) Snapshot() Snapshot {
	var s Snapshot
	families, err := m.registry.Gather()
	if err != nil {
		return s
	}

	var sum float64
	var count uint64
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil && mf.GetName() == "alquad_oracle_calls_total" {
				n := int(c.GetValue())
				s.Calls += n
				for _, lp := range metric.GetLabel() {
					if lp.GetName() != "outcome" {
						continue
					}
					switch lp.GetValue() {
					case OutcomeError:
						s.Errors += n
					case OutcomeQuota:
						s.Quota += n
					}
				}
			}
			if h := metric.GetHistogram(); h != nil {
				sum += h.GetSampleSum()
				count += h.GetSampleCount()
			}
		}
	}
	if count > 0 {
		s.MeanLatency = time.Duration(sum / float64(count) * float64(time.Second))
	}
	return s
}

// MetricsBackend wraps a Backend with call counting and latency tracking.
type MetricsBackend struct {
	backend Backend
	metrics *Metrics
}

// Name returns the wrapped backend's name.
func (b *MetricsBackend) Name() string {
	return b.backend.Name()
}

// Available delegates to the wrapped backend.
func (b *MetricsBackend) Available(ctx context.Context) bool {
	return b.backend.Available(ctx)
}

// GenerateContent delegates and records the outcome.
func (b *MetricsBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := b.backend.GenerateContent(ctx, prompt)

	outcome := OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrQuotaExceeded) || IsQuotaSignal(err):
		outcome = OutcomeQuota
	default:
		outcome = OutcomeError
	}

	name := b.backend.Name()
	b.metrics.calls.WithLabelValues(name, outcome).Inc()
	b.metrics.latency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return text, err
}
