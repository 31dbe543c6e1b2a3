// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing setup for the audit service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/contentaudit/internal/schema"
)

const namespace = "contentaudit"

// Metrics is the set of collectors for one registry. Each Metrics owns its
// registry so tests and multiple servers in one process do not collide.
type Metrics struct {
	reg *prometheus.Registry

	// audits counts completed audits.
	// Labels: platform, tier
	audits *prometheus.CounterVec

	// violations counts emitted violations.
	// Labels: rule_id, severity
	violations *prometheus.CounterVec

	// duration measures the match+score+append path.
	duration prometheus.Histogram

	// score tracks the distribution of audit scores.
	score prometheus.Histogram

	journalErrors prometheus.Counter
	logSize       prometheus.Gauge
	reloads       *prometheus.CounterVec
}

// NewMetrics registers the audit collectors, plus the Go and process
// collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		audits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Total audits by platform and risk tier",
		}, []string{"platform", "tier"}),
		violations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total violations by rule and severity",
		}, []string{"rule_id", "severity"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Time to audit one text",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),
		score: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_score",
			Help:      "Distribution of audit scores",
			Buckets:   []float64{0, 25, 50, 60, 70, 80, 85, 90, 95, 100},
		}),
		journalErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_errors_total",
			Help:      "Audit journal write failures",
		}),
		logSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_log_entries",
			Help:      "Entries in the in-memory audit log",
		}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Rule catalog reload attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveAudit records one completed audit.
func (m *Metrics) ObserveAudit(r *schema.AuditResult, elapsed time.Duration) {
	m.audits.WithLabelValues(string(r.Platform), string(r.RiskTier)).Inc()
	for _, v := range r.Violations {
		m.violations.WithLabelValues(v.RuleID, string(v.Severity)).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
	m.score.Observe(float64(r.Score))
}

// JournalError counts a failed journal write.
func (m *Metrics) JournalError(error) {
	m.journalErrors.Inc()
}

// SetLogSize reports the current audit log length.
func (m *Metrics) SetLogSize(n int) {
	m.logSize.Set(float64(n))
}

// CatalogReload counts a reload attempt. ok is false when the new document
// was rejected and the previous catalog stayed active.
func (m *Metrics) CatalogReload(ok bool) {
	outcome := "applied"
	if !ok {
		outcome = "rejected"
	}
	m.reloads.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
