// Package metrics exposes export and compliance counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics owns its registry so tests and multiple servers do not collide on
// the global one.
type Metrics struct {
	registry   *prometheus.Registry
	exports    *prometheus.CounterVec
	violations prometheus.Counter
	lines      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tss",
			Name:      "exports_total",
			Help:      "Export attempts broken down by export (submission, report, payslip) and outcome.",
		}, []string{"kind", "outcome"}),
		violations: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tss",
			Name:      "compliance_violations_total",
			Help:      "Ceiling violations reported by the compliance validator.",
		}),
		lines: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tss",
			Name:      "payroll_lines_total",
			Help:      "Payroll lines computed, broken down by resulting status.",
		}, []string{"status"}),
	}
}

// Export records one export attempt under the export name, whatever the
// format of the artifact produced.
func (m *Metrics) Export(name, outcome string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) Violations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.violations.Add(float64(n))
}

func (m *Metrics) Line(status string) {
	if m == nil {
		return
	}
	m.lines.WithLabelValues(status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
