// Package metrics exposes Prometheus counters for attendance activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records attendance outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	denials     *prometheus.CounterVec
}

// New creates a registry with process and Go collectors plus the
// attendance counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "committeehub",
			Name:      "attendance_submissions_total",
			Help:      "Attendance submissions accepted, by mode (full, self, link).",
		}, []string{"mode"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "committeehub",
			Name:      "attendance_denials_total",
			Help:      "Attendance requests rejected, by operation and reason.",
		}, []string{"operation", "reason"}),
	}
	reg.MustRegister(m.submissions, m.denials)
	return m
}

// Submission counts an accepted submission.
func (m *Metrics) Submission(mode string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(mode).Inc()
}

// Denial counts a rejected request.
func (m *Metrics) Denial(operation, reason string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(operation, reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
