// Package metrics provides handler.MetricsSink and handler.StatusReporter
// implementations backed by Prometheus, plus an in-memory recorder.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "handlerd",
			Subsystem: "handler",
			Name:      "stage_duration_ms",
			Help:      "Duration of handler pipeline stages in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"model", "metric"},
	)

	statusReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "handlerd",
			Subsystem: "handler",
			Name:      "status_reports_total",
			Help:      "Total status reports emitted by handlers",
		},
		[]string{"model", "code"},
	)

	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "handlerd",
			Subsystem: "handler",
			Name:      "batches_total",
			Help:      "Total batches handled, by outcome",
		},
		[]string{"model", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(stageDuration, statusReports, batchesTotal)
}

// PrometheusSink records stage timings for one model.
type PrometheusSink struct{ model string }

// NewPrometheusSink returns a sink labelled with model.
func NewPrometheusSink(model string) *PrometheusSink { return &PrometheusSink{model: model} }

func (s *PrometheusSink) AddTime(name string, ms float64) {
	stageDuration.WithLabelValues(s.model, name).Observe(ms)
}

// PrometheusStatus counts status reports for one model.
type PrometheusStatus struct{ model string }

// NewPrometheusStatus returns a status reporter labelled with model.
func NewPrometheusStatus(model string) *PrometheusStatus { return &PrometheusStatus{model: model} }

func (s *PrometheusStatus) ReportStatus(code int, msg string) {
	statusReports.WithLabelValues(s.model, strconv.Itoa(code)).Inc()
}

// ObserveBatch counts a handled batch; outcome is "ok" or "error".
func ObserveBatch(model, outcome string) {
	if outcome == "" {
		outcome = "unspecified"
	}
	batchesTotal.WithLabelValues(model, outcome).Inc()
}
