package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
)

// Metrics holds the prometheus collectors for settlement operations
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Published  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kivoro_ledger_operations_total",
				Help: "Settlement operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kivoro_ledger_operation_duration_seconds",
				Help:    "Duration of settlement operations in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		Published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kivoro_ledger_events_published_total",
				Help: "Ledger events handed to the publisher by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Duration, m.Published)
	}
	return m
}

func (m *Metrics) observe(operation string, kind models.ErrorKind, start time.Time) {
	if m == nil {
		return
	}
	result := "success"
	if kind != models.KindNone {
		result = string(kind)
	}
	m.Operations.WithLabelValues(operation, result).Inc()
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) published(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Published.WithLabelValues(outcome).Inc()
}
