package facade

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records resolver outcomes in Prometheus.
type Metrics struct {
	operations *prometheus.CounterVec   // By operation and status (ok/error code)
	duration   *prometheus.HistogramVec // By operation
}

// NewMetrics creates and registers facade metrics with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rescue",
			Subsystem: "facade",
			Name:      "operations_total",
			Help:      "Total number of resolver calls",
		}, []string{"operation", "status"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rescue",
			Subsystem: "facade",
			Name:      "operation_duration_seconds",
			Help:      "Resolver duration in seconds, store round trips included",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records one resolver call. A nil *Metrics is a no-op.
func (m *Metrics) observe(operation string, start time.Time, err *Error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = err.Code
	}
	m.operations.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
