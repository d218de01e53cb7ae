// SPDX-License-Identifier: MIT

package allocation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	duration  *prometheus.HistogramVec
	snapshots *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg (the default registerer when
// nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridflow_allocation_duration_seconds",
			Help:    "Duration of allocation runs by method",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60, 600},
		}, []string{"method"}),
		snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridflow_snapshots_allocated_total",
			Help: "Snapshots allocated by method and execution mode",
		}, []string{"method", "mode"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gridflow_allocation_errors_total",
			Help: "Failed allocation runs by method",
		}, []string{"method"}),
	}
}

func (m *Metrics) observe(method string, md mode, start time.Time, n int, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(method).Inc()
		return
	}
	m.snapshots.WithLabelValues(method, md.String()).Add(float64(n))
}
