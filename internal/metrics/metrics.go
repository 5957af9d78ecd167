package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pdok_services"

// Metrics groups the collectors shared by the clients and the batch runner.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	batchRows        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "The total number of requests sent to PDOK services.",
		}, []string{"service", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of requests sent to PDOK services.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		batchRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_rows_total",
			Help:      "The total number of rows handled by the processing tools.",
		}, []string{"tool", "outcome"}),
	}
	reg.MustRegister(m.upstreamRequests, m.upstreamDuration, m.batchRows)
	return m
}

// ObserveRequest records one upstream round trip.
func (m *Metrics) ObserveRequest(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(service, outcome).Inc()
	m.upstreamDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// ObserveRow records one processed input row.
func (m *Metrics) ObserveRow(tool, outcome string) {
	if m == nil {
		return
	}
	m.batchRows.WithLabelValues(tool, outcome).Inc()
}
