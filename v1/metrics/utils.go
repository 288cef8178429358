package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/vdb-client/v1/observability"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var _ MetricsCollector = (*Metrics)(nil)

// ObserveOperation records one finished client operation.
func (m *Metrics) ObserveOperation(ctx observability.OperationContext) {
	status := statusSuccess
	if ctx.Error != nil {
		status = statusError
	}
	m.requestsTotal.WithLabelValues(ctx.Operation, status).Inc()
	m.requestDuration.WithLabelValues(ctx.Operation).Observe(ctx.Duration.Seconds())
	if ctx.Size > 0 {
		m.rowsTotal.WithLabelValues(ctx.Operation).Add(float64(ctx.Size))
	}
}

// IncrementRequests increments the request counter.
// Example: m.IncrementRequests("Search", "success")
func (m *Metrics) IncrementRequests(operation, status string) {
	m.requestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordRequestDuration records the duration (in seconds) of an operation.
// Example: defer m.RecordRequestDuration(time.Now(), "Search")
func (m *Metrics) RecordRequestDuration(start time.Time, operation string) {
	m.requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// CreateCounter creates a new CounterVec metric and registers it.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a new HistogramVec metric and registers it.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a new GaugeVec metric and registers it.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := createGaugeVec(name, help, labels)
	m.registerer.MustRegister(gauge)
	return gauge
}

func createCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}

func createHistogramVec(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: buckets,
		},
		labels,
	)
}

func createGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}
