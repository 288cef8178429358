package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/vdb-client/v1/observability"
)

// MetricsCollector collects client metrics. It is an observability.Observer,
// so it can be handed straight to vdb.Client.WithObserver.
//
// This interface is implemented by the concrete *Metrics type.
type MetricsCollector interface {
	observability.Observer

	// IncrementRequests counts one operation with the given outcome.
	IncrementRequests(operation, status string)

	// RecordRequestDuration records the time since start for an operation.
	RecordRequestDuration(start time.Time, operation string)

	// CreateCounter creates a new CounterVec metric and registers it.
	CreateCounter(name, help string, labels []string) *prometheus.CounterVec

	// CreateHistogram creates a new HistogramVec metric and registers it.
	CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec

	// CreateGauge creates a new GaugeVec metric and registers it.
	CreateGauge(name, help string, labels []string) *prometheus.GaugeVec
}
