package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a Prometheus registry, the client RPC metrics and the HTTP
// server exposing them.
type Metrics struct {
	// Server serves the /metrics endpoint. It is not started by NewMetrics.
	Server *http.Server

	// Registry is the isolated registry all metrics are registered with.
	Registry *prometheus.Registry

	registerer prometheus.Registerer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rowsTotal       *prometheus.CounterVec
}

// NewMetrics creates the registry, registers the client metrics under a
// constant service label and prepares the HTTP server.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "search-api"})
//	go m.Server.ListenAndServe()
//	client.WithObserver(m)
//
// Access metrics at: http://localhost:9090/metrics
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	var registerer prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registerer)
	}
	if cfg.Namespace != "" {
		registerer = prometheus.WrapRegistererWithPrefix(cfg.Namespace+"_", registerer)
	}

	m := &Metrics{
		Registry:   registry,
		registerer: registerer,
	}

	m.requestsTotal = createCounterVec("vdb_rpc_requests_total", "Total number of vector database operations", []string{"operation", "status"})
	m.requestDuration = createHistogramVec("vdb_rpc_duration_seconds", "Duration of vector database operations in seconds", []string{"operation"}, prometheus.DefBuckets)
	m.rowsTotal = createCounterVec("vdb_rows_total", "Rows written or hits returned by vector database operations", []string{"operation"})

	registerer.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.rowsTotal,
	)

	if cfg.EnableDefaultCollectors {
		registerer.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.Server = &http.Server{
		Addr:    address,
		Handler: mux,
	}
	return m
}
