// Package metrics exports Prometheus metrics for the vector database client.
//
// *Metrics implements observability.Observer. Attached to a client it counts
// every operation by name and outcome, records its latency and totals the rows
// written or hits returned:
//
//	vdb_rpc_requests_total{operation="Search",status="success"}
//	vdb_rpc_duration_seconds_bucket{operation="Search",le="0.1"}
//	vdb_rows_total{operation="Insert"}
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "search-api"})
//	go m.Server.ListenAndServe()
//
//	client, err := vdb.NewClient(cfg)
//	if err != nil {
//	    return err
//	}
//	client.WithObserver(m)
//
// # FX Module Integration
//
// FXModule provides *Metrics and an observability.Observer. vdb.FXModule picks
// up the observer automatically:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    vdb.FXModule,
//	    fx.Provide(loadConfigs),
//	)
//
// # Configuration
//
//	METRICS_ADDRESS=:9090                      # Address of the /metrics endpoint
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true     # Go runtime and process metrics
//	METRICS_NAMESPACE=pharia_data              # Optional prefix for all metric names
//	METRICS_SERVICE_NAME=search-api            # Constant service label
//
// # Custom Metrics
//
// Additional collectors are registered through CreateCounter, CreateHistogram
// and CreateGauge so they carry the same namespace and service label.
//
// # Thread Safety
//
// All methods on Metrics are safe for concurrent use.
package metrics
