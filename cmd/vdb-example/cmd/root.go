package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vdb-client/v1/logger"
	"github.com/Aleph-Alpha/vdb-client/v1/metrics"
	"github.com/Aleph-Alpha/vdb-client/v1/tracer"
	"github.com/Aleph-Alpha/vdb-client/v1/vdb"
)

var serveMetrics bool

var rootCmd = &cobra.Command{
	Use:   "vdb-example",
	Short: "Example programs for the vector database client",
	Long: "Example programs for the vector database client.\n\n" +
		"The connection is configured through VDB_HOST, VDB_PORT, VDB_USERNAME,\n" +
		"VDB_PASSWORD, VDB_API_KEY and VDB_DATABASE. Spans are exported when\n" +
		"TRACER_ENABLE_EXPORT is set.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&serveMetrics, "metrics", false, "serve Prometheus metrics on METRICS_ADDRESS while running")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(embeddingsCmd)
}

type session struct {
	client *vdb.Client
	log    *logger.Logger
	tracer *tracer.Tracer
	server *http.Server
}

// connect builds the logger, tracer, metrics and client from the environment.
func connect() (*session, error) {
	var logCfg logger.Config
	if err := envconfig.Process("", &logCfg); err != nil {
		return nil, fmt.Errorf("read logger config: %w", err)
	}
	log, err := logger.NewLoggerClient(logCfg)
	if err != nil {
		return nil, err
	}

	var traceCfg tracer.Config
	if err := envconfig.Process("", &traceCfg); err != nil {
		return nil, fmt.Errorf("read tracer config: %w", err)
	}
	t, err := tracer.NewClient(traceCfg, log)
	if err != nil {
		return nil, err
	}

	var metricsCfg metrics.Config
	if err := envconfig.Process("", &metricsCfg); err != nil {
		return nil, fmt.Errorf("read metrics config: %w", err)
	}
	m := metrics.NewMetrics(metricsCfg)

	cfg, err := vdb.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Logger = log

	client, err := vdb.NewClient(cfg)
	if err != nil {
		_ = t.Shutdown(context.Background())
		return nil, err
	}
	client.WithTracer(t).WithObserver(m)

	s := &session{client: client, log: log, tracer: t}
	if serveMetrics {
		s.server = m.Server
		go func() {
			if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", err)
			}
		}()
	}
	return s, nil
}

func (s *session) Close() {
	ctx := context.Background()
	if err := s.client.Close(); err != nil {
		s.log.Warn("failed to close client", err)
	}
	if s.server != nil {
		_ = s.server.Shutdown(ctx)
	}
	if err := s.tracer.Shutdown(ctx); err != nil {
		s.log.Warn("failed to flush spans", err)
	}
	_ = s.log.Zap.Sync()
}
