package tracer

// Config describes the tracer provider.
type Config struct {
	// ServiceName becomes the service.name resource attribute.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME" default:"vdb-client"`

	// AppEnv is recorded as the deployment environment.
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV" default:"development"`

	// EnableExport sends spans to an OTLP/HTTP collector. Without it spans
	// are created but dropped.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`

	// Endpoint overrides the collector address, e.g. "otel-collector:4318".
	// Empty uses the OTEL_EXPORTER_OTLP_* environment.
	Endpoint string `yaml:"endpoint" envconfig:"TRACER_ENDPOINT"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" envconfig:"TRACER_INSECURE"`
}
