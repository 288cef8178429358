package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config selects the level and static fields of the logger.
type Config struct {
	// Level is one of debug, info, warning or error. Anything else means info.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL" default:"info"`

	// ServiceName is attached to every entry as "service".
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"vdb-client"`

	// EnableTracing adds trace_id and span_id to entries logged with a
	// context that carries an active span.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`
}
