package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around Uber's Zap logger. Its method set matches the
// Logger interfaces of the client packages, so a *Logger can be handed to
// them directly.
type Logger struct {
	// Zap is exposed for callers that need Zap-specific functionality.
	Zap *zap.Logger

	tracingEnabled bool
}

// NewLoggerClient builds a JSON logger writing to stderr.
//
// Entries carry an ISO8601 "timestamp", the caller, the process id and the
// configured service name.
//
// Example:
//
//	log, err := logger.NewLoggerClient(logger.Config{Level: logger.Debug})
//	if err != nil {
//	    panic(err)
//	}
//	log.Info("Application started", nil)
func NewLoggerClient(cfg Config) (*Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}

	zl, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{Zap: zl, tracingEnabled: cfg.EnableTracing}, nil
}

// NewWithCore wraps an existing core, e.g. one from zaptest/observer.
func NewWithCore(core zapcore.Core, enableTracing bool) *Logger {
	return &Logger{Zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), tracingEnabled: enableTracing}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	}
	return zap.InfoLevel
}
