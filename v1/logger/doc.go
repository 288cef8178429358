// Package logger provides structured JSON logging on top of zap.
//
// The method set of *Logger (Info, Debug, Warn, Error, Fatal with an error
// and optional field maps) is the Logger interface the client packages
// accept, so one logger can be shared across them.
//
// # Usage
//
//	log, err := logger.NewLoggerClient(logger.Config{
//	    Level:         logger.Debug,
//	    ServiceName:   "search-api",
//	    EnableTracing: true,
//	})
//	if err != nil {
//	    panic(err)
//	}
//
//	log.Info("Collection created", nil, map[string]interface{}{"collection": "books"})
//	log.ErrorWithContext(ctx, "Search failed", err) // adds trace_id and span_id
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug
//	SERVICE_NAME=search-api
//	LOGGER_ENABLE_TRACING=true
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Provide(func() logger.Config { return logger.Config{Level: logger.Info} }),
//	)
package logger
