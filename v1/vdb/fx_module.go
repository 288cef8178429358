package vdb

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vdb-client/v1/observability"
	"github.com/Aleph-Alpha/vdb-client/v1/vectordb"
)

// FXModule is an fx.Module that provides the vector database client and its
// vectordb.Service adapter, and ties the connection to the application
// lifecycle.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule, // optional, provides an observer
//	    vdb.FXModule,
//	    fx.Provide(
//	        vdb.ConfigFromEnv,
//	        func(l *logger.Logger) vdb.Logger { return l }, // optional
//	    ),
//	)
//
// Dependencies required by this module:
// - A *vdb.Config instance must be available in the dependency injection container.
var FXModule = fx.Module("vdb",
	fx.Provide(
		NewClientWithDI,
		NewServiceWithDI,
	),
	fx.Invoke(RegisterVDBLifecycle),
)

// VDBParams groups the dependencies needed to create a client.
type VDBParams struct {
	fx.In

	Config   *Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   Tracer                 `optional:"true"`
}

// NewClientWithDI creates a client from injected dependencies. The optional
// logger, observer and tracer are attached when present.
func NewClientWithDI(params VDBParams) (*Client, error) {
	if params.Logger != nil {
		params.Config.Logger = params.Logger
	}
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	if params.Tracer != nil {
		client.WithTracer(params.Tracer)
	}
	return client, nil
}

// NewServiceWithDI exposes the client as a vectordb.Service.
func NewServiceWithDI(client *Client) vectordb.Service {
	return NewAdapter(client)
}

// RegisterVDBLifecycle closes the client connection when the application stops.
func RegisterVDBLifecycle(lc fx.Lifecycle, client *Client) {
	var once sync.Once

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			client.logger.Info("[VDB] client initialized successfully", nil, map[string]interface{}{"target": client.cfg.target()})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var err error
			once.Do(func() {
				err = client.Close()
				client.logger.Info("[VDB] client connection closed", err)
			})
			return err
		},
	})
}
