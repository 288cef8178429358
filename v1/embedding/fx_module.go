package embedding

import (
	"context"

	"go.uber.org/fx"
)

// FXModule wires the embedding client into Fx.
//
// It provides:
//   - *Config  (NewConfig, from the environment)
//   - *Client  (NewClient)
var FXModule = fx.Module(
	"embedding",

	fx.Provide(
		NewConfig,
		NewClient,
	),

	fx.Invoke(RegisterEmbeddingLifecycle),
)

// RegisterEmbeddingLifecycle closes the client on application shutdown.
func RegisterEmbeddingLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
