package embedding

import (
	"context"
	"fmt"
)

// Client is the public entrypoint for computing embeddings.
//
// It hides the provider and splits large inputs into batches.
type Client struct {
	provider  Provider
	batchSize int
}

// NewClient validates cfg and builds a client for the OpenAI-compatible API.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}
	return NewWithProvider(newOpenAIProvider(cfg), cfg.BatchSize), nil
}

// NewWithProvider wraps any Provider. A batchSize of zero sends all texts at
// once.
func NewWithProvider(p Provider, batchSize int) *Client {
	return &Client{provider: p, batchSize: batchSize}
}

// CreateEmbeddings returns one vector per text, in input order.
func (c *Client) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	size := c.batchSize
	if size <= 0 {
		size = len(texts)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vectors, err := c.provider.Create(ctx, texts[start:end]...)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Close releases provider resources, if the provider holds any.
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
