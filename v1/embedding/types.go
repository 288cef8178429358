package embedding

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when no texts are given.
var ErrEmptyInput = errors.New("embedding: no texts provided")

// Provider computes one vector per input text, in input order.
type Provider interface {
	Create(ctx context.Context, texts ...string) ([][]float32, error)
}
