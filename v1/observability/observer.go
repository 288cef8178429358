// Package observability defines the hook that clients in this module use to
// report completed operations to metrics or tracing backends.
//
// A client holds an optional Observer and calls ObserveOperation once per
// operation, after it finished:
//
//	client.WithObserver(metricsCollector)
package observability

import "time"

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component names the client that ran the operation, e.g. "vdb".
	Component string

	// Operation is the logical operation, e.g. "Search" or "CreateCollection".
	Operation string

	// Resource is the primary target, usually a collection name.
	Resource string

	// SubResource narrows Resource, e.g. a partition or field name.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is an operation-specific amount such as rows written or hits returned.
	Size int64

	Metadata map[string]interface{}
}

// Observer receives OperationContext values. Implementations must be safe
// for concurrent use and should not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }
