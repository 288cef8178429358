package vdb

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/Aleph-Alpha/vdb-client/v1/observability"
)

const (
	requestIDHeader = "client-request-id"
	databaseHeader  = "dbname"
	component       = "vdb"
)

// unaryInterceptor applies the default deadline, tags the request and wraps
// it in a span. Observers are notified by the operation methods instead,
// since only they see server-side statuses.
func (c *Client) unaryInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if c.closed.Load() {
			return ErrClientClosed
		}
		if _, ok := ctx.Deadline(); !ok && c.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}

		requestID := uuid.NewString()
		ctx = metadata.AppendToOutgoingContext(ctx, requestIDHeader, requestID)
		if c.cfg.Database != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, databaseHeader, c.cfg.Database)
		}

		if c.tracer != nil {
			spanCtx, span := c.tracer.StartSpan(ctx, "vdb."+path.Base(method))
			defer span.End()
			ctx = spanCtx

			err := invoker(ctx, method, req, reply, cc, opts...)
			if err != nil {
				c.tracer.RecordErrorOnSpan(span, err)
			}
			return err
		}

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// operation tracks one public method call for the observer and the logger.
type operation struct {
	client      *Client
	name        string
	resource    string
	subResource string
	start       time.Time
	size        int64
}

func (c *Client) begin(name, resource, subResource string) *operation {
	return &operation{client: c, name: name, resource: resource, subResource: subResource, start: time.Now()}
}

// end reports the outcome. Use it deferred with a pointer to the named
// error result.
func (op *operation) end(errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	duration := time.Since(op.start)

	fields := map[string]interface{}{
		"operation":   op.name,
		"collection":  op.resource,
		"duration_ms": duration.Milliseconds(),
	}
	if op.subResource != "" {
		fields["sub_resource"] = op.subResource
	}
	if err != nil {
		op.client.logger.Error("[VDB] operation failed", err, fields)
	} else {
		op.client.logger.Debug("[VDB] operation completed", nil, fields)
	}

	if op.client.observer == nil {
		return
	}
	op.client.observer.ObserveOperation(observability.OperationContext{
		Component:   component,
		Operation:   op.name,
		Resource:    op.resource,
		SubResource: op.subResource,
		Duration:    duration,
		Error:       err,
		Size:        op.size,
	})
}
