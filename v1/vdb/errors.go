package vdb

import (
	"errors"
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"

	"github.com/Aleph-Alpha/vdb-client/v1/schema"
)

// Common client errors
var (
	// ErrMalformedResponse is returned when a server reply violates a
	// structural invariant. It is the same value as schema.ErrMalformedResponse.
	ErrMalformedResponse = schema.ErrMalformedResponse

	// ErrClientClosed is returned for calls made after Close.
	ErrClientClosed = errors.New("vdb: client is closed")

	// ErrEmptyCollectionName is returned when an operation needs a collection name and got none.
	ErrEmptyCollectionName = errors.New("vdb: collection name is empty")

	// ErrEmptyPartitionName is returned when an operation needs a partition name and got none.
	ErrEmptyPartitionName = errors.New("vdb: partition name is empty")

	// ErrEmptyVectors is returned for a search without query vectors.
	ErrEmptyVectors = errors.New("vdb: no query vectors")

	// ErrInvalidTopK is returned for a search with a non-positive result limit.
	ErrInvalidTopK = errors.New("vdb: topK must be positive")

	// ErrEmptyExpression is returned for a delete or query without a filter expression.
	ErrEmptyExpression = errors.New("vdb: expression is empty")

	// ErrInvalidArgument is returned for other locally rejected arguments.
	ErrInvalidArgument = errors.New("vdb: invalid argument")

	// ErrMissingConfig is returned when NewClient is called without configuration.
	ErrMissingConfig = errors.New("vdb: missing configuration")
)

// ServerError carries a non-success status returned by the server.
type ServerError struct {
	// ErrorCode is the legacy enumerated code.
	ErrorCode commonpb.ErrorCode
	// Code is the numeric code newer servers send alongside ErrorCode.
	Code int32
	// Reason is the human-readable message.
	Reason string
}

func (e *ServerError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("vdb: server error %s (code %d): %s", e.ErrorCode, e.Code, e.Reason)
	}
	return fmt.Sprintf("vdb: server error %s: %s", e.ErrorCode, e.Reason)
}

// IsServerError reports whether err carries a server status and returns it.
func IsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsMalformedResponse reports whether err was caused by an invalid server reply.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// checkStatus turns a response status into an error. A missing status is a
// malformed response.
func checkStatus(status *commonpb.Status) error {
	if status == nil {
		return fmt.Errorf("%w: response has no status", ErrMalformedResponse)
	}
	if status.GetErrorCode() == commonpb.ErrorCode_Success && status.GetCode() == 0 {
		return nil
	}
	return &ServerError{
		ErrorCode: status.GetErrorCode(),
		Code:      status.GetCode(),
		Reason:    status.GetReason(),
	}
}

// statusHolder is implemented by every response message that carries a status.
type statusHolder interface {
	GetStatus() *commonpb.Status
}

func checkResponse(resp statusHolder, err error) error {
	if err != nil {
		return err
	}
	return checkStatus(resp.GetStatus())
}
