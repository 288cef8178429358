package vectordb

import "context"

// Service is the storage-agnostic surface applications program against.
// vdb.Adapter implements it on top of the gRPC client; tests can substitute
// an in-memory fake.
type Service interface {
	// Search runs one similarity search per request. The outer slice of the
	// result follows the order of requests.
	Search(ctx context.Context, requests ...SearchRequest) ([][]SearchResult, error)

	// Insert writes records. Records whose ID already exists are replaced.
	Insert(ctx context.Context, collection string, records []Record) error

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, collection string, ids []string) error

	// EnsureCollection creates, indexes and loads the collection when it
	// does not exist yet. It is safe to call on every start.
	EnsureCollection(ctx context.Context, name string, dimension int64) error

	// DropCollection removes the collection and all its records.
	DropCollection(ctx context.Context, name string) error

	// GetCollection reports the layout and size of a collection.
	GetCollection(ctx context.Context, name string) (*Collection, error)

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)
}
