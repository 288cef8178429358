// Package vdb provides a typed, dependency-injected gRPC client for a
// Milvus-compatible vector database.
//
// The client wraps every RPC of the server's service in a Go method that
// validates its arguments locally, checks the returned status and converts
// the reply into the types of the schema package. Inserts are checked
// against the collection schema before anything is sent.
//
// # Core Features
//
//   - Connection with basic or token authentication and optional TLS
//   - Config struct supporting environment and YAML loading
//   - Optional health check on client initialization
//   - Collection, partition, alias and index management
//   - Insert, upsert, delete, search and query with consistency levels
//   - Credential, role and system administration calls
//   - Observer, logger and tracer hooks for every operation
//   - Database-agnostic interface via vectordb.Service ([Adapter])
//   - Fx integration through [FXModule]
//
// # Basic Usage
//
//	import (
//	    "github.com/Aleph-Alpha/vdb-client/v1/schema"
//	    "github.com/Aleph-Alpha/vdb-client/v1/vdb"
//	)
//
//	client, err := vdb.NewClient(vdb.FromEndpoint("localhost", 19530).
//	    WithCredentials("root", "Milvus"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	id, _ := schema.NewField("book_id", schema.DataTypeInt64, schema.WithPrimaryKey())
//	intro, _ := schema.NewField("book_intro", schema.DataTypeFloatVector, schema.WithDimension(2))
//	books, _ := schema.NewCollectionSchema("books", []*schema.FieldSchema{id, intro})
//
//	if err := client.CreateCollection(ctx, books, nil); err != nil {
//	    log.Fatal(err)
//	}
//
// # Searching
//
//	res, err := client.Search(ctx, &vdb.SearchRequest{
//	    CollectionName: "books",
//	    VectorField:    "book_intro",
//	    Vectors:        [][]float32{{0.1, 0.2}},
//	    TopK:           3,
//	    MetricType:     "L2",
//	    Params:         map[string]interface{}{"nprobe": 10},
//	    Expr:           "book_id > 100",
//	})
//	for _, hit := range res.Hits(0) {
//	    fmt.Println(hit.ID, hit.Score)
//	}
//
// # Consistency
//
// Search and Query accept a [ConsistencyLevel]. Session consistency (and the
// default level) waits for the last write this client made to the
// collection; Strong waits for all writes; Eventually and Bounded do not wait.
//
// # Configuration
//
// The client can be configured via environment variables or YAML:
//
//	VDB_HOST=localhost
//	VDB_PORT=19530
//	VDB_USERNAME=root
//	VDB_PASSWORD=Milvus
//	VDB_DATABASE=default
//	VDB_TLS_ENABLED=false
//
// # Error Handling
//
// Non-success statuses are returned as [*ServerError]. Replies that violate
// a structural invariant, such as a search result whose topks do not sum to
// the number of scores, fail with [ErrMalformedResponse]:
//
//	if serr, ok := vdb.IsServerError(err); ok {
//	    log.Printf("server rejected the call: %s", serr.Reason)
//	}
//
// # Thread Safety
//
// All exported methods on Client and Adapter are safe for concurrent use.
//
// # Package Layout
//
//	vdb/
//	├── client.go        // connection, caches and lifecycle
//	├── configs.go       // configuration struct and loaders
//	├── auth.go          // per-RPC credentials
//	├── interceptors.go  // deadline, request metadata, tracing, observation
//	├── collection.go    // collection management
//	├── partition.go     // partitions and aliases
//	├── index.go         // index management
//	├── data.go          // insert, upsert, delete, search, query, flush
//	├── admin.go         // credentials, roles, system calls
//	├── adapter.go       // vectordb.Service implementation
//	├── filters.go       // vectordb filters → boolean expressions
//	└── fx_module.go     // Fx dependency injection module
package vdb
