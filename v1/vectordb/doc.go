// Package vectordb defines a small storage-agnostic surface for embedding
// search: records with an ID, a vector and a JSON payload, plus filters over
// those payloads.
//
// # Architecture
//
//	┌─────────────────────────────────────────────┐
//	│              Application Layer              │
//	│   (depends on vectordb.Service only)        │
//	└──────────────────────┬──────────────────────┘
//	                       │
//	                       ▼
//	┌─────────────────────────────────────────────┐
//	│              vectordb.Service               │
//	└──────────────────────┬──────────────────────┘
//	                       │
//	                       ▼
//	┌─────────────────────────────────────────────┐
//	│     vdb.Adapter (id / vector / payload)     │
//	│   filters → boolean expressions over gRPC   │
//	└─────────────────────────────────────────────┘
//
// # Usage
//
//	type SearchService struct {
//	    db vectordb.Service
//	}
//
//	func (s *SearchService) Similar(ctx context.Context, vector []float32) ([]vectordb.SearchResult, error) {
//	    results, err := s.db.Search(ctx, vectordb.SearchRequest{
//	        CollectionName: "documents",
//	        Vector:         vector,
//	        TopK:           10,
//	        Filters: vectordb.NewFilterSet(
//	            vectordb.Must(vectordb.NewPayloadMatch("status", "published")),
//	            vectordb.MustNot(vectordb.NewPayloadNumericRange("year", vectordb.NumericRange{Lt: vectordb.Float(2000)})),
//	        ),
//	    })
//	    if err != nil {
//	        return nil, err
//	    }
//	    return results[0], nil
//	}
//
// Wiring:
//
//	client, _ := vdb.NewClient(vdb.FromEndpoint("localhost", 19530))
//	svc := &SearchService{db: vdb.NewAdapter(client)}
//
// # Filter Types
//
//	| Type                  | Description      | Expression              |
//	|-----------------------|------------------|-------------------------|
//	| MatchCondition        | Exact value      | field == value          |
//	| MatchAnyCondition     | Value in set     | field in [...]          |
//	| MatchExceptCondition  | Value not in set | field not in [...]      |
//	| NumericRangeCondition | Numeric bounds   | field >= a && field < b |
//
// Conditions built with the NewPayload* constructors address keys of the
// JSON payload; the plain constructors address collection fields.
package vectordb
