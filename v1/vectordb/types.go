package vectordb

// SearchRequest is one similarity query against a single collection.
type SearchRequest struct {
	CollectionName string `json:"collectionName"`

	// Vector is the query embedding. Its length must match the collection
	// dimension.
	Vector []float32 `json:"vector"`

	// TopK bounds the number of results.
	TopK int `json:"maxResults"`

	// Filters restricts the candidates. Nil means no restriction.
	Filters *FilterSet `json:"filters,omitempty"`
}

// SearchResult is one hit.
type SearchResult struct {
	ID             string         `json:"id"`
	Score          float32        `json:"score"`
	Payload        map[string]any `json:"payload"`
	CollectionName string         `json:"collectionName,omitempty"`
}

// Record is an embedding to store, together with its arbitrary JSON payload.
type Record struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Collection describes a stored collection.
type Collection struct {
	Name      string `json:"name"`
	Loaded    bool   `json:"loaded"`
	Dimension int64  `json:"dimension"`
	Metric    string `json:"metric"`
	RowCount  int64  `json:"rowCount"`
}
