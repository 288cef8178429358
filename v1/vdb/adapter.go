package vdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/vdb-client/v1/schema"
	"github.com/Aleph-Alpha/vdb-client/v1/vectordb"
)

// Field layout of collections managed by the Adapter.
const (
	AdapterIDField      = "id"
	AdapterVectorField  = "vector"
	AdapterPayloadField = "payload"

	adapterIDMaxLength = 512
	adapterBatchSize   = 1000
	adapterMetric      = "COSINE"
)

// Adapter implements vectordb.Service on top of a Client. Every collection
// it manages has a VarChar "id" primary key, a float "vector" field and a
// JSON "payload" field.
//
// Example:
//
//	client, err := vdb.NewClient(vdb.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var db vectordb.Service = vdb.NewAdapter(client)
type Adapter struct {
	client *Client
}

var _ vectordb.Service = (*Adapter)(nil)

// NewAdapter wraps a connected client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// AdapterSchema returns the collection layout used by the Adapter.
func AdapterSchema(name string, dimension int64) (*schema.CollectionSchema, error) {
	id, err := schema.NewField(AdapterIDField, schema.DataTypeVarChar,
		schema.WithPrimaryKey(), schema.WithMaxLength(adapterIDMaxLength))
	if err != nil {
		return nil, err
	}
	vector, err := schema.NewField(AdapterVectorField, schema.DataTypeFloatVector, schema.WithDimension(dimension))
	if err != nil {
		return nil, err
	}
	payload, err := schema.NewField(AdapterPayloadField, schema.DataTypeJSON)
	if err != nil {
		return nil, err
	}
	return schema.NewCollectionSchema(name, []*schema.FieldSchema{id, vector, payload})
}

// EnsureCollection ──────────────────────────────────────────────────────────────
// EnsureCollection
// ──────────────────────────────────────────────────────────────
//
// EnsureCollection creates, indexes and loads the collection if it is
// missing. An existing collection is left as it is.
func (a *Adapter) EnsureCollection(ctx context.Context, name string, dimension int64) error {
	exists, err := a.client.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		a.client.logger.Debug("[VDB] collection already exists", nil, map[string]interface{}{"collection": name})
		return nil
	}

	sc, err := AdapterSchema(name, dimension)
	if err != nil {
		return err
	}
	if err := a.client.CreateCollection(ctx, sc, nil); err != nil {
		return err
	}
	err = a.client.CreateIndex(ctx, name, AdapterVectorField, "", map[string]string{
		IndexTypeKey:  "AUTOINDEX",
		MetricTypeKey: adapterMetric,
	})
	if err != nil {
		return err
	}
	if err := a.client.LoadCollection(ctx, name, 1); err != nil {
		return err
	}
	a.client.logger.Info("[VDB] created collection", nil, map[string]interface{}{"collection": name, "dimension": dimension})
	return nil
}

// DropCollection removes the collection.
func (a *Adapter) DropCollection(ctx context.Context, name string) error {
	return a.client.DropCollection(ctx, name)
}

// Insert ──────────────────────────────────────────────────────────────
// Insert
// ──────────────────────────────────────────────────────────────
//
// Insert upserts records in batches. Payloads are stored as JSON documents.
func (a *Adapter) Insert(ctx context.Context, collection string, records []vectordb.Record) error {
	for start := 0; start < len(records); start += adapterBatchSize {
		end := min(start+adapterBatchSize, len(records))
		if err := a.upsertBatch(ctx, collection, records[start:end]); err != nil {
			return fmt.Errorf("[VDB] batch upsert failed at [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (a *Adapter) upsertBatch(ctx context.Context, collection string, batch []vectordb.Record) error {
	ids := make([]string, len(batch))
	rows := make([][]float32, len(batch))
	docs := make([][]byte, len(batch))
	for i, r := range batch {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has no id", ErrInvalidArgument, i)
		}
		payload := r.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		doc, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("[VDB] encode payload of %q: %w", r.ID, err)
		}
		ids[i], rows[i], docs[i] = r.ID, r.Vector, doc
	}

	vectors, err := schema.NewFloatVectorColumnFromRows(rows)
	if err != nil {
		return err
	}
	_, err = a.client.Upsert(ctx, collection, "",
		schema.NewFieldData(AdapterIDField, schema.DataTypeVarChar, schema.NewScalarColumn(ids)),
		schema.NewFieldData(AdapterVectorField, schema.DataTypeFloatVector, vectors),
		schema.NewFieldData(AdapterPayloadField, schema.DataTypeJSON, schema.NewJSONColumn(docs)),
	)
	return err
}

// Delete removes records by id.
func (a *Adapter) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	expr := AdapterIDField + " in " + literalList(values)
	_, err := a.client.Delete(ctx, collection, "", expr)
	return err
}

// Search ──────────────────────────────────────────────────────────────
// Search
// ──────────────────────────────────────────────────────────────
//
// Search runs the requests concurrently. The first failure cancels the rest.
func (a *Adapter) Search(ctx context.Context, requests ...vectordb.SearchRequest) ([][]vectordb.SearchResult, error) {
	results := make([][]vectordb.SearchResult, len(requests))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDescribe)
	for i, req := range requests {
		g.Go(func() error {
			res, err := a.search(ctx, req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Adapter) search(ctx context.Context, req vectordb.SearchRequest) ([]vectordb.SearchResult, error) {
	expr, err := FilterExpression(req.Filters, AdapterPayloadField)
	if err != nil {
		return nil, err
	}
	res, err := a.client.Search(ctx, &SearchRequest{
		CollectionName: req.CollectionName,
		VectorField:    AdapterVectorField,
		Vectors:        [][]float32{req.Vector},
		TopK:           req.TopK,
		MetricType:     adapterMetric,
		Expr:           expr,
		OutputFields:   []string{AdapterPayloadField},
	})
	if err != nil {
		return nil, err
	}

	var docs [][]byte
	if f, ok := res.Field(AdapterPayloadField); ok {
		if col, ok := f.Scalars(); ok {
			docs, _ = col.JSONDocs()
		}
	}

	hits := res.Hits(0)
	out := make([]vectordb.SearchResult, 0, len(hits))
	for _, h := range hits {
		r := vectordb.SearchResult{
			ID:             idString(h.ID),
			Score:          h.Score,
			CollectionName: req.CollectionName,
		}
		if h.Offset < len(docs) && len(docs[h.Offset]) > 0 {
			if err := json.Unmarshal(docs[h.Offset], &r.Payload); err != nil {
				return nil, fmt.Errorf("%w: payload of %q: %w", ErrMalformedResponse, r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// GetCollection ──────────────────────────────────────────────────────────────
// GetCollection
// ──────────────────────────────────────────────────────────────
//
// GetCollection combines the schema, load state, index metric and row count
// of a collection.
func (a *Adapter) GetCollection(ctx context.Context, name string) (*vectordb.Collection, error) {
	meta, err := a.client.DescribeCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	coll := &vectordb.Collection{Name: name}
	if vf := meta.Schema.VectorFields(); len(vf) > 0 {
		coll.Dimension = vf[0].Dimension()
	}

	stats, err := a.client.GetCollectionStatistics(ctx, name)
	if err != nil {
		return nil, err
	}
	if rc, ok := stats["row_count"]; ok {
		n, err := strconv.ParseInt(rc, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row_count %q", ErrMalformedResponse, rc)
		}
		coll.RowCount = n
	}

	loaded, err := a.client.ShowCollections(ctx, name)
	if err == nil && len(loaded) == 1 {
		coll.Loaded = loaded[0].LoadedPercent == 100
	}

	if indexes, err := a.client.DescribeIndex(ctx, name, AdapterVectorField, ""); err == nil && len(indexes) > 0 {
		coll.Metric = indexes[0].Params[MetricTypeKey]
	}
	return coll, nil
}

// ListCollections returns the names of all collections.
func (a *Adapter) ListCollections(ctx context.Context) ([]string, error) {
	infos, err := a.client.ShowCollections(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}
