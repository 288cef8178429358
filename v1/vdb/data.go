package vdb

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"

	"github.com/Aleph-Alpha/vdb-client/v1/schema"
)

// Search parameter keys.
const (
	annsFieldKey    = "anns_field"
	topKKey         = "topk"
	roundDecimalKey = "round_decimal"
	offsetKey       = "offset"
	limitKey        = "limit"
)

// SearchRequest describes one vector similarity search. Exactly one of
// Vectors and BinaryVectors must be set; each entry is one query.
type SearchRequest struct {
	CollectionName string
	PartitionNames []string

	// VectorField is the vector field to search. It may be empty when the
	// collection has a single vector field.
	VectorField   string
	Vectors       [][]float32
	BinaryVectors [][]byte

	TopK       int
	MetricType string
	// Params holds index specific search parameters such as {"nprobe": 10}.
	Params map[string]interface{}

	// Expr is an optional boolean filter expression.
	Expr         string
	OutputFields []string
	Offset       int
	// RoundDecimal rounds scores to that many decimals; values <= 0 keep
	// full precision.
	RoundDecimal int

	ConsistencyLevel ConsistencyLevel
	// GuaranteeTimestamp is only used with ConsistencyCustomized.
	GuaranteeTimestamp uint64
}

// QueryRequest retrieves rows matching a filter expression.
type QueryRequest struct {
	CollectionName string
	PartitionNames []string
	Expr           string
	OutputFields   []string
	Limit          int64
	Offset         int64

	ConsistencyLevel   ConsistencyLevel
	GuaranteeTimestamp uint64
}

// Insert writes columns into a collection. The collection schema is described
// once and cached; columns are checked against it before anything is sent.
//
// Example:
//
//	names := schema.NewFieldData("book_name", schema.DataTypeVarChar, schema.NewScalarColumn(titles))
//	intros := schema.NewFieldData("book_intro", schema.DataTypeFloatVector, vectors)
//	res, err := client.Insert(ctx, "books", "", names, intros)
func (c *Client) Insert(ctx context.Context, collection, partition string, columns ...*schema.FieldData) (res *MutationResult, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("Insert", collection, partition)
	defer op.end(&err)

	sc, err := c.collectionSchema(ctx, collection)
	if err != nil {
		return nil, err
	}
	fields, rows, err := sc.BindColumns(columns...)
	if err != nil {
		return nil, fmt.Errorf("[VDB] insert into %q: %w", collection, err)
	}

	resp, err := c.api.Insert(ctx, &milvuspb.InsertRequest{
		Base:           msgBase(commonpb.MsgType_Insert),
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionName:  partition,
		FieldsData:     fields,
		NumRows:        rows,
	})
	res, err = c.mutationResult(collection, resp, err)
	if err != nil {
		return nil, fmt.Errorf("[VDB] insert into %q: %w", collection, err)
	}
	op.size = res.InsertCount
	return res, nil
}

// Upsert inserts or replaces rows by primary key. The primary key column is
// required even for auto id collections.
func (c *Client) Upsert(ctx context.Context, collection, partition string, columns ...*schema.FieldData) (res *MutationResult, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("Upsert", collection, partition)
	defer op.end(&err)

	sc, err := c.collectionSchema(ctx, collection)
	if err != nil {
		return nil, err
	}
	fields, rows, err := sc.BindUpsertColumns(columns...)
	if err != nil {
		return nil, fmt.Errorf("[VDB] upsert into %q: %w", collection, err)
	}

	resp, err := c.api.Upsert(ctx, &milvuspb.UpsertRequest{
		Base:           msgBase(commonpb.MsgType_Upsert),
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionName:  partition,
		FieldsData:     fields,
		NumRows:        rows,
	})
	res, err = c.mutationResult(collection, resp, err)
	if err != nil {
		return nil, fmt.Errorf("[VDB] upsert into %q: %w", collection, err)
	}
	op.size = res.UpsertCount
	return res, nil
}

// Delete removes the rows matching expr, e.g. `id in [1, 2, 3]`.
func (c *Client) Delete(ctx context.Context, collection, partition, expr string) (res *MutationResult, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	op := c.begin("Delete", collection, partition)
	defer op.end(&err)

	resp, err := c.api.Delete(ctx, &milvuspb.DeleteRequest{
		Base:           msgBase(commonpb.MsgType_Delete),
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionName:  partition,
		Expr:           expr,
	})
	res, err = c.mutationResult(collection, resp, err)
	if err != nil {
		return nil, fmt.Errorf("[VDB] delete from %q: %w", collection, err)
	}
	op.size = res.DeleteCount
	return res, nil
}

func (c *Client) mutationResult(collection string, resp *milvuspb.MutationResult, err error) (*MutationResult, error) {
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	res, err := newMutationResult(resp)
	if err != nil {
		return nil, err
	}
	c.session.observe(collection, res.Timestamp)
	return res, nil
}

// Search runs a vector similarity search.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (res *SearchResult, err error) {
	if err := validateSearchRequest(req); err != nil {
		return nil, err
	}
	placeholders, nq, err := encodePlaceholderGroup(req.Vectors, req.BinaryVectors)
	if err != nil {
		return nil, fmt.Errorf("[VDB] search %q: %w", req.CollectionName, err)
	}
	params, err := searchParams(req)
	if err != nil {
		return nil, fmt.Errorf("[VDB] search %q: %w", req.CollectionName, err)
	}

	op := c.begin("Search", req.CollectionName, req.VectorField)
	defer op.end(&err)

	resp, err := c.api.Search(ctx, &milvuspb.SearchRequest{
		Base:                  msgBase(commonpb.MsgType_Search),
		DbName:                c.cfg.Database,
		CollectionName:        req.CollectionName,
		PartitionNames:        req.PartitionNames,
		Dsl:                   req.Expr,
		DslType:               commonpb.DslType_BoolExprV1,
		PlaceholderGroup:      placeholders,
		OutputFields:          req.OutputFields,
		SearchParams:          params,
		Nq:                    nq,
		GuaranteeTimestamp:    c.guaranteeTimestamp(req.ConsistencyLevel, req.CollectionName, req.GuaranteeTimestamp),
		ConsistencyLevel:      req.ConsistencyLevel.wire(),
		UseDefaultConsistency: req.ConsistencyLevel == ConsistencyDefault,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] search %q: %w", req.CollectionName, err)
	}

	res, err = newSearchResult(resp)
	if err != nil {
		return nil, fmt.Errorf("[VDB] search %q: %w", req.CollectionName, err)
	}
	op.size = int64(len(res.Scores))
	return res, nil
}

func validateSearchRequest(req *SearchRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil search request", ErrInvalidArgument)
	}
	if req.CollectionName == "" {
		return ErrEmptyCollectionName
	}
	if len(req.Vectors) == 0 && len(req.BinaryVectors) == 0 {
		return ErrEmptyVectors
	}
	if req.TopK <= 0 {
		return ErrInvalidTopK
	}
	if req.Offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidArgument)
	}
	return nil
}

func searchParams(req *SearchRequest) ([]*commonpb.KeyValuePair, error) {
	extra := req.Params
	if extra == nil {
		extra = map[string]interface{}{}
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("%w: search params: %v", ErrInvalidArgument, err)
	}

	round := req.RoundDecimal
	if round <= 0 {
		round = -1
	}

	params := []*commonpb.KeyValuePair{
		{Key: topKKey, Value: strconv.Itoa(req.TopK)},
		{Key: ParamsKey, Value: string(raw)},
		{Key: roundDecimalKey, Value: strconv.Itoa(round)},
	}
	if req.VectorField != "" {
		params = append(params, &commonpb.KeyValuePair{Key: annsFieldKey, Value: req.VectorField})
	}
	if req.MetricType != "" {
		params = append(params, &commonpb.KeyValuePair{Key: MetricTypeKey, Value: req.MetricType})
	}
	if req.Offset > 0 {
		params = append(params, &commonpb.KeyValuePair{Key: offsetKey, Value: strconv.Itoa(req.Offset)})
	}
	return params, nil
}

// Query returns the rows matching a filter expression. Columns keep the
// order the server returned them in.
func (c *Client) Query(ctx context.Context, req *QueryRequest) (res *QueryResult, err error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil query request", ErrInvalidArgument)
	}
	if req.CollectionName == "" {
		return nil, ErrEmptyCollectionName
	}
	if req.Expr == "" && req.Limit <= 0 {
		return nil, ErrEmptyExpression
	}
	op := c.begin("Query", req.CollectionName, "")
	defer op.end(&err)

	var params []*commonpb.KeyValuePair
	if req.Limit > 0 {
		params = append(params, &commonpb.KeyValuePair{Key: limitKey, Value: strconv.FormatInt(req.Limit, 10)})
	}
	if req.Offset > 0 {
		params = append(params, &commonpb.KeyValuePair{Key: offsetKey, Value: strconv.FormatInt(req.Offset, 10)})
	}

	resp, err := c.api.Query(ctx, &milvuspb.QueryRequest{
		Base:                  msgBase(commonpb.MsgType_Retrieve),
		DbName:                c.cfg.Database,
		CollectionName:        req.CollectionName,
		PartitionNames:        req.PartitionNames,
		Expr:                  req.Expr,
		OutputFields:          req.OutputFields,
		QueryParams:           params,
		GuaranteeTimestamp:    c.guaranteeTimestamp(req.ConsistencyLevel, req.CollectionName, req.GuaranteeTimestamp),
		ConsistencyLevel:      req.ConsistencyLevel.wire(),
		UseDefaultConsistency: req.ConsistencyLevel == ConsistencyDefault,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] query %q: %w", req.CollectionName, err)
	}

	res, err = newQueryResult(resp)
	if err != nil {
		return nil, fmt.Errorf("[VDB] query %q: %w", req.CollectionName, err)
	}
	op.size = int64(res.NumRows())
	return res, nil
}

// Flush seals the growing segments of the given collections.
func (c *Client) Flush(ctx context.Context, collections ...string) (res *FlushResult, err error) {
	if len(collections) == 0 {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("Flush", collections[0], "")
	defer op.end(&err)

	resp, err := c.api.Flush(ctx, &milvuspb.FlushRequest{
		Base:            msgBase(commonpb.MsgType_Flush),
		DbName:          c.cfg.Database,
		CollectionNames: collections,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] flush: %w", err)
	}
	return newFlushResult(resp), nil
}

// GetFlushState reports whether all given segments are flushed.
func (c *Client) GetFlushState(ctx context.Context, segmentIDs ...int64) (flushed bool, err error) {
	op := c.begin("GetFlushState", "", "")
	defer op.end(&err)

	resp, err := c.api.GetFlushState(ctx, &milvuspb.GetFlushStateRequest{SegmentIDs: segmentIDs})
	if err := checkResponse(resp, err); err != nil {
		return false, fmt.Errorf("[VDB] flush state: %w", err)
	}
	return resp.GetFlushed(), nil
}

// WaitFlushed polls GetFlushState every interval until the segments sealed
// by res are flushed or ctx ends.
func (c *Client) WaitFlushed(ctx context.Context, res *FlushResult, interval time.Duration) error {
	ids := res.AllSegmentIDs()
	if len(ids) == 0 {
		return nil
	}
	if interval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidArgument)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		flushed, err := c.GetFlushState(ctx, ids...)
		if err != nil {
			return err
		}
		if flushed {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("[VDB] wait for flush of %d segments: %w", len(ids), ctx.Err())
		case <-ticker.C:
		}
	}
}

// AllSegmentIDs flattens the sealed segments of every collection, in
// ascending order, ready for GetFlushState.
func (r *FlushResult) AllSegmentIDs() []int64 {
	var ids []int64
	for _, segs := range r.SegmentIDs {
		ids = append(ids, segs...)
	}
	slices.Sort(ids)
	return ids
}
