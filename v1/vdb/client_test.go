package vdb

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/Aleph-Alpha/vdb-client/v1/observability"
	"github.com/Aleph-Alpha/vdb-client/v1/schema"
)

func booksSchema(t *testing.T) *schema.CollectionSchema {
	t.Helper()
	id, err := schema.NewField("book_id", schema.DataTypeInt64, schema.WithPrimaryKey())
	require.NoError(t, err)
	count, err := schema.NewField("word_count", schema.DataTypeInt64)
	require.NoError(t, err)
	intro, err := schema.NewField("book_intro", schema.DataTypeFloatVector, schema.WithDimension(2))
	require.NoError(t, err)
	sc, err := schema.NewCollectionSchema("books", []*schema.FieldSchema{id, count, intro})
	require.NoError(t, err)
	return sc
}

func TestAuthorizationHeader(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, func(c *Config) { c.WithCredentials("root", "Milvus") })

	_, err := client.GetVersion(context.Background())
	require.NoError(t, err)

	_, md, _ := fake.last()
	want := base64.StdEncoding.EncodeToString([]byte("root:Milvus"))
	assert.Equal(t, []string{want}, md.Get("authorization"))
	assert.Len(t, md.Get(requestIDHeader), 1)
}

func TestTokenAuthAndDatabaseHeader(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, func(c *Config) {
		c.WithAPIKey("secret-token").WithDatabase("analytics")
	})

	_, err := client.GetVersion(context.Background())
	require.NoError(t, err)

	_, md, _ := fake.last()
	assert.Equal(t, []string{base64.StdEncoding.EncodeToString([]byte("secret-token"))}, md.Get("authorization"))
	assert.Equal(t, []string{"analytics"}, md.Get(databaseHeader))
}

func TestNoAuthorizationWithoutCredentials(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)

	_, err := client.GetVersion(context.Background())
	require.NoError(t, err)

	_, md, _ := fake.last()
	assert.Empty(t, md.Get("authorization"))
}

func TestDefaultDeadline(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, func(c *Config) { c.WithTimeout(time.Minute) })

	_, err := client.GetVersion(context.Background())
	require.NoError(t, err)
	_, _, hasDeadline := fake.last()
	assert.True(t, hasDeadline)
}

func TestServerErrorMapping(t *testing.T) {
	fake := &fakeServer{status: &commonpb.Status{
		ErrorCode: commonpb.ErrorCode_UnexpectedError,
		Code:      65535,
		Reason:    "boom",
	}}
	client := newTestClient(t, fake, nil)

	_, err := client.GetVersion(context.Background())
	require.Error(t, err)
	serr, ok := IsServerError(err)
	require.True(t, ok)
	assert.Equal(t, int32(65535), serr.Code)
	assert.Equal(t, "boom", serr.Reason)
}

func TestNonZeroCodeIsAnError(t *testing.T) {
	fake := &fakeServer{status: &commonpb.Status{ErrorCode: commonpb.ErrorCode_Success, Code: 1}}
	client := newTestClient(t, fake, nil)

	err := client.LoadCollection(context.Background(), "books", 1)
	_, ok := IsServerError(err)
	assert.True(t, ok)
}

func TestMissingStatusIsMalformed(t *testing.T) {
	fake := &fakeServer{}
	fake.query = func(*milvuspb.QueryRequest) (*milvuspb.QueryResults, error) {
		return &milvuspb.QueryResults{}, nil
	}
	client := newTestClient(t, fake, nil)

	_, err := client.Query(context.Background(), &QueryRequest{CollectionName: "books", Expr: "book_id > 0"})
	assert.True(t, IsMalformedResponse(err))
}

func TestCreateCollectionSendsSchema(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)

	err := client.CreateCollection(context.Background(), booksSchema(t), &CreateCollectionOptions{ConsistencyLevel: ConsistencyStrong})
	require.NoError(t, err)

	msg, _, _ := fake.last()
	req, ok := msg.(*milvuspb.CreateCollectionRequest)
	require.True(t, ok)
	assert.Equal(t, "books", req.GetCollectionName())
	assert.Equal(t, int32(defaultShardsNum), req.GetShardsNum())
	assert.Equal(t, commonpb.ConsistencyLevel_Strong, req.GetConsistencyLevel())

	sent := &schemapb.CollectionSchema{}
	require.NoError(t, proto.Unmarshal(req.GetSchema(), sent))
	require.Len(t, sent.GetFields(), 3)
	assert.True(t, sent.GetFields()[0].GetIsPrimaryKey())
	assert.Equal(t, schemapb.DataType_FloatVector, sent.GetFields()[2].GetDataType())
}

func TestLocalValidationSendsNothing(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()

	assert.ErrorIs(t, client.DropCollection(ctx, ""), ErrEmptyCollectionName)
	_, err := client.Delete(ctx, "books", "", "")
	assert.ErrorIs(t, err, ErrEmptyExpression)
	_, err = client.Search(ctx, &SearchRequest{CollectionName: "books", Vectors: [][]float32{{1, 2}}})
	assert.ErrorIs(t, err, ErrInvalidTopK)
	_, err = client.Search(ctx, &SearchRequest{CollectionName: "books", TopK: 1})
	assert.ErrorIs(t, err, ErrEmptyVectors)

	msg, _, _ := fake.last()
	assert.Nil(t, msg)
}

func TestInsertBindsColumns(t *testing.T) {
	fake := &fakeServer{}
	fake.insert = func(req *milvuspb.InsertRequest) (*milvuspb.MutationResult, error) {
		return &milvuspb.MutationResult{
			Status:    success(),
			InsertCnt: int64(req.GetNumRows()),
			Timestamp: 1000,
			IDs:       &schemapb.IDs{IdField: &schemapb.IDs_IntId{IntId: &schemapb.LongArray{Data: []int64{1, 2}}}},
		}, nil
	}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()
	require.NoError(t, client.CreateCollection(ctx, booksSchema(t), nil))

	vectors, err := schema.NewFloatVectorColumn(2, []float32{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	res, err := client.Insert(ctx, "books", "",
		schema.NewFieldData("book_intro", schema.DataTypeFloatVector, vectors),
		schema.NewFieldData("word_count", schema.DataTypeInt64, schema.NewScalarColumn([]int64{100, 200})),
		schema.NewFieldData("book_id", schema.DataTypeInt64, schema.NewScalarColumn([]int64{1, 2})),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.InsertCount)
	assert.Equal(t, []int64{1, 2}, res.IDs.Int)

	msg, _, _ := fake.last()
	req := msg.(*milvuspb.InsertRequest)
	assert.Equal(t, uint32(2), req.GetNumRows())
	require.Len(t, req.GetFieldsData(), 3)
	assert.Equal(t, "book_id", req.GetFieldsData()[0].GetFieldName())
	assert.Equal(t, "book_intro", req.GetFieldsData()[2].GetFieldName())
	assert.Equal(t, int64(2), req.GetFieldsData()[2].GetVectors().GetDim())

	ts, ok := client.session.get("books")
	require.True(t, ok)
	assert.Equal(t, uint64(1000), ts)
}

func TestInsertRejectsBadColumns(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()
	require.NoError(t, client.CreateCollection(ctx, booksSchema(t), nil))

	vectors, err := schema.NewFloatVectorColumn(2, []float32{0.1, 0.2})
	require.NoError(t, err)
	_, err = client.Insert(ctx, "books", "",
		schema.NewFieldData("book_intro", schema.DataTypeFloatVector, vectors),
		schema.NewFieldData("book_id", schema.DataTypeInt64, schema.NewScalarColumn([]int64{1, 2})),
		schema.NewFieldData("word_count", schema.DataTypeInt64, schema.NewScalarColumn([]int64{1, 2})),
	)
	assert.ErrorIs(t, err, schema.ErrRowCountMismatch)
}

func decodeFloats(t *testing.T, raw []byte) []float32 {
	t.Helper()
	require.Zero(t, len(raw)%4)
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out
}

func TestSearch(t *testing.T) {
	fake := &fakeServer{}
	var got *milvuspb.SearchRequest
	fake.search = func(req *milvuspb.SearchRequest) (*milvuspb.SearchResults, error) {
		got = req
		return &milvuspb.SearchResults{
			Status: success(),
			Results: &schemapb.SearchResultData{
				NumQueries: 2,
				TopK:       2,
				Topks:      []int64{2, 1},
				Scores:     []float32{0.1, 0.2, 0.3},
				Ids:        &schemapb.IDs{IdField: &schemapb.IDs_IntId{IntId: &schemapb.LongArray{Data: []int64{7, 8, 9}}}},
				FieldsData: []*schemapb.FieldData{
					schema.NewFieldData("word_count", schema.DataTypeInt64, schema.NewScalarColumn([]int64{70, 80, 90})).ToWire(),
				},
			},
		}, nil
	}
	client := newTestClient(t, fake, nil)

	res, err := client.Search(context.Background(), &SearchRequest{
		CollectionName: "books",
		VectorField:    "book_intro",
		Vectors:        [][]float32{{0.5, 1.5}, {2.5, 3.5}},
		TopK:           2,
		MetricType:     "L2",
		Params:         map[string]interface{}{"nprobe": 10},
		Expr:           "word_count > 10",
		OutputFields:   []string{"word_count"},
	})
	require.NoError(t, err)

	assert.Equal(t, "word_count > 10", got.GetDsl())
	assert.Equal(t, commonpb.DslType_BoolExprV1, got.GetDslType())
	assert.Equal(t, int64(2), got.GetNq())
	params := keyValueMap(got.GetSearchParams())
	assert.Equal(t, "2", params[topKKey])
	assert.Equal(t, "L2", params[MetricTypeKey])
	assert.Equal(t, "book_intro", params[annsFieldKey])
	assert.Equal(t, `{"nprobe":10}`, params[ParamsKey])
	assert.Equal(t, "-1", params[roundDecimalKey])

	group := &commonpb.PlaceholderGroup{}
	require.NoError(t, proto.Unmarshal(got.GetPlaceholderGroup(), group))
	require.Len(t, group.GetPlaceholders(), 1)
	ph := group.GetPlaceholders()[0]
	assert.Equal(t, "$0", ph.GetTag())
	assert.Equal(t, commonpb.PlaceholderType_FloatVector, ph.GetType())
	require.Len(t, ph.GetValues(), 2)
	assert.Equal(t, []float32{2.5, 3.5}, decodeFloats(t, ph.GetValues()[1]))

	hits := res.Hits(0)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(8), hits[1].ID)
	second := res.Hits(1)
	require.Len(t, second, 1)
	assert.Equal(t, Hit{Offset: 2, Score: 0.3, ID: int64(9)}, second[0])

	counts, ok := res.Field("word_count")
	require.True(t, ok)
	col, _ := counts.Scalars()
	longs, _ := col.Longs()
	assert.Equal(t, int64(90), longs[second[0].Offset])
}

func TestSearchMalformedResults(t *testing.T) {
	tests := []struct {
		name string
		data *schemapb.SearchResultData
	}{
		{"topks exceed scores", &schemapb.SearchResultData{Topks: []int64{3}, Scores: []float32{1, 2}}},
		{"negative topk", &schemapb.SearchResultData{Topks: []int64{-1, 1}, Scores: []float32{}}},
		{"ids mismatch", &schemapb.SearchResultData{
			Topks:  []int64{2},
			Scores: []float32{1, 2},
			Ids:    &schemapb.IDs{IdField: &schemapb.IDs_StrId{StrId: &schemapb.StringArray{Data: []string{"a"}}}},
		}},
		{"partial vector row", &schemapb.SearchResultData{
			Topks:  []int64{1},
			Scores: []float32{1},
			FieldsData: []*schemapb.FieldData{{
				FieldName: "v",
				Type:      schemapb.DataType_FloatVector,
				Field: &schemapb.FieldData_Vectors{Vectors: &schemapb.VectorField{
					Dim:  4,
					Data: &schemapb.VectorField_FloatVector{FloatVector: &schemapb.FloatArray{Data: []float32{1, 2, 3}}},
				}},
			}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeServer{}
			fake.search = func(*milvuspb.SearchRequest) (*milvuspb.SearchResults, error) {
				return &milvuspb.SearchResults{Status: success(), Results: tt.data}, nil
			}
			client := newTestClient(t, fake, nil)

			_, err := client.Search(context.Background(), &SearchRequest{
				CollectionName: "books",
				Vectors:        [][]float32{{1}},
				TopK:           1,
			})
			assert.True(t, IsMalformedResponse(err), "got %v", err)
		})
	}
}

func TestQueryKeepsServerOrder(t *testing.T) {
	fake := &fakeServer{}
	var got *milvuspb.QueryRequest
	fake.query = func(req *milvuspb.QueryRequest) (*milvuspb.QueryResults, error) {
		got = req
		return &milvuspb.QueryResults{
			Status: success(),
			FieldsData: []*schemapb.FieldData{
				schema.NewFieldData("word_count", schema.DataTypeInt64, schema.NewScalarColumn([]int64{5})).ToWire(),
				schema.NewFieldData("book_id", schema.DataTypeInt64, schema.NewScalarColumn([]int64{1})).ToWire(),
			},
		}, nil
	}
	client := newTestClient(t, fake, nil)

	res, err := client.Query(context.Background(), &QueryRequest{
		CollectionName: "books",
		Expr:           "book_id in [1]",
		OutputFields:   []string{"book_id", "word_count"},
		Limit:          10,
	})
	require.NoError(t, err)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, "word_count", res.Fields[0].Name())
	assert.Equal(t, 1, res.NumRows())
	assert.Equal(t, "10", keyValueMap(got.GetQueryParams())[limitKey])
}

func TestGuaranteeTimestamps(t *testing.T) {
	fake := &fakeServer{}
	var got []*milvuspb.QueryRequest
	var mu sync.Mutex
	fake.query = func(req *milvuspb.QueryRequest) (*milvuspb.QueryResults, error) {
		mu.Lock()
		got = append(got, req)
		mu.Unlock()
		return &milvuspb.QueryResults{Status: success()}, nil
	}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()

	query := func(level ConsistencyLevel, custom uint64) *milvuspb.QueryRequest {
		_, err := client.Query(ctx, &QueryRequest{
			CollectionName:     "books",
			Expr:               "book_id > 0",
			ConsistencyLevel:   level,
			GuaranteeTimestamp: custom,
		})
		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		return got[len(got)-1]
	}

	assert.Equal(t, uint64(0), query(ConsistencyStrong, 0).GetGuaranteeTimestamp())
	assert.Equal(t, uint64(1), query(ConsistencyEventually, 0).GetGuaranteeTimestamp())
	assert.Equal(t, uint64(2), query(ConsistencyBounded, 0).GetGuaranteeTimestamp())
	assert.Equal(t, uint64(77), query(ConsistencyCustomized, 77).GetGuaranteeTimestamp())
	assert.Equal(t, uint64(1), query(ConsistencySession, 0).GetGuaranteeTimestamp())

	def := query(ConsistencyDefault, 0)
	assert.True(t, def.GetUseDefaultConsistency())

	_, err := client.Delete(ctx, "books", "", "book_id in [1]")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), query(ConsistencySession, 0).GetGuaranteeTimestamp())

	require.NoError(t, client.DropCollection(ctx, "books"))
	assert.Equal(t, uint64(1), query(ConsistencySession, 0).GetGuaranteeTimestamp())
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, ctx)
}

func TestObserverSeesEveryOperation(t *testing.T) {
	fake := &fakeServer{status: &commonpb.Status{ErrorCode: commonpb.ErrorCode_UnexpectedError, Reason: "nope"}}
	obs := &recordingObserver{}
	client := newTestClient(t, fake, nil).WithObserver(obs)

	err := client.LoadCollection(context.Background(), "books", 1)
	require.Error(t, err)

	require.Len(t, obs.ops, 1)
	op := obs.ops[0]
	assert.Equal(t, "vdb", op.Component)
	assert.Equal(t, "LoadCollection", op.Operation)
	assert.Equal(t, "books", op.Resource)
	assert.Error(t, op.Error)
}

func TestClosedClient(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.GetVersion(context.Background())
	assert.True(t, errors.Is(err, ErrClientClosed), "got %v", err)
}

func TestDescribeCollectionsFanOut(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		id, err := schema.NewField("id", schema.DataTypeInt64, schema.WithPrimaryKey())
		require.NoError(t, err)
		sc, err := schema.NewCollectionSchema(name, []*schema.FieldSchema{id})
		require.NoError(t, err)
		require.NoError(t, client.CreateCollection(ctx, sc, nil))
	}

	metas, err := client.DescribeCollections(ctx, "c", "a", "b")
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, "c", metas[0].Schema.Name())
	assert.Equal(t, ConsistencyBounded, metas[0].ConsistencyLevel)

	_, err = client.DescribeCollections(ctx, "a", "missing")
	_, ok := IsServerError(err)
	assert.True(t, ok)
}

func TestCreateCredentialEncodesPassword(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)

	require.NoError(t, client.CreateCredential(context.Background(), "alice", "s3cret"))
	msg, _, _ := fake.last()
	req := msg.(*milvuspb.CreateCredentialRequest)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("s3cret")), req.GetPassword())
}

func TestSearchEncodingErrorsSendNothing(t *testing.T) {
	fake := &fakeServer{}
	obs := &recordingObserver{}
	client := newTestClient(t, fake, nil).WithObserver(obs)

	for name, req := range map[string]*SearchRequest{
		"ragged vectors": {CollectionName: "books", Vectors: [][]float32{{1, 2}, {1}}, TopK: 1},
		"bad params":     {CollectionName: "books", Vectors: [][]float32{{1, 2}}, TopK: 1, Params: map[string]interface{}{"f": func() {}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := client.Search(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
			assert.Contains(t, err.Error(), `[VDB] search "books"`)
		})
	}

	msg, _, _ := fake.last()
	assert.Nil(t, msg)
	assert.Empty(t, obs.ops)
}

func TestQueryRejectsRaggedColumns(t *testing.T) {
	fake := &fakeServer{}
	fake.query = func(*milvuspb.QueryRequest) (*milvuspb.QueryResults, error) {
		return &milvuspb.QueryResults{
			Status: success(),
			FieldsData: []*schemapb.FieldData{
				schema.NewFieldData("book_id", schema.DataTypeInt64, schema.NewScalarColumn([]int64{1, 2})).ToWire(),
				schema.NewFieldData("word_count", schema.DataTypeInt64, schema.NewScalarColumn([]int64{5})).ToWire(),
			},
		}, nil
	}
	client := newTestClient(t, fake, nil)

	_, err := client.Query(context.Background(), &QueryRequest{CollectionName: "books", Expr: "book_id > 0"})
	require.Error(t, err)
	assert.True(t, IsMalformedResponse(err), "got %v", err)
	assert.Contains(t, err.Error(), "word_count")
}

func TestGetIndexBuildProgress(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, func(c *Config) { c.Database = "library" })

	progress, err := client.GetIndexBuildProgress(context.Background(), "books", "book_intro", "vector")
	require.NoError(t, err)
	assert.Equal(t, &IndexProgress{IndexedRows: 40, TotalRows: 100}, progress)

	msg, _, _ := fake.last()
	req := msg.(*milvuspb.GetIndexBuildProgressRequest)
	assert.Equal(t, "library", req.GetDbName())
	assert.Equal(t, "books", req.GetCollectionName())
	assert.Equal(t, "book_intro", req.GetFieldName())
	assert.Equal(t, "vector", req.GetIndexName())
}

func TestFlushSegmentsFeedFlushState(t *testing.T) {
	fake := &fakeServer{}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()

	res, err := client.Flush(ctx, "books", "authors")
	require.NoError(t, err)
	assert.Equal(t, []int64{13, 11}, res.SegmentIDs["books"])
	assert.Equal(t, []int64{11, 13, 21, 23}, res.AllSegmentIDs())

	flushed, err := client.GetFlushState(ctx, res.AllSegmentIDs()...)
	require.NoError(t, err)
	assert.True(t, flushed)

	msg, _, _ := fake.last()
	assert.Equal(t, []int64{11, 13, 21, 23}, msg.(*milvuspb.GetFlushStateRequest).GetSegmentIDs())

	assert.Empty(t, (&FlushResult{}).AllSegmentIDs())
}

func TestWaitFlushed(t *testing.T) {
	fake := &fakeServer{pendingFlushPolls: 2}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()

	res, err := client.Flush(ctx, "books")
	require.NoError(t, err)
	require.NoError(t, client.WaitFlushed(ctx, res, time.Millisecond))

	fake.mu.Lock()
	polls := 0
	for _, req := range fake.requests {
		if _, ok := req.(*milvuspb.GetFlushStateRequest); ok {
			polls++
		}
	}
	fake.mu.Unlock()
	assert.Equal(t, 3, polls)

	require.NoError(t, client.WaitFlushed(ctx, &FlushResult{}, 0))
}

func TestWaitFlushedStopsWithContext(t *testing.T) {
	fake := &fakeServer{pendingFlushPolls: 1 << 20}
	client := newTestClient(t, fake, nil)

	res, err := client.Flush(context.Background(), "books")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = client.WaitFlushed(ctx, res, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded, "got %v", err)
}
