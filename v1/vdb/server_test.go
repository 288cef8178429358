package vdb

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

// fakeServer answers the RPCs the tests need and records what it received.
// Handlers left nil reply with a success status and empty payload.
type fakeServer struct {
	milvuspb.UnimplementedMilvusServiceServer

	mu       sync.Mutex
	requests []proto.Message
	metadata []metadata.MD
	deadline []bool

	collections map[string]*schemapb.CollectionSchema

	search func(*milvuspb.SearchRequest) (*milvuspb.SearchResults, error)
	query  func(*milvuspb.QueryRequest) (*milvuspb.QueryResults, error)
	insert func(*milvuspb.InsertRequest) (*milvuspb.MutationResult, error)
	upsert func(*milvuspb.UpsertRequest) (*milvuspb.MutationResult, error)
	status *commonpb.Status

	// pendingFlushPolls is how many GetFlushState calls report unflushed.
	pendingFlushPolls int
}

func success() *commonpb.Status {
	return &commonpb.Status{ErrorCode: commonpb.ErrorCode_Success}
}

func (s *fakeServer) record(ctx context.Context, req proto.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md, _ := metadata.FromIncomingContext(ctx)
	_, hasDeadline := ctx.Deadline()
	s.requests = append(s.requests, req)
	s.metadata = append(s.metadata, md)
	s.deadline = append(s.deadline, hasDeadline)
}

func (s *fakeServer) last() (proto.Message, metadata.MD, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.requests)
	if n == 0 {
		return nil, nil, false
	}
	return s.requests[n-1], s.metadata[n-1], s.deadline[n-1]
}

func (s *fakeServer) reply() *commonpb.Status {
	if s.status != nil {
		return s.status
	}
	return success()
}

func (s *fakeServer) CreateCollection(ctx context.Context, req *milvuspb.CreateCollectionRequest) (*commonpb.Status, error) {
	s.record(ctx, req)
	sc := &schemapb.CollectionSchema{}
	if err := proto.Unmarshal(req.GetSchema(), sc); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.collections == nil {
		s.collections = map[string]*schemapb.CollectionSchema{}
	}
	s.collections[req.GetCollectionName()] = sc
	s.mu.Unlock()
	return s.reply(), nil
}

func (s *fakeServer) DropCollection(ctx context.Context, req *milvuspb.DropCollectionRequest) (*commonpb.Status, error) {
	s.record(ctx, req)
	s.mu.Lock()
	delete(s.collections, req.GetCollectionName())
	s.mu.Unlock()
	return s.reply(), nil
}

func (s *fakeServer) HasCollection(ctx context.Context, req *milvuspb.HasCollectionRequest) (*milvuspb.BoolResponse, error) {
	s.record(ctx, req)
	s.mu.Lock()
	_, ok := s.collections[req.GetCollectionName()]
	s.mu.Unlock()
	return &milvuspb.BoolResponse{Status: s.reply(), Value: ok}, nil
}

func (s *fakeServer) DescribeCollection(ctx context.Context, req *milvuspb.DescribeCollectionRequest) (*milvuspb.DescribeCollectionResponse, error) {
	s.record(ctx, req)
	s.mu.Lock()
	sc, ok := s.collections[req.GetCollectionName()]
	s.mu.Unlock()
	if !ok {
		return &milvuspb.DescribeCollectionResponse{Status: &commonpb.Status{
			ErrorCode: commonpb.ErrorCode_UnexpectedError,
			Code:      100,
			Reason:    "collection not found",
		}}, nil
	}
	return &milvuspb.DescribeCollectionResponse{
		Status:           s.reply(),
		Schema:           sc,
		CollectionID:     42,
		ShardsNum:        2,
		ConsistencyLevel: commonpb.ConsistencyLevel_Bounded,
	}, nil
}

func (s *fakeServer) LoadCollection(ctx context.Context, req *milvuspb.LoadCollectionRequest) (*commonpb.Status, error) {
	s.record(ctx, req)
	return s.reply(), nil
}

func (s *fakeServer) CreateIndex(ctx context.Context, req *milvuspb.CreateIndexRequest) (*commonpb.Status, error) {
	s.record(ctx, req)
	return s.reply(), nil
}

func (s *fakeServer) GetCollectionStatistics(ctx context.Context, req *milvuspb.GetCollectionStatisticsRequest) (*milvuspb.GetCollectionStatisticsResponse, error) {
	s.record(ctx, req)
	return &milvuspb.GetCollectionStatisticsResponse{
		Status: s.reply(),
		Stats:  []*commonpb.KeyValuePair{{Key: "row_count", Value: "3"}},
	}, nil
}

func (s *fakeServer) ShowCollections(ctx context.Context, req *milvuspb.ShowCollectionsRequest) (*milvuspb.ShowCollectionsResponse, error) {
	s.record(ctx, req)
	resp := &milvuspb.ShowCollectionsResponse{Status: s.reply()}
	s.mu.Lock()
	defer s.mu.Unlock()
	var id int64
	for name := range s.collections {
		if len(req.GetCollectionNames()) > 0 && req.GetCollectionNames()[0] != name {
			continue
		}
		id++
		resp.CollectionNames = append(resp.CollectionNames, name)
		resp.CollectionIds = append(resp.CollectionIds, id)
		resp.InMemoryPercentages = append(resp.InMemoryPercentages, 100)
	}
	return resp, nil
}

func (s *fakeServer) DescribeIndex(ctx context.Context, req *milvuspb.DescribeIndexRequest) (*milvuspb.DescribeIndexResponse, error) {
	s.record(ctx, req)
	return &milvuspb.DescribeIndexResponse{
		Status: s.reply(),
		IndexDescriptions: []*milvuspb.IndexDescription{{
			IndexName: "vector",
			FieldName: req.GetFieldName(),
			Params:    []*commonpb.KeyValuePair{{Key: MetricTypeKey, Value: "COSINE"}},
			State:     commonpb.IndexState_Finished,
		}},
	}, nil
}

func (s *fakeServer) Insert(ctx context.Context, req *milvuspb.InsertRequest) (*milvuspb.MutationResult, error) {
	s.record(ctx, req)
	if s.insert != nil {
		return s.insert(req)
	}
	return &milvuspb.MutationResult{Status: s.reply(), InsertCnt: int64(req.GetNumRows())}, nil
}

func (s *fakeServer) Upsert(ctx context.Context, req *milvuspb.UpsertRequest) (*milvuspb.MutationResult, error) {
	s.record(ctx, req)
	if s.upsert != nil {
		return s.upsert(req)
	}
	return &milvuspb.MutationResult{Status: s.reply(), UpsertCnt: int64(req.GetNumRows())}, nil
}

func (s *fakeServer) Delete(ctx context.Context, req *milvuspb.DeleteRequest) (*milvuspb.MutationResult, error) {
	s.record(ctx, req)
	return &milvuspb.MutationResult{Status: s.reply(), DeleteCnt: 1, Timestamp: 500}, nil
}

func (s *fakeServer) Search(ctx context.Context, req *milvuspb.SearchRequest) (*milvuspb.SearchResults, error) {
	s.record(ctx, req)
	if s.search != nil {
		return s.search(req)
	}
	return &milvuspb.SearchResults{Status: s.reply()}, nil
}

func (s *fakeServer) Query(ctx context.Context, req *milvuspb.QueryRequest) (*milvuspb.QueryResults, error) {
	s.record(ctx, req)
	if s.query != nil {
		return s.query(req)
	}
	return &milvuspb.QueryResults{Status: s.reply()}, nil
}

func (s *fakeServer) GetVersion(ctx context.Context, req *milvuspb.GetVersionRequest) (*milvuspb.GetVersionResponse, error) {
	s.record(ctx, req)
	return &milvuspb.GetVersionResponse{Status: s.reply(), Version: "v2.4.10"}, nil
}

func (s *fakeServer) CheckHealth(ctx context.Context, req *milvuspb.CheckHealthRequest) (*milvuspb.CheckHealthResponse, error) {
	s.record(ctx, req)
	return &milvuspb.CheckHealthResponse{Status: s.reply(), IsHealthy: true}, nil
}

func (s *fakeServer) CreateCredential(ctx context.Context, req *milvuspb.CreateCredentialRequest) (*commonpb.Status, error) {
	s.record(ctx, req)
	return s.reply(), nil
}

func (s *fakeServer) GetIndexBuildProgress(ctx context.Context, req *milvuspb.GetIndexBuildProgressRequest) (*milvuspb.GetIndexBuildProgressResponse, error) {
	s.record(ctx, req)
	return &milvuspb.GetIndexBuildProgressResponse{Status: s.reply(), IndexedRows: 40, TotalRows: 100}, nil
}

func (s *fakeServer) Flush(ctx context.Context, req *milvuspb.FlushRequest) (*milvuspb.FlushResponse, error) {
	s.record(ctx, req)
	resp := &milvuspb.FlushResponse{Status: s.reply(), CollSegIDs: map[string]*schemapb.LongArray{}}
	for i, name := range req.GetCollectionNames() {
		base := int64(10 * (i + 1))
		resp.CollSegIDs[name] = &schemapb.LongArray{Data: []int64{base + 3, base + 1}}
	}
	return resp, nil
}

func (s *fakeServer) GetFlushState(ctx context.Context, req *milvuspb.GetFlushStateRequest) (*milvuspb.GetFlushStateResponse, error) {
	s.record(ctx, req)
	s.mu.Lock()
	pending := s.pendingFlushPolls > 0
	if pending {
		s.pendingFlushPolls--
	}
	s.mu.Unlock()
	return &milvuspb.GetFlushStateResponse{Status: s.reply(), Flushed: !pending && len(req.GetSegmentIDs()) > 0}, nil
}

func (s *fakeServer) OperatePrivilege(ctx context.Context, req *milvuspb.OperatePrivilegeRequest) (*commonpb.Status, error) {
	s.record(ctx, req)
	return s.reply(), nil
}

func (s *fakeServer) SelectGrant(ctx context.Context, req *milvuspb.SelectGrantRequest) (*milvuspb.SelectGrantResponse, error) {
	s.record(ctx, req)
	return &milvuspb.SelectGrantResponse{Status: s.reply(), Entities: []*milvuspb.GrantEntity{{
		Role:       req.GetEntity().GetRole(),
		Object:     &milvuspb.ObjectEntity{Name: "Collection"},
		ObjectName: "books",
		DbName:     "default",
		Grantor: &milvuspb.GrantorEntity{
			User:      &milvuspb.UserEntity{Name: "root"},
			Privilege: &milvuspb.PrivilegeEntity{Name: "Search"},
		},
	}}}, nil
}

func (s *fakeServer) SelectRole(ctx context.Context, req *milvuspb.SelectRoleRequest) (*milvuspb.SelectRoleResponse, error) {
	s.record(ctx, req)
	res := &milvuspb.RoleResult{Role: &milvuspb.RoleEntity{Name: "reader"}}
	if req.GetIncludeUserInfo() {
		res.Users = []*milvuspb.UserEntity{{Name: "alice"}, {Name: "bob"}}
	}
	return &milvuspb.SelectRoleResponse{Status: s.reply(), Results: []*milvuspb.RoleResult{res}}, nil
}

func (s *fakeServer) SelectUser(ctx context.Context, req *milvuspb.SelectUserRequest) (*milvuspb.SelectUserResponse, error) {
	s.record(ctx, req)
	res := &milvuspb.UserResult{User: &milvuspb.UserEntity{Name: req.GetUser().GetName()}}
	if req.GetIncludeRoleInfo() {
		res.Roles = []*milvuspb.RoleEntity{{Name: "reader"}}
	}
	return &milvuspb.SelectUserResponse{Status: s.reply(), Results: []*milvuspb.UserResult{res}}, nil
}

func (s *fakeServer) GetReplicas(ctx context.Context, req *milvuspb.GetReplicasRequest) (*milvuspb.GetReplicasResponse, error) {
	s.record(ctx, req)
	r := &milvuspb.ReplicaInfo{
		ReplicaID:         7,
		CollectionID:      42,
		PartitionIds:      []int64{1},
		NodeIds:           []int64{4, 5},
		ResourceGroupName: "__default_resource_group",
	}
	if req.GetWithShardNodes() {
		r.ShardReplicas = []*milvuspb.ShardReplica{{LeaderID: 4, LeaderAddr: "10.0.0.4:21123", DmChannelName: "dml_0", NodeIds: []int64{4, 5}}}
	}
	return &milvuspb.GetReplicasResponse{Status: s.reply(), Replicas: []*milvuspb.ReplicaInfo{r}}, nil
}

func (s *fakeServer) GetComponentStates(ctx context.Context, req *milvuspb.GetComponentStatesRequest) (*milvuspb.ComponentStates, error) {
	s.record(ctx, req)
	return &milvuspb.ComponentStates{
		Status: s.reply(),
		State: &milvuspb.ComponentInfo{
			NodeID:    1,
			Role:      "proxy",
			StateCode: commonpb.StateCode_Healthy,
			ExtraInfo: []*commonpb.KeyValuePair{{Key: "zone", Value: "a"}},
		},
		SubcomponentStates: []*milvuspb.ComponentInfo{{NodeID: 2, Role: "querynode", StateCode: commonpb.StateCode_Initializing}},
	}, nil
}

func (s *fakeServer) GetPersistentSegmentInfo(ctx context.Context, req *milvuspb.GetPersistentSegmentInfoRequest) (*milvuspb.GetPersistentSegmentInfoResponse, error) {
	s.record(ctx, req)
	return &milvuspb.GetPersistentSegmentInfoResponse{Status: s.reply(), Infos: []*milvuspb.PersistentSegmentInfo{
		{SegmentID: 11, CollectionID: 42, PartitionID: 1, NumRows: 300, State: commonpb.SegmentState_Flushed},
		{SegmentID: 12, CollectionID: 42, PartitionID: 1, NumRows: 20, State: commonpb.SegmentState_Growing},
	}}, nil
}

func (s *fakeServer) GetQuerySegmentInfo(ctx context.Context, req *milvuspb.GetQuerySegmentInfoRequest) (*milvuspb.GetQuerySegmentInfoResponse, error) {
	s.record(ctx, req)
	return &milvuspb.GetQuerySegmentInfoResponse{Status: s.reply(), Infos: []*milvuspb.QuerySegmentInfo{{
		SegmentID:    11,
		CollectionID: 42,
		PartitionID:  1,
		MemSize:      4096,
		NumRows:      300,
		IndexName:    "vector",
		IndexID:      9,
		NodeIds:      []int64{4},
		State:        commonpb.SegmentState_Sealed,
	}}}, nil
}

func (s *fakeServer) LoadBalance(ctx context.Context, req *milvuspb.LoadBalanceRequest) (*commonpb.Status, error) {
	s.record(ctx, req)
	return s.reply(), nil
}

func (s *fakeServer) GetCompactionStateWithPlans(ctx context.Context, req *milvuspb.GetCompactionPlansRequest) (*milvuspb.GetCompactionPlansResponse, error) {
	s.record(ctx, req)
	return &milvuspb.GetCompactionPlansResponse{
		Status:     s.reply(),
		State:      commonpb.CompactionState_Completed,
		MergeInfos: []*milvuspb.CompactionMergeInfo{{Sources: []int64{11, 12}, Target: 13}},
	}, nil
}

func importState(id int64, state commonpb.ImportState) *milvuspb.GetImportStateResponse {
	return &milvuspb.GetImportStateResponse{
		Status:       success(),
		Id:           id,
		State:        state,
		RowCount:     2,
		IdList:       []int64{100, 101},
		CollectionId: 42,
		SegmentIds:   []int64{11},
		CreateTs:     1700000000,
		Infos:        []*commonpb.KeyValuePair{{Key: "failed_reason", Value: ""}},
	}
}

func (s *fakeServer) Import(ctx context.Context, req *milvuspb.ImportRequest) (*milvuspb.ImportResponse, error) {
	s.record(ctx, req)
	return &milvuspb.ImportResponse{Status: s.reply(), Tasks: []int64{501, 502}}, nil
}

func (s *fakeServer) GetImportState(ctx context.Context, req *milvuspb.GetImportStateRequest) (*milvuspb.GetImportStateResponse, error) {
	s.record(ctx, req)
	resp := importState(req.GetTask(), commonpb.ImportState_ImportCompleted)
	resp.Status = s.reply()
	return resp, nil
}

func (s *fakeServer) ListImportTasks(ctx context.Context, req *milvuspb.ListImportTasksRequest) (*milvuspb.ListImportTasksResponse, error) {
	s.record(ctx, req)
	return &milvuspb.ListImportTasksResponse{Status: s.reply(), Tasks: []*milvuspb.GetImportStateResponse{
		importState(501, commonpb.ImportState_ImportCompleted),
		importState(502, commonpb.ImportState_ImportFailed),
	}}, nil
}

// newTestClient starts fake on an in-memory listener and returns a client
// connected to it. cfg may adjust the config before dialing.
func newTestClient(t *testing.T, fake *fakeServer, cfg func(*Config)) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	milvuspb.RegisterMilvusServiceServer(srv, fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c := DefaultConfig()
	c.Address = "passthrough:///bufnet"
	c.CheckHealth = false
	c.DialOptions = []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}
	if cfg != nil {
		cfg(c)
	}

	client, err := NewClient(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
