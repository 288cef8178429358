package vdb

import (
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"

	"github.com/Aleph-Alpha/vdb-client/v1/schema"
)

// MutationResult reports the outcome of an insert, upsert or delete. Counts
// are passed through as the server sent them.
type MutationResult struct {
	IDs          *schema.IDs
	SuccIndex    []uint32
	ErrIndex     []uint32
	Acknowledged bool
	InsertCount  int64
	DeleteCount  int64
	UpsertCount  int64
	Timestamp    uint64
}

func newMutationResult(pb *milvuspb.MutationResult) (*MutationResult, error) {
	ids, err := schema.IDsFromWire(pb.GetIDs())
	if err != nil {
		return nil, err
	}
	return &MutationResult{
		IDs:          ids,
		SuccIndex:    pb.GetSuccIndex(),
		ErrIndex:     pb.GetErrIndex(),
		Acknowledged: pb.GetAcknowledged(),
		InsertCount:  pb.GetInsertCnt(),
		DeleteCount:  pb.GetDeleteCnt(),
		UpsertCount:  pb.GetUpsertCnt(),
		Timestamp:    pb.GetTimestamp(),
	}, nil
}

// SearchResult holds the hits of every query vector of one search, laid
// out query after query. Topks[q] hits belong to query q.
type SearchResult struct {
	CollectionName string
	NumQueries     int64
	TopK           int64
	Topks          []int64
	Scores         []float32
	IDs            *schema.IDs
	Fields         []*schema.FieldData
	OutputFields   []string
}

// Hit is one match of a query vector. Offset indexes Scores, IDs and the
// output field columns.
type Hit struct {
	Offset int
	Score  float32
	ID     any
}

func newSearchResult(pb *milvuspb.SearchResults) (*SearchResult, error) {
	data := pb.GetResults()
	if data == nil {
		return &SearchResult{CollectionName: pb.GetCollectionName()}, nil
	}

	var total int64
	for _, k := range data.GetTopks() {
		if k < 0 {
			return nil, fmt.Errorf("%w: negative topk %d", ErrMalformedResponse, k)
		}
		total += k
	}
	if total != int64(len(data.GetScores())) {
		return nil, fmt.Errorf("%w: topks sum to %d but %d scores were returned", ErrMalformedResponse, total, len(data.GetScores()))
	}

	ids, err := schema.IDsFromWire(data.GetIds())
	if err != nil {
		return nil, err
	}
	if ids != nil && int64(ids.Len()) != total {
		return nil, fmt.Errorf("%w: %d ids for %d scores", ErrMalformedResponse, ids.Len(), total)
	}

	fields, err := fieldsFromWire(data.GetFieldsData())
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.Column() != nil && int64(f.NumRows()) != total {
			return nil, fmt.Errorf("%w: output field %q has %d rows for %d hits", ErrMalformedResponse, f.Name(), f.NumRows(), total)
		}
	}

	return &SearchResult{
		CollectionName: pb.GetCollectionName(),
		NumQueries:     data.GetNumQueries(),
		TopK:           data.GetTopK(),
		Topks:          data.GetTopks(),
		Scores:         data.GetScores(),
		IDs:            ids,
		Fields:         fields,
		OutputFields:   data.GetOutputFields(),
	}, nil
}

// Hits returns the hits of query q in rank order.
func (r *SearchResult) Hits(q int) []Hit {
	if q < 0 || q >= len(r.Topks) {
		return nil
	}
	start := 0
	for _, k := range r.Topks[:q] {
		start += int(k)
	}
	n := int(r.Topks[q])

	hits := make([]Hit, 0, n)
	for i := start; i < start+n; i++ {
		h := Hit{Offset: i, Score: r.Scores[i]}
		if r.IDs != nil {
			h.ID = r.IDs.At(i)
		}
		hits = append(hits, h)
	}
	return hits
}

// Field returns the output column with the given name.
func (r *SearchResult) Field(name string) (*schema.FieldData, bool) {
	return findField(r.Fields, name)
}

// QueryResult holds the columns returned by a query in server order.
type QueryResult struct {
	CollectionName string
	OutputFields   []string
	Fields         []*schema.FieldData
}

func newQueryResult(pb *milvuspb.QueryResults) (*QueryResult, error) {
	fields, err := fieldsFromWire(pb.GetFieldsData())
	if err != nil {
		return nil, err
	}
	rows, first := -1, ""
	for _, f := range fields {
		if f.Column() == nil {
			continue
		}
		if rows == -1 {
			rows, first = f.NumRows(), f.Name()
			continue
		}
		if f.NumRows() != rows {
			return nil, fmt.Errorf("%w: output field %q has %d rows, %q has %d", ErrMalformedResponse, f.Name(), f.NumRows(), first, rows)
		}
	}
	return &QueryResult{
		CollectionName: pb.GetCollectionName(),
		OutputFields:   pb.GetOutputFields(),
		Fields:         fields,
	}, nil
}

// Field returns the column with the given name.
func (r *QueryResult) Field(name string) (*schema.FieldData, bool) {
	return findField(r.Fields, name)
}

// NumRows returns the row count shared by all columns with a payload.
func (r *QueryResult) NumRows() int {
	for _, f := range r.Fields {
		if f.Column() != nil {
			return f.NumRows()
		}
	}
	return 0
}

func fieldsFromWire(pbs []*schemapb.FieldData) ([]*schema.FieldData, error) {
	out := make([]*schema.FieldData, 0, len(pbs))
	for _, pb := range pbs {
		fd, err := schema.FieldDataFromWire(pb)
		if err != nil {
			return nil, err
		}
		out = append(out, fd)
	}
	return out, nil
}

func findField(fields []*schema.FieldData, name string) (*schema.FieldData, bool) {
	for _, f := range fields {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

// FlushResult lists the sealed segments per collection after a flush.
type FlushResult struct {
	SegmentIDs        map[string][]int64
	FlushedSegmentIDs map[string][]int64
	SealTimes         map[string]int64
	FlushTimestamps   map[string]uint64
}

func newFlushResult(pb *milvuspb.FlushResponse) *FlushResult {
	res := &FlushResult{
		SegmentIDs:        make(map[string][]int64, len(pb.GetCollSegIDs())),
		FlushedSegmentIDs: make(map[string][]int64, len(pb.GetFlushCollSegIDs())),
		SealTimes:         pb.GetCollSealTimes(),
		FlushTimestamps:   pb.GetCollFlushTs(),
	}
	for name, ids := range pb.GetCollSegIDs() {
		res.SegmentIDs[name] = ids.GetData()
	}
	for name, ids := range pb.GetFlushCollSegIDs() {
		res.FlushedSegmentIDs[name] = ids.GetData()
	}
	return res
}

// CollectionMetadata is the description of a collection.
type CollectionMetadata struct {
	Schema           *schema.CollectionSchema
	CollectionID     int64
	ShardsNum        int32
	Aliases          []string
	ConsistencyLevel ConsistencyLevel
	CreatedTimestamp uint64
	Properties       map[string]string
}

// CollectionInfo is one entry of ShowCollections.
type CollectionInfo struct {
	Name             string
	ID               int64
	CreatedTimestamp uint64
	// LoadedPercent is only populated when the listing asked for loaded
	// collections.
	LoadedPercent int64
}

// PartitionInfo is one entry of ShowPartitions.
type PartitionInfo struct {
	Name             string
	ID               int64
	CreatedTimestamp uint64
	LoadedPercent    int64
}

// IndexInfo describes one index on a field.
type IndexInfo struct {
	Name        string
	ID          int64
	FieldName   string
	Params      map[string]string
	IndexedRows int64
	TotalRows   int64
	PendingRows int64
	State       string
	FailReason  string
}

// IndexProgress reports how many rows an index build has covered.
type IndexProgress struct {
	IndexedRows int64
	TotalRows   int64
}

// Health is the server's self-reported health.
type Health struct {
	IsHealthy bool
	Reasons   []string
}

// CompactionState summarizes a compaction job.
type CompactionState struct {
	State     string
	Executing int64
	Completed int64
	Failed    int64
	TimedOut  int64
}

// ServerMetrics is the raw JSON document returned by GetMetrics.
type ServerMetrics struct {
	ComponentName string
	Response      string
}

// Grant is one privilege a role holds on an object, e.g. role "reader",
// Object "Collection", ObjectName "books", Privilege "Search".
type Grant struct {
	Role       string
	Object     string
	ObjectName string
	Privilege  string
	// Grantor is the user that granted the privilege. Only set in results.
	Grantor  string
	Database string
}

// RoleResult is one entry of SelectRole.
type RoleResult struct {
	Role  string
	Users []string
}

// UserResult is one entry of SelectUser.
type UserResult struct {
	User  string
	Roles []string
}

// ReplicaInfo describes one in-memory replica of a loaded collection.
type ReplicaInfo struct {
	ReplicaID     int64
	CollectionID  int64
	PartitionIDs  []int64
	NodeIDs       []int64
	ResourceGroup string
	Shards        []ShardReplica
}

// ShardReplica is the leader and nodes serving one channel of a replica.
type ShardReplica struct {
	LeaderID      int64
	LeaderAddress string
	ChannelName   string
	NodeIDs       []int64
}

// ComponentInfo is the state of one server component.
type ComponentInfo struct {
	NodeID    int64
	Role      string
	State     string
	ExtraInfo map[string]string
}

// ComponentStates is the state of the proxy and its subcomponents.
type ComponentStates struct {
	State         *ComponentInfo
	Subcomponents []ComponentInfo
}

// PersistentSegmentInfo describes a segment in object storage.
type PersistentSegmentInfo struct {
	SegmentID    int64
	CollectionID int64
	PartitionID  int64
	NumRows      int64
	State        string
}

// QuerySegmentInfo describes a segment loaded on query nodes.
type QuerySegmentInfo struct {
	SegmentID    int64
	CollectionID int64
	PartitionID  int64
	MemSize      int64
	NumRows      int64
	IndexName    string
	IndexID      int64
	NodeIDs      []int64
	State        string
}

// CompactionPlan lists the segment merges of a compaction.
type CompactionPlan struct {
	State      string
	MergeInfos []CompactionMergeInfo
}

// CompactionMergeInfo is one merge: Sources were compacted into Target.
type CompactionMergeInfo struct {
	Sources []int64
	Target  int64
}

// ImportRequest starts a bulk import of files already in the server's
// object storage.
type ImportRequest struct {
	CollectionName string
	PartitionName  string
	ChannelNames   []string
	// RowBased selects row based JSON files instead of column based files.
	RowBased bool
	Files    []string
	Options  map[string]string
}

// ImportState is the progress of one import task.
type ImportState struct {
	TaskID       int64
	State        string
	RowCount     int64
	IDs          []int64
	Infos        map[string]string
	CollectionID int64
	SegmentIDs   []int64
	CreatedAt    int64
}

// Failed reports whether the task ended in failure. The reason is in
// Infos["failed_reason"].
func (s *ImportState) Failed() bool {
	return s.State == commonpb.ImportState_ImportFailed.String() ||
		s.State == commonpb.ImportState_ImportFailedAndCleaned.String()
}

func newImportState(pb *milvuspb.GetImportStateResponse) *ImportState {
	return &ImportState{
		TaskID:       pb.GetId(),
		State:        pb.GetState().String(),
		RowCount:     pb.GetRowCount(),
		IDs:          pb.GetIdList(),
		Infos:        keyValueMap(pb.GetInfos()),
		CollectionID: pb.GetCollectionId(),
		SegmentIDs:   pb.GetSegmentIds(),
		CreatedAt:    pb.GetCreateTs(),
	}
}

func newComponentInfo(pb *milvuspb.ComponentInfo) ComponentInfo {
	return ComponentInfo{
		NodeID:    pb.GetNodeID(),
		Role:      pb.GetRole(),
		State:     pb.GetStateCode().String(),
		ExtraInfo: keyValueMap(pb.GetExtraInfo()),
	}
}
