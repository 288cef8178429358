package vdb

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
)

// GetReplicas lists the in-memory replicas of a loaded collection.
func (c *Client) GetReplicas(ctx context.Context, collection string, withShardNodes bool) (replicas []ReplicaInfo, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("GetReplicas", collection, "")
	defer op.end(&err)

	resp, err := c.api.GetReplicas(ctx, &milvuspb.GetReplicasRequest{
		Base:           msgBase(commonpb.MsgType_GetReplicas),
		CollectionName: collection,
		DbName:         c.cfg.Database,
		WithShardNodes: withShardNodes,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] get replicas %q: %w", collection, err)
	}
	for _, r := range resp.GetReplicas() {
		info := ReplicaInfo{
			ReplicaID:     r.GetReplicaID(),
			CollectionID:  r.GetCollectionID(),
			PartitionIDs:  r.GetPartitionIds(),
			NodeIDs:       r.GetNodeIds(),
			ResourceGroup: r.GetResourceGroupName(),
		}
		for _, s := range r.GetShardReplicas() {
			info.Shards = append(info.Shards, ShardReplica{
				LeaderID:      s.GetLeaderID(),
				LeaderAddress: s.GetLeaderAddr(),
				ChannelName:   s.GetDmChannelName(),
				NodeIDs:       s.GetNodeIds(),
			})
		}
		replicas = append(replicas, info)
	}
	op.size = int64(len(replicas))
	return replicas, nil
}

// GetComponentStates reports the state of the proxy the client talks to.
func (c *Client) GetComponentStates(ctx context.Context) (states *ComponentStates, err error) {
	op := c.begin("GetComponentStates", "", "")
	defer op.end(&err)

	resp, err := c.api.GetComponentStates(ctx, &milvuspb.GetComponentStatesRequest{})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] component states: %w", err)
	}
	states = &ComponentStates{}
	if resp.GetState() != nil {
		info := newComponentInfo(resp.GetState())
		states.State = &info
	}
	for _, s := range resp.GetSubcomponentStates() {
		states.Subcomponents = append(states.Subcomponents, newComponentInfo(s))
	}
	return states, nil
}

// GetPersistentSegmentInfo lists the segments of a collection in object
// storage.
func (c *Client) GetPersistentSegmentInfo(ctx context.Context, collection string) (segments []PersistentSegmentInfo, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("GetPersistentSegmentInfo", collection, "")
	defer op.end(&err)

	resp, err := c.api.GetPersistentSegmentInfo(ctx, &milvuspb.GetPersistentSegmentInfoRequest{
		Base:           msgBase(commonpb.MsgType_ShowSegments),
		DbName:         c.cfg.Database,
		CollectionName: collection,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] persistent segments %q: %w", collection, err)
	}
	for _, s := range resp.GetInfos() {
		segments = append(segments, PersistentSegmentInfo{
			SegmentID:    s.GetSegmentID(),
			CollectionID: s.GetCollectionID(),
			PartitionID:  s.GetPartitionID(),
			NumRows:      s.GetNumRows(),
			State:        s.GetState().String(),
		})
	}
	op.size = int64(len(segments))
	return segments, nil
}

// GetQuerySegmentInfo lists the segments of a collection loaded on query
// nodes.
func (c *Client) GetQuerySegmentInfo(ctx context.Context, collection string) (segments []QuerySegmentInfo, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("GetQuerySegmentInfo", collection, "")
	defer op.end(&err)

	resp, err := c.api.GetQuerySegmentInfo(ctx, &milvuspb.GetQuerySegmentInfoRequest{
		Base:           msgBase(commonpb.MsgType_SegmentInfo),
		DbName:         c.cfg.Database,
		CollectionName: collection,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] query segments %q: %w", collection, err)
	}
	for _, s := range resp.GetInfos() {
		segments = append(segments, QuerySegmentInfo{
			SegmentID:    s.GetSegmentID(),
			CollectionID: s.GetCollectionID(),
			PartitionID:  s.GetPartitionID(),
			MemSize:      s.GetMemSize(),
			NumRows:      s.GetNumRows(),
			IndexName:    s.GetIndexName(),
			IndexID:      s.GetIndexID(),
			NodeIDs:      s.GetNodeIds(),
			State:        s.GetState().String(),
		})
	}
	op.size = int64(len(segments))
	return segments, nil
}

// LoadBalance moves sealed segments from srcNode to dstNodes. Empty
// sealedSegments moves all of them; empty dstNodes lets the server choose.
func (c *Client) LoadBalance(ctx context.Context, collection string, srcNode int64, dstNodes, sealedSegments []int64) (err error) {
	if collection == "" {
		return ErrEmptyCollectionName
	}
	op := c.begin("LoadBalance", collection, "")
	defer op.end(&err)

	status, err := c.api.LoadBalance(ctx, &milvuspb.LoadBalanceRequest{
		Base:             msgBase(commonpb.MsgType_LoadBalanceSegments),
		SrcNodeID:        srcNode,
		DstNodeIDs:       dstNodes,
		SealedSegmentIDs: sealedSegments,
		CollectionName:   collection,
		DbName:           c.cfg.Database,
	})
	if err != nil {
		return fmt.Errorf("[VDB] load balance %q: %w", collection, err)
	}
	return checkStatus(status)
}

// Import starts a bulk import and returns the ids of the created tasks.
func (c *Client) Import(ctx context.Context, req *ImportRequest) (tasks []int64, err error) {
	if req == nil || req.CollectionName == "" {
		return nil, ErrEmptyCollectionName
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: import of %q needs at least one file", ErrInvalidArgument, req.CollectionName)
	}
	op := c.begin("Import", req.CollectionName, req.PartitionName)
	defer op.end(&err)

	resp, err := c.api.Import(ctx, &milvuspb.ImportRequest{
		CollectionName: req.CollectionName,
		PartitionName:  req.PartitionName,
		ChannelNames:   req.ChannelNames,
		RowBased:       req.RowBased,
		Files:          req.Files,
		Options:        keyValuePairs(req.Options),
		DbName:         c.cfg.Database,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] import %q: %w", req.CollectionName, err)
	}
	return resp.GetTasks(), nil
}

// GetImportState reports the progress of one import task.
func (c *Client) GetImportState(ctx context.Context, taskID int64) (state *ImportState, err error) {
	op := c.begin("GetImportState", "", "")
	defer op.end(&err)

	resp, err := c.api.GetImportState(ctx, &milvuspb.GetImportStateRequest{Task: taskID})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] import state %d: %w", taskID, err)
	}
	state = newImportState(resp)
	if state.TaskID == 0 {
		state.TaskID = taskID
	}
	return state, nil
}

// ListImportTasks lists import tasks, newest last. An empty collection lists
// tasks of all collections; limit 0 means no limit.
func (c *Client) ListImportTasks(ctx context.Context, collection string, limit int64) (tasks []ImportState, err error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", ErrInvalidArgument, limit)
	}
	op := c.begin("ListImportTasks", collection, "")
	defer op.end(&err)

	resp, err := c.api.ListImportTasks(ctx, &milvuspb.ListImportTasksRequest{
		CollectionName: collection,
		Limit:          limit,
		DbName:         c.cfg.Database,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] list import tasks: %w", err)
	}
	for _, t := range resp.GetTasks() {
		tasks = append(tasks, *newImportState(t))
	}
	op.size = int64(len(tasks))
	return tasks, nil
}
