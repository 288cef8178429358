package vdb

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
)

func validatePartition(collection, partition string) error {
	if collection == "" {
		return ErrEmptyCollectionName
	}
	if partition == "" {
		return ErrEmptyPartitionName
	}
	return nil
}

// CreatePartition creates a partition in a collection.
func (c *Client) CreatePartition(ctx context.Context, collection, partition string) (err error) {
	if err := validatePartition(collection, partition); err != nil {
		return err
	}
	op := c.begin("CreatePartition", collection, partition)
	defer op.end(&err)

	status, err := c.api.CreatePartition(ctx, &milvuspb.CreatePartitionRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionName:  partition,
	})
	if err != nil {
		return fmt.Errorf("[VDB] create partition %q/%q: %w", collection, partition, err)
	}
	return checkStatus(status)
}

// DropPartition drops a partition and its data.
func (c *Client) DropPartition(ctx context.Context, collection, partition string) (err error) {
	if err := validatePartition(collection, partition); err != nil {
		return err
	}
	op := c.begin("DropPartition", collection, partition)
	defer op.end(&err)

	status, err := c.api.DropPartition(ctx, &milvuspb.DropPartitionRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionName:  partition,
	})
	if err != nil {
		return fmt.Errorf("[VDB] drop partition %q/%q: %w", collection, partition, err)
	}
	return checkStatus(status)
}

// HasPartition reports whether a partition exists.
func (c *Client) HasPartition(ctx context.Context, collection, partition string) (exists bool, err error) {
	if err := validatePartition(collection, partition); err != nil {
		return false, err
	}
	op := c.begin("HasPartition", collection, partition)
	defer op.end(&err)

	resp, err := c.api.HasPartition(ctx, &milvuspb.HasPartitionRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionName:  partition,
	})
	if err := checkResponse(resp, err); err != nil {
		return false, fmt.Errorf("[VDB] has partition %q/%q: %w", collection, partition, err)
	}
	return resp.GetValue(), nil
}

// LoadPartitions loads the given partitions into memory.
func (c *Client) LoadPartitions(ctx context.Context, collection string, partitions []string, replicas int32) (err error) {
	if collection == "" {
		return ErrEmptyCollectionName
	}
	if len(partitions) == 0 {
		return fmt.Errorf("%w: no partitions to load", ErrInvalidArgument)
	}
	op := c.begin("LoadPartitions", collection, "")
	defer op.end(&err)

	req := &milvuspb.LoadPartitionsRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionNames: partitions,
	}
	if replicas > 0 {
		req.ReplicaNumber = replicas
	}
	status, err := c.api.LoadPartitions(ctx, req)
	if err != nil {
		return fmt.Errorf("[VDB] load partitions of %q: %w", collection, err)
	}
	return checkStatus(status)
}

// ReleasePartitions releases the given partitions from memory.
func (c *Client) ReleasePartitions(ctx context.Context, collection string, partitions []string) (err error) {
	if collection == "" {
		return ErrEmptyCollectionName
	}
	if len(partitions) == 0 {
		return fmt.Errorf("%w: no partitions to release", ErrInvalidArgument)
	}
	op := c.begin("ReleasePartitions", collection, "")
	defer op.end(&err)

	status, err := c.api.ReleasePartitions(ctx, &milvuspb.ReleasePartitionsRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionNames: partitions,
	})
	if err != nil {
		return fmt.Errorf("[VDB] release partitions of %q: %w", collection, err)
	}
	return checkStatus(status)
}

// GetPartitionStatistics returns server statistics such as "row_count".
func (c *Client) GetPartitionStatistics(ctx context.Context, collection, partition string) (stats map[string]string, err error) {
	if err := validatePartition(collection, partition); err != nil {
		return nil, err
	}
	op := c.begin("GetPartitionStatistics", collection, partition)
	defer op.end(&err)

	resp, err := c.api.GetPartitionStatistics(ctx, &milvuspb.GetPartitionStatisticsRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionName:  partition,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] partition statistics %q/%q: %w", collection, partition, err)
	}
	return keyValueMap(resp.GetStats()), nil
}

// ShowPartitions lists the partitions of a collection.
func (c *Client) ShowPartitions(ctx context.Context, collection string, partitions ...string) (infos []PartitionInfo, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("ShowPartitions", collection, "")
	defer op.end(&err)

	req := &milvuspb.ShowPartitionsRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		Type:           milvuspb.ShowType_All,
	}
	if len(partitions) > 0 {
		req.Type = milvuspb.ShowType_InMemory
		req.PartitionNames = partitions
	}
	resp, err := c.api.ShowPartitions(ctx, req)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] show partitions of %q: %w", collection, err)
	}

	names := resp.GetPartitionNames()
	ids := resp.GetPartitionIDs()
	created := resp.GetCreatedTimestamps()
	loaded := resp.GetInMemoryPercentages()
	if len(ids) != len(names) {
		return nil, fmt.Errorf("%w: %d partition names with %d ids", ErrMalformedResponse, len(names), len(ids))
	}

	infos = make([]PartitionInfo, 0, len(names))
	for i, n := range names {
		info := PartitionInfo{Name: n, ID: ids[i]}
		if i < len(created) {
			info.CreatedTimestamp = created[i]
		}
		if i < len(loaded) {
			info.LoadedPercent = loaded[i]
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetLoadingProgress returns the loading percentage of a collection or of
// some of its partitions.
func (c *Client) GetLoadingProgress(ctx context.Context, collection string, partitions ...string) (progress int64, err error) {
	if collection == "" {
		return 0, ErrEmptyCollectionName
	}
	op := c.begin("GetLoadingProgress", collection, "")
	defer op.end(&err)

	resp, err := c.api.GetLoadingProgress(ctx, &milvuspb.GetLoadingProgressRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		PartitionNames: partitions,
	})
	if err := checkResponse(resp, err); err != nil {
		return 0, fmt.Errorf("[VDB] loading progress of %q: %w", collection, err)
	}
	return resp.GetProgress(), nil
}

// CreateAlias points a new alias at a collection.
func (c *Client) CreateAlias(ctx context.Context, collection, alias string) (err error) {
	if collection == "" || alias == "" {
		return fmt.Errorf("%w: collection and alias are required", ErrInvalidArgument)
	}
	op := c.begin("CreateAlias", collection, alias)
	defer op.end(&err)

	status, err := c.api.CreateAlias(ctx, &milvuspb.CreateAliasRequest{DbName: c.cfg.Database, CollectionName: collection, Alias: alias})
	if err != nil {
		return fmt.Errorf("[VDB] create alias %q: %w", alias, err)
	}
	return checkStatus(status)
}

// DropAlias removes an alias.
func (c *Client) DropAlias(ctx context.Context, alias string) (err error) {
	if alias == "" {
		return fmt.Errorf("%w: alias is required", ErrInvalidArgument)
	}
	op := c.begin("DropAlias", "", alias)
	defer op.end(&err)

	status, err := c.api.DropAlias(ctx, &milvuspb.DropAliasRequest{DbName: c.cfg.Database, Alias: alias})
	if err != nil {
		return fmt.Errorf("[VDB] drop alias %q: %w", alias, err)
	}
	return checkStatus(status)
}

// AlterAlias repoints an existing alias at another collection.
func (c *Client) AlterAlias(ctx context.Context, collection, alias string) (err error) {
	if collection == "" || alias == "" {
		return fmt.Errorf("%w: collection and alias are required", ErrInvalidArgument)
	}
	op := c.begin("AlterAlias", collection, alias)
	defer op.end(&err)

	status, err := c.api.AlterAlias(ctx, &milvuspb.AlterAliasRequest{DbName: c.cfg.Database, CollectionName: collection, Alias: alias})
	if err != nil {
		return fmt.Errorf("[VDB] alter alias %q: %w", alias, err)
	}
	return checkStatus(status)
}
