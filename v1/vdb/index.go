package vdb

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
)

// Index parameter keys understood by the server.
const (
	IndexTypeKey  = "index_type"
	MetricTypeKey = "metric_type"
	ParamsKey     = "params"
)

// CreateIndex builds an index on a field. params carries the raw index
// parameters, e.g.
//
//	map[string]string{"index_type": "IVF_FLAT", "metric_type": "L2", "params": `{"nlist":128}`}
func (c *Client) CreateIndex(ctx context.Context, collection, field, indexName string, params map[string]string) (err error) {
	if collection == "" {
		return ErrEmptyCollectionName
	}
	if field == "" {
		return fmt.Errorf("%w: field name is required", ErrInvalidArgument)
	}
	op := c.begin("CreateIndex", collection, field)
	defer op.end(&err)

	status, err := c.api.CreateIndex(ctx, &milvuspb.CreateIndexRequest{
		Base:           msgBase(commonpb.MsgType_CreateIndex),
		DbName:         c.cfg.Database,
		CollectionName: collection,
		FieldName:      field,
		IndexName:      indexName,
		ExtraParams:    keyValuePairs(params),
	})
	if err != nil {
		return fmt.Errorf("[VDB] create index on %q.%q: %w", collection, field, err)
	}
	return checkStatus(status)
}

// DescribeIndex returns the indexes of a field, or of the whole collection
// when field and indexName are empty.
func (c *Client) DescribeIndex(ctx context.Context, collection, field, indexName string) (infos []IndexInfo, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("DescribeIndex", collection, field)
	defer op.end(&err)

	resp, err := c.api.DescribeIndex(ctx, &milvuspb.DescribeIndexRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		FieldName:      field,
		IndexName:      indexName,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] describe index on %q: %w", collection, err)
	}

	for _, d := range resp.GetIndexDescriptions() {
		infos = append(infos, IndexInfo{
			Name:        d.GetIndexName(),
			ID:          d.GetIndexID(),
			FieldName:   d.GetFieldName(),
			Params:      keyValueMap(d.GetParams()),
			IndexedRows: d.GetIndexedRows(),
			TotalRows:   d.GetTotalRows(),
			PendingRows: d.GetPendingIndexRows(),
			State:       d.GetState().String(),
			FailReason:  d.GetIndexStateFailReason(),
		})
	}
	return infos, nil
}

// GetIndexState returns the build state of an index, e.g. "Finished".
func (c *Client) GetIndexState(ctx context.Context, collection, field, indexName string) (state string, err error) {
	if collection == "" {
		return "", ErrEmptyCollectionName
	}
	op := c.begin("GetIndexState", collection, field)
	defer op.end(&err)

	resp, err := c.api.GetIndexState(ctx, &milvuspb.GetIndexStateRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		FieldName:      field,
		IndexName:      indexName,
	})
	if err := checkResponse(resp, err); err != nil {
		return "", fmt.Errorf("[VDB] index state on %q: %w", collection, err)
	}
	if resp.GetState() == commonpb.IndexState_Failed {
		return resp.GetState().String(), fmt.Errorf("[VDB] index build failed: %s", resp.GetFailReason())
	}
	return resp.GetState().String(), nil
}

// GetIndexBuildProgress returns how many rows the index covers.
func (c *Client) GetIndexBuildProgress(ctx context.Context, collection, field, indexName string) (progress *IndexProgress, err error) {
	if collection == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("GetIndexBuildProgress", collection, field)
	defer op.end(&err)

	resp, err := c.api.GetIndexBuildProgress(ctx, &milvuspb.GetIndexBuildProgressRequest{
		DbName:         c.cfg.Database,
		CollectionName: collection,
		FieldName:      field,
		IndexName:      indexName,
	})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] index progress on %q: %w", collection, err)
	}
	return &IndexProgress{
		IndexedRows: resp.GetIndexedRows(),
		TotalRows:   resp.GetTotalRows(),
	}, nil
}

// DropIndex drops an index.
func (c *Client) DropIndex(ctx context.Context, collection, field, indexName string) (err error) {
	if collection == "" {
		return ErrEmptyCollectionName
	}
	op := c.begin("DropIndex", collection, field)
	defer op.end(&err)

	status, err := c.api.DropIndex(ctx, &milvuspb.DropIndexRequest{
		Base:           msgBase(commonpb.MsgType_DropIndex),
		DbName:         c.cfg.Database,
		CollectionName: collection,
		FieldName:      field,
		IndexName:      indexName,
	})
	if err != nil {
		return fmt.Errorf("[VDB] drop index on %q: %w", collection, err)
	}
	return checkStatus(status)
}
