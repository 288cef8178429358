package vdb

import (
	"context"
	"fmt"
	"log"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"

	"github.com/Aleph-Alpha/vdb-client/v1/schema"
)

// CreateCollectionOptions tunes CreateCollection. The zero value uses two
// shards and session consistency.
type CreateCollectionOptions struct {
	ShardsNum        int32
	ConsistencyLevel ConsistencyLevel
	Properties       map[string]string
}

func msgBase(t commonpb.MsgType) *commonpb.MsgBase {
	return &commonpb.MsgBase{MsgType: t}
}

func keyValuePairs(m map[string]string) []*commonpb.KeyValuePair {
	if len(m) == 0 {
		return nil
	}
	out := make([]*commonpb.KeyValuePair, 0, len(m))
	for k, v := range m {
		out = append(out, &commonpb.KeyValuePair{Key: k, Value: v})
	}
	return out
}

func keyValueMap(pairs []*commonpb.KeyValuePair) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		out[kv.GetKey()] = kv.GetValue()
	}
	return out
}

// CreateCollection creates a collection from a validated schema.
func (c *Client) CreateCollection(ctx context.Context, sc *schema.CollectionSchema, opts *CreateCollectionOptions) (err error) {
	if sc == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalidArgument)
	}
	op := c.begin("CreateCollection", sc.Name(), "")
	defer op.end(&err)

	if opts == nil {
		opts = &CreateCollectionOptions{}
	}
	shards := opts.ShardsNum
	if shards <= 0 {
		shards = defaultShardsNum
	}

	raw, err := proto.Marshal(sc.ToWire())
	if err != nil {
		return fmt.Errorf("[VDB] failed to encode schema: %w", err)
	}

	status, err := c.api.CreateCollection(ctx, &milvuspb.CreateCollectionRequest{
		Base:             msgBase(commonpb.MsgType_CreateCollection),
		DbName:           c.cfg.Database,
		CollectionName:   sc.Name(),
		Schema:           raw,
		ShardsNum:        shards,
		ConsistencyLevel: opts.ConsistencyLevel.wire(),
		Properties:       keyValuePairs(opts.Properties),
	})
	if err != nil {
		return fmt.Errorf("[VDB] create collection %q: %w", sc.Name(), err)
	}
	if err := checkStatus(status); err != nil {
		return err
	}

	c.schemas.put(sc.Name(), sc)
	log.Printf("[VDB] Created collection '%s' (%d fields, %d shards)", sc.Name(), len(sc.Fields()), shards)
	return nil
}

// DropCollection drops a collection and all its data.
func (c *Client) DropCollection(ctx context.Context, name string) (err error) {
	if name == "" {
		return ErrEmptyCollectionName
	}
	op := c.begin("DropCollection", name, "")
	defer op.end(&err)

	status, err := c.api.DropCollection(ctx, &milvuspb.DropCollectionRequest{
		Base:           msgBase(commonpb.MsgType_DropCollection),
		DbName:         c.cfg.Database,
		CollectionName: name,
	})
	if err != nil {
		return fmt.Errorf("[VDB] drop collection %q: %w", name, err)
	}
	if err := checkStatus(status); err != nil {
		return err
	}

	c.schemas.invalidate(name)
	c.session.forget(name)
	return nil
}

// HasCollection reports whether a collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (exists bool, err error) {
	if name == "" {
		return false, ErrEmptyCollectionName
	}
	op := c.begin("HasCollection", name, "")
	defer op.end(&err)

	resp, err := c.api.HasCollection(ctx, &milvuspb.HasCollectionRequest{
		DbName:         c.cfg.Database,
		CollectionName: name,
	})
	if err := checkResponse(resp, err); err != nil {
		return false, fmt.Errorf("[VDB] has collection %q: %w", name, err)
	}
	return resp.GetValue(), nil
}

// LoadCollection loads a collection into memory so it can be searched.
// replicas <= 0 lets the server choose.
func (c *Client) LoadCollection(ctx context.Context, name string, replicas int32) (err error) {
	if name == "" {
		return ErrEmptyCollectionName
	}
	op := c.begin("LoadCollection", name, "")
	defer op.end(&err)

	req := &milvuspb.LoadCollectionRequest{DbName: c.cfg.Database, CollectionName: name}
	if replicas > 0 {
		req.ReplicaNumber = replicas
	}
	status, err := c.api.LoadCollection(ctx, req)
	if err != nil {
		return fmt.Errorf("[VDB] load collection %q: %w", name, err)
	}
	return checkStatus(status)
}

// ReleaseCollection releases a loaded collection from memory.
func (c *Client) ReleaseCollection(ctx context.Context, name string) (err error) {
	if name == "" {
		return ErrEmptyCollectionName
	}
	op := c.begin("ReleaseCollection", name, "")
	defer op.end(&err)

	status, err := c.api.ReleaseCollection(ctx, &milvuspb.ReleaseCollectionRequest{DbName: c.cfg.Database, CollectionName: name})
	if err != nil {
		return fmt.Errorf("[VDB] release collection %q: %w", name, err)
	}
	return checkStatus(status)
}

// DescribeCollection returns the schema and metadata of a collection. The
// schema is cached for later inserts.
func (c *Client) DescribeCollection(ctx context.Context, name string) (meta *CollectionMetadata, err error) {
	if name == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("DescribeCollection", name, "")
	defer op.end(&err)

	resp, err := c.api.DescribeCollection(ctx, &milvuspb.DescribeCollectionRequest{DbName: c.cfg.Database, CollectionName: name})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] describe collection %q: %w", name, err)
	}

	sc, err := schema.CollectionSchemaFromWire(resp.GetSchema())
	if err != nil {
		return nil, fmt.Errorf("[VDB] describe collection %q: %w", name, err)
	}
	c.schemas.put(name, sc)

	return &CollectionMetadata{
		Schema:           sc,
		CollectionID:     resp.GetCollectionID(),
		ShardsNum:        resp.GetShardsNum(),
		Aliases:          resp.GetAliases(),
		ConsistencyLevel: consistencyFromWire(resp.GetConsistencyLevel()),
		CreatedTimestamp: resp.GetCreatedTimestamp(),
		Properties:       keyValueMap(resp.GetProperties()),
	}, nil
}

// DescribeCollections describes several collections concurrently. Results
// follow the order of names; the first failure cancels the rest.
func (c *Client) DescribeCollections(ctx context.Context, names ...string) ([]*CollectionMetadata, error) {
	out := make([]*CollectionMetadata, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDescribe)
	for i, name := range names {
		g.Go(func() error {
			meta, err := c.DescribeCollection(gctx, name)
			if err != nil {
				return err
			}
			out[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCollectionStatistics returns server statistics such as "row_count".
func (c *Client) GetCollectionStatistics(ctx context.Context, name string) (stats map[string]string, err error) {
	if name == "" {
		return nil, ErrEmptyCollectionName
	}
	op := c.begin("GetCollectionStatistics", name, "")
	defer op.end(&err)

	resp, err := c.api.GetCollectionStatistics(ctx, &milvuspb.GetCollectionStatisticsRequest{DbName: c.cfg.Database, CollectionName: name})
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] collection statistics %q: %w", name, err)
	}
	return keyValueMap(resp.GetStats()), nil
}

// ShowCollections lists collections. When names are given only those are
// returned, together with their loading progress.
func (c *Client) ShowCollections(ctx context.Context, names ...string) (infos []CollectionInfo, err error) {
	op := c.begin("ShowCollections", "", "")
	defer op.end(&err)

	req := &milvuspb.ShowCollectionsRequest{DbName: c.cfg.Database, Type: milvuspb.ShowType_All}
	if len(names) > 0 {
		req.Type = milvuspb.ShowType_InMemory
		req.CollectionNames = names
	}
	resp, err := c.api.ShowCollections(ctx, req)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("[VDB] show collections: %w", err)
	}

	collNames := resp.GetCollectionNames()
	ids := resp.GetCollectionIds()
	created := resp.GetCreatedTimestamps()
	loaded := resp.GetInMemoryPercentages()
	if len(ids) != len(collNames) {
		return nil, fmt.Errorf("%w: %d collection names with %d ids", ErrMalformedResponse, len(collNames), len(ids))
	}

	infos = make([]CollectionInfo, 0, len(collNames))
	for i, n := range collNames {
		info := CollectionInfo{Name: n, ID: ids[i]}
		if i < len(created) {
			info.CreatedTimestamp = created[i]
		}
		if i < len(loaded) {
			info.LoadedPercent = loaded[i]
		}
		infos = append(infos, info)
	}
	op.size = int64(len(infos))
	return infos, nil
}

// AlterCollection updates collection properties such as "collection.ttl.seconds".
func (c *Client) AlterCollection(ctx context.Context, name string, properties map[string]string) (err error) {
	if name == "" {
		return ErrEmptyCollectionName
	}
	op := c.begin("AlterCollection", name, "")
	defer op.end(&err)

	status, err := c.api.AlterCollection(ctx, &milvuspb.AlterCollectionRequest{
		DbName:         c.cfg.Database,
		CollectionName: name,
		Properties:     keyValuePairs(properties),
	})
	if err != nil {
		return fmt.Errorf("[VDB] alter collection %q: %w", name, err)
	}
	if err := checkStatus(status); err != nil {
		return err
	}
	c.schemas.invalidate(name)
	return nil
}

// collectionSchema returns the cached schema or describes the collection.
func (c *Client) collectionSchema(ctx context.Context, name string) (*schema.CollectionSchema, error) {
	if sc, ok := c.schemas.get(name); ok {
		return sc, nil
	}
	meta, err := c.DescribeCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	return meta.Schema, nil
}
