package schema

import (
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// CollectionSchema is a validated, ordered set of fields with exactly one
// primary key.
type CollectionSchema struct {
	name               string
	description        string
	enableDynamicField bool
	fields             []*FieldSchema
	primary            *FieldSchema
}

// CollectionOption configures a collection in NewCollectionSchema.
type CollectionOption func(*CollectionSchema)

// WithCollectionDescription sets the collection description.
func WithCollectionDescription(description string) CollectionOption {
	return func(c *CollectionSchema) { c.description = description }
}

// DynamicFieldName is the hidden JSON field holding the undeclared keys of
// rows in a collection with dynamic fields enabled.
const DynamicFieldName = "$meta"

// WithDynamicField allows rows to carry keys that are not declared fields.
// They are stored under DynamicFieldName; see BindColumns.
func WithDynamicField() CollectionOption {
	return func(c *CollectionSchema) { c.enableDynamicField = true }
}

// NewCollectionSchema validates fields and returns the schema. It fails with
// ErrNoPrimaryKey when no field is a primary key and with a
// *DuplicatePrimaryKeyError naming the first two primary key fields when more
// than one is.
func NewCollectionSchema(name string, fields []*FieldSchema, opts ...CollectionOption) (*CollectionSchema, error) {
	if name == "" {
		return nil, ErrEmptyCollectionName
	}

	c := &CollectionSchema{name: name}
	for _, opt := range opts {
		opt(c)
	}

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("%w: nil field in collection %q", ErrInvalidDataType, name)
		}
		if _, ok := seen[f.name]; ok {
			return nil, &DuplicateFieldNameError{Name: f.name}
		}
		seen[f.name] = struct{}{}

		if !f.isPrimaryKey {
			continue
		}
		if c.primary != nil {
			return nil, &DuplicatePrimaryKeyError{First: c.primary.name, Second: f.name}
		}
		c.primary = f
	}
	if c.primary == nil {
		return nil, ErrNoPrimaryKey
	}

	c.fields = append([]*FieldSchema(nil), fields...)
	return c, nil
}

func (c *CollectionSchema) Name() string { return c.name }
func (c *CollectionSchema) Description() string { return c.description }
func (c *CollectionSchema) EnableDynamicField() bool { return c.enableDynamicField }
func (c *CollectionSchema) PrimaryField() *FieldSchema { return c.primary }

// Fields returns the fields in declaration order. The slice is a copy.
func (c *CollectionSchema) Fields() []*FieldSchema {
	return append([]*FieldSchema(nil), c.fields...)
}

// Field looks a field up by name.
func (c *CollectionSchema) Field(name string) (*FieldSchema, bool) {
	for _, f := range c.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// VectorFields returns the vector fields in declaration order.
func (c *CollectionSchema) VectorFields() []*FieldSchema {
	var out []*FieldSchema
	for _, f := range c.fields {
		if f.dataType.IsVector() {
			out = append(out, f)
		}
	}
	return out
}

// ToWire encodes the schema. The collection-level auto id mirrors the primary key.
func (c *CollectionSchema) ToWire() *schemapb.CollectionSchema {
	fields := make([]*schemapb.FieldSchema, 0, len(c.fields))
	for _, f := range c.fields {
		fields = append(fields, f.ToWire())
	}
	return &schemapb.CollectionSchema{
		Name:               c.name,
		Description:        c.description,
		AutoID:             c.primary.autoID,
		Fields:             fields,
		EnableDynamicField: c.enableDynamicField,
	}
}

// CollectionSchemaFromWire decodes a schema returned by the server. Any
// invariant violation is reported as ErrMalformedResponse. The hidden
// DynamicFieldName field is not part of the result.
func CollectionSchemaFromWire(pb *schemapb.CollectionSchema) (*CollectionSchema, error) {
	if pb == nil {
		return nil, malformed("nil collection schema")
	}

	fields := make([]*FieldSchema, 0, len(pb.GetFields()))
	for _, f := range pb.GetFields() {
		// the server lists the hidden dynamic field; rows reach it through bind
		if f.GetIsDynamic() {
			continue
		}
		field, err := FieldFromWire(f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	var opts []CollectionOption
	opts = append(opts, WithCollectionDescription(pb.GetDescription()))
	if pb.GetEnableDynamicField() {
		opts = append(opts, WithDynamicField())
	}

	c, err := NewCollectionSchema(pb.GetName(), fields, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return c, nil
}
