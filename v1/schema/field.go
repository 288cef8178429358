package schema

import (
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

const (
	typeParamDim       = "dim"
	typeParamMaxLength = "max_length"
)

// FieldSchema describes one column of a collection. It is immutable once built;
// use NewField to obtain a validated value.
type FieldSchema struct {
	id           int64
	name         string
	description  string
	dataType     DataType
	isPrimaryKey bool
	autoID       bool
	maxLength    int32
	dimension    int64
}

// FieldOption configures a field in NewField.
type FieldOption func(*FieldSchema)

// WithDescription sets a free-form description.
func WithDescription(description string) FieldOption {
	return func(f *FieldSchema) { f.description = description }
}

// WithPrimaryKey marks the field as the collection's primary key.
func WithPrimaryKey() FieldOption {
	return func(f *FieldSchema) { f.isPrimaryKey = true }
}

// WithAutoID lets the server assign primary key values. Only valid together
// with WithPrimaryKey.
func WithAutoID() FieldOption {
	return func(f *FieldSchema) { f.autoID = true }
}

// WithMaxLength sets the maximum string length of a VarChar field.
func WithMaxLength(maxLength int32) FieldOption {
	return func(f *FieldSchema) { f.maxLength = maxLength }
}

// WithDimension sets the dimension of a vector field. For binary vectors the
// dimension is counted in bits.
func WithDimension(dim int64) FieldOption {
	return func(f *FieldSchema) { f.dimension = dim }
}

// NewField builds a field and validates it eagerly.
//
// Example:
//
//	id, _ := schema.NewField("book_id", schema.DataTypeInt64, schema.WithPrimaryKey(), schema.WithAutoID())
//	name, _ := schema.NewField("book_name", schema.DataTypeVarChar, schema.WithMaxLength(200))
//	intro, _ := schema.NewField("book_intro", schema.DataTypeFloatVector, schema.WithDimension(1536))
func NewField(name string, dataType DataType, opts ...FieldOption) (*FieldSchema, error) {
	f := &FieldSchema{name: name, dataType: dataType}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FieldSchema) validate() error {
	if f.name == "" {
		return ErrEmptyFieldName
	}
	if !f.dataType.Valid() || f.dataType == DataTypeNone {
		return fmt.Errorf("%w: field %q has type %s", ErrInvalidDataType, f.name, f.dataType)
	}
	if f.autoID && !f.isPrimaryKey {
		return fmt.Errorf("%w: field %q", ErrAutoIDWithoutPrimaryKey, f.name)
	}
	if f.isPrimaryKey && f.dataType != DataTypeInt64 && f.dataType != DataTypeVarChar {
		return fmt.Errorf("%w: field %q is %s", ErrUnsupportedPrimaryKeyType, f.name, f.dataType)
	}

	switch f.dataType {
	case DataTypeVarChar:
		if f.maxLength <= 0 {
			return fmt.Errorf("%w: field %q has max length %d", ErrInvalidMaxLength, f.name, f.maxLength)
		}
	case DataTypeFloatVector, DataTypeBinaryVector:
		if f.dimension <= 0 {
			return fmt.Errorf("%w: field %q has dimension %d", ErrInvalidDimension, f.name, f.dimension)
		}
		if f.dataType == DataTypeBinaryVector && f.dimension%8 != 0 {
			return fmt.Errorf("%w: binary field %q dimension %d is not a multiple of 8", ErrInvalidDimension, f.name, f.dimension)
		}
	}

	if f.dimension != 0 && !f.dataType.IsVector() {
		return fmt.Errorf("%w: dimension on %s field %q", ErrInvalidTypeParams, f.dataType, f.name)
	}
	if f.maxLength != 0 && f.dataType != DataTypeVarChar {
		return fmt.Errorf("%w: max length on %s field %q", ErrInvalidTypeParams, f.dataType, f.name)
	}
	return nil
}

// ID returns the server-assigned field id, zero for locally built fields.
func (f *FieldSchema) ID() int64 { return f.id }

func (f *FieldSchema) Name() string { return f.name }
func (f *FieldSchema) Description() string { return f.description }
func (f *FieldSchema) DataType() DataType { return f.dataType }
func (f *FieldSchema) IsPrimaryKey() bool { return f.isPrimaryKey }
func (f *FieldSchema) IsAutoID() bool { return f.autoID }

// MaxLength is only meaningful for VarChar fields.
func (f *FieldSchema) MaxLength() int32 { return f.maxLength }

// Dimension is only meaningful for vector fields.
func (f *FieldSchema) Dimension() int64 { return f.dimension }

// ToWire encodes the field, emitting "dim" and "max_length" as type params
// where they apply.
func (f *FieldSchema) ToWire() *schemapb.FieldSchema {
	var params []*commonpb.KeyValuePair
	if f.dataType.IsVector() {
		params = append(params, &commonpb.KeyValuePair{Key: typeParamDim, Value: strconv.FormatInt(f.dimension, 10)})
	}
	if f.dataType == DataTypeVarChar {
		params = append(params, &commonpb.KeyValuePair{Key: typeParamMaxLength, Value: strconv.FormatInt(int64(f.maxLength), 10)})
	}

	return &schemapb.FieldSchema{
		FieldID:      f.id,
		Name:         f.name,
		IsPrimaryKey: f.isPrimaryKey,
		Description:  f.description,
		DataType:     f.dataType.Wire(),
		TypeParams:   params,
		AutoID:       f.autoID,
	}
}

// FieldFromWire decodes and validates a field received from the server.
func FieldFromWire(pb *schemapb.FieldSchema) (*FieldSchema, error) {
	if pb == nil {
		return nil, malformed("nil field schema")
	}
	dataType, err := DataTypeFromWire(pb.GetDataType())
	if err != nil {
		return nil, err
	}

	f := &FieldSchema{
		id:           pb.GetFieldID(),
		name:         pb.GetName(),
		description:  pb.GetDescription(),
		dataType:     dataType,
		isPrimaryKey: pb.GetIsPrimaryKey(),
		autoID:       pb.GetAutoID(),
	}

	for _, kv := range pb.GetTypeParams() {
		switch kv.GetKey() {
		case typeParamDim:
			dim, err := strconv.ParseInt(kv.GetValue(), 10, 64)
			if err != nil {
				return nil, malformed("field %q: dim %q", f.name, kv.GetValue())
			}
			f.dimension = dim
		case typeParamMaxLength:
			n, err := strconv.ParseInt(kv.GetValue(), 10, 32)
			if err != nil {
				return nil, malformed("field %q: max_length %q", f.name, kv.GetValue())
			}
			f.maxLength = int32(n)
		}
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return f, nil
}
