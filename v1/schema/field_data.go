package schema

import (
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// FieldData is one named column of values, the unit exchanged with the server
// for inserts, upserts, search outputs and query results.
type FieldData struct {
	name     string
	id       int64
	dataType DataType
	payload  Column
}

// NewFieldData pairs a column with the field it belongs to. dataType is the
// declared type of the field, which may be narrower than the column's own tag
// (an Int8 field carries an int32 column).
func NewFieldData(name string, dataType DataType, payload Column) *FieldData {
	return &FieldData{name: name, dataType: dataType, payload: payload}
}

// Name returns the field name.
func (d *FieldData) Name() string { return d.name }

// FieldID returns the field id assigned by the server, or zero.
func (d *FieldData) FieldID() int64 { return d.id }

// DataType returns the declared field type.
func (d *FieldData) DataType() DataType { return d.dataType }

// Column returns the payload, nil when absent.
func (d *FieldData) Column() Column { return d.payload }

// Scalars returns the payload when it is a scalar column.
func (d *FieldData) Scalars() (*ScalarColumn, bool) {
	c, ok := d.payload.(*ScalarColumn)
	return c, ok
}

// Vectors returns the payload when it is a vector column.
func (d *FieldData) Vectors() (*VectorColumn, bool) {
	c, ok := d.payload.(*VectorColumn)
	return c, ok
}

// NumRows returns the payload row count, zero when absent.
func (d *FieldData) NumRows() int {
	if d.payload == nil {
		return 0
	}
	return d.payload.NumRows()
}

// ToWire encodes the field data. An absent payload produces a message with
// no value set.
func (d *FieldData) ToWire() *schemapb.FieldData {
	pb := &schemapb.FieldData{
		Type:      d.dataType.Wire(),
		FieldName: d.name,
		FieldId:   d.id,
	}

	switch c := d.payload.(type) {
	case *ScalarColumn:
		pb.Field = &schemapb.FieldData_Scalars{Scalars: scalarToWire(c)}
	case *VectorColumn:
		pb.Field = &schemapb.FieldData_Vectors{Vectors: vectorToWire(c)}
	}
	return pb
}

func scalarToWire(c *ScalarColumn) *schemapb.ScalarField {
	sf := &schemapb.ScalarField{}
	switch c.kind {
	case scalarBool:
		sf.Data = &schemapb.ScalarField_BoolData{BoolData: &schemapb.BoolArray{Data: c.bools}}
	case scalarInt:
		sf.Data = &schemapb.ScalarField_IntData{IntData: &schemapb.IntArray{Data: c.ints}}
	case scalarLong:
		sf.Data = &schemapb.ScalarField_LongData{LongData: &schemapb.LongArray{Data: c.longs}}
	case scalarFloat:
		sf.Data = &schemapb.ScalarField_FloatData{FloatData: &schemapb.FloatArray{Data: c.floats}}
	case scalarDouble:
		sf.Data = &schemapb.ScalarField_DoubleData{DoubleData: &schemapb.DoubleArray{Data: c.doubles}}
	case scalarString:
		sf.Data = &schemapb.ScalarField_StringData{StringData: &schemapb.StringArray{Data: c.strings}}
	case scalarBytes:
		sf.Data = &schemapb.ScalarField_BytesData{BytesData: &schemapb.BytesArray{Data: c.bytes}}
	case scalarJSON:
		sf.Data = &schemapb.ScalarField_JsonData{JsonData: &schemapb.JSONArray{Data: c.bytes}}
	}
	return sf
}

func vectorToWire(c *VectorColumn) *schemapb.VectorField {
	vf := &schemapb.VectorField{Dim: c.dim}
	if c.isBin {
		vf.Data = &schemapb.VectorField_BinaryVector{BinaryVector: c.binary}
	} else {
		vf.Data = &schemapb.VectorField_FloatVector{FloatVector: &schemapb.FloatArray{Data: c.floats}}
	}
	return vf
}

// FieldDataFromWire decodes a column received from the server. Unknown type
// codes, payloads that do not match the declared type and partial vector rows
// fail with ErrMalformedResponse.
func FieldDataFromWire(pb *schemapb.FieldData) (*FieldData, error) {
	if pb == nil {
		return nil, malformed("nil field data")
	}
	dataType, err := DataTypeFromWire(pb.GetType())
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", pb.GetFieldName(), err)
	}

	d := &FieldData{name: pb.GetFieldName(), id: pb.GetFieldId(), dataType: dataType}

	switch f := pb.GetField().(type) {
	case *schemapb.FieldData_Scalars:
		col, err := scalarFromWire(f.Scalars)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", d.name, err)
		}
		if col.kind != scalarEmpty && !col.accepts(dataType) && col.DataType() != dataType {
			return nil, malformed("field %q declared %s carries %s data", d.name, dataType, col.DataType())
		}
		d.payload = col
	case *schemapb.FieldData_Vectors:
		col, err := vectorFromWire(f.Vectors)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", d.name, err)
		}
		if col.DataType() != dataType {
			return nil, malformed("field %q declared %s carries %s data", d.name, dataType, col.DataType())
		}
		d.payload = col
	}
	return d, nil
}

func scalarFromWire(sf *schemapb.ScalarField) (*ScalarColumn, error) {
	switch v := sf.GetData().(type) {
	case *schemapb.ScalarField_BoolData:
		return NewScalarColumn(v.BoolData.GetData()), nil
	case *schemapb.ScalarField_IntData:
		return NewScalarColumn(v.IntData.GetData()), nil
	case *schemapb.ScalarField_LongData:
		return NewScalarColumn(v.LongData.GetData()), nil
	case *schemapb.ScalarField_FloatData:
		return NewScalarColumn(v.FloatData.GetData()), nil
	case *schemapb.ScalarField_DoubleData:
		return NewScalarColumn(v.DoubleData.GetData()), nil
	case *schemapb.ScalarField_StringData:
		return NewScalarColumn(v.StringData.GetData()), nil
	case *schemapb.ScalarField_BytesData:
		return NewScalarColumn(v.BytesData.GetData()), nil
	case *schemapb.ScalarField_JsonData:
		return NewJSONColumn(v.JsonData.GetData()), nil
	case nil:
		return &ScalarColumn{}, nil
	}
	return nil, malformed("unsupported scalar payload %T", sf.GetData())
}

func vectorFromWire(vf *schemapb.VectorField) (*VectorColumn, error) {
	var (
		col *VectorColumn
		err error
	)
	switch v := vf.GetData().(type) {
	case *schemapb.VectorField_FloatVector:
		col, err = NewFloatVectorColumn(vf.GetDim(), v.FloatVector.GetData())
	case *schemapb.VectorField_BinaryVector:
		col, err = NewBinaryVectorColumn(vf.GetDim(), v.BinaryVector)
	default:
		return nil, malformed("unsupported vector payload %T", vf.GetData())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return col, nil
}
