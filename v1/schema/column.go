package schema

import (
	"encoding/json"
	"fmt"
)

// Column is the payload of a FieldData: either a *ScalarColumn or a *VectorColumn.
type Column interface {
	// NumRows returns the number of rows the column holds.
	NumRows() int
	// DataType returns the type tag matching the populated variant.
	DataType() DataType
	column()
}

// ScalarValue lists the element types a ScalarColumn can hold.
type ScalarValue interface {
	bool | int32 | int64 | float32 | float64 | string | []byte
}

type scalarKind uint8

const (
	scalarEmpty scalarKind = iota
	scalarBool
	scalarInt
	scalarLong
	scalarFloat
	scalarDouble
	scalarString
	scalarBytes
	scalarJSON
)

// ScalarColumn holds one value per row. Exactly one variant is populated.
type ScalarColumn struct {
	kind    scalarKind
	bools   []bool
	ints    []int32
	longs   []int64
	floats  []float32
	doubles []float64
	strings []string
	bytes   [][]byte
}

// NewScalarColumn wraps data in a column of the matching variant. Int8 and
// Int16 fields travel as int32.
func NewScalarColumn[T ScalarValue](data []T) *ScalarColumn {
	switch v := any(data).(type) {
	case []bool:
		return &ScalarColumn{kind: scalarBool, bools: v}
	case []int32:
		return &ScalarColumn{kind: scalarInt, ints: v}
	case []int64:
		return &ScalarColumn{kind: scalarLong, longs: v}
	case []float32:
		return &ScalarColumn{kind: scalarFloat, floats: v}
	case []float64:
		return &ScalarColumn{kind: scalarDouble, doubles: v}
	case []string:
		return &ScalarColumn{kind: scalarString, strings: v}
	case [][]byte:
		return &ScalarColumn{kind: scalarBytes, bytes: v}
	}
	return &ScalarColumn{}
}

// NewJSONColumn holds one encoded JSON document per row.
func NewJSONColumn(docs [][]byte) *ScalarColumn {
	return &ScalarColumn{kind: scalarJSON, bytes: docs}
}

func (*ScalarColumn) column() {}

func (c *ScalarColumn) NumRows() int {
	switch c.kind {
	case scalarBool:
		return len(c.bools)
	case scalarInt:
		return len(c.ints)
	case scalarLong:
		return len(c.longs)
	case scalarFloat:
		return len(c.floats)
	case scalarDouble:
		return len(c.doubles)
	case scalarString:
		return len(c.strings)
	case scalarBytes, scalarJSON:
		return len(c.bytes)
	}
	return 0
}

// DataType returns the type tag of the populated variant, or DataTypeNone for
// an empty column. Raw byte rows report DataTypeBinaryVector.
func (c *ScalarColumn) DataType() DataType {
	switch c.kind {
	case scalarBool:
		return DataTypeBool
	case scalarInt:
		return DataTypeInt32
	case scalarLong:
		return DataTypeInt64
	case scalarFloat:
		return DataTypeFloat
	case scalarDouble:
		return DataTypeDouble
	case scalarString:
		return DataTypeString
	case scalarBytes:
		return DataTypeBinaryVector
	case scalarJSON:
		return DataTypeJSON
	}
	return DataTypeNone
}

func (c *ScalarColumn) Bools() ([]bool, bool) { return c.bools, c.kind == scalarBool }
func (c *ScalarColumn) Ints() ([]int32, bool) { return c.ints, c.kind == scalarInt }
func (c *ScalarColumn) Longs() ([]int64, bool) { return c.longs, c.kind == scalarLong }
func (c *ScalarColumn) Floats() ([]float32, bool) { return c.floats, c.kind == scalarFloat }
func (c *ScalarColumn) Doubles() ([]float64, bool) { return c.doubles, c.kind == scalarDouble }
func (c *ScalarColumn) Strings() ([]string, bool) { return c.strings, c.kind == scalarString }
func (c *ScalarColumn) Bytes() ([][]byte, bool) { return c.bytes, c.kind == scalarBytes }
func (c *ScalarColumn) JSONDocs() ([][]byte, bool) { return c.bytes, c.kind == scalarJSON }

func (c *ScalarColumn) value(i int) any {
	switch c.kind {
	case scalarBool:
		return c.bools[i]
	case scalarInt:
		return c.ints[i]
	case scalarLong:
		return c.longs[i]
	case scalarFloat:
		return c.floats[i]
	case scalarDouble:
		return c.doubles[i]
	case scalarString:
		return c.strings[i]
	case scalarBytes:
		return c.bytes[i]
	case scalarJSON:
		return json.RawMessage(c.bytes[i])
	}
	return nil
}

// accepts reports whether the column can carry values of a field declared as t.
func (c *ScalarColumn) accepts(t DataType) bool {
	switch t {
	case DataTypeBool:
		return c.kind == scalarBool
	case DataTypeInt8, DataTypeInt16, DataTypeInt32:
		return c.kind == scalarInt
	case DataTypeInt64:
		return c.kind == scalarLong
	case DataTypeFloat:
		return c.kind == scalarFloat
	case DataTypeDouble:
		return c.kind == scalarDouble
	case DataTypeString, DataTypeVarChar:
		return c.kind == scalarString
	case DataTypeJSON:
		return c.kind == scalarJSON
	}
	return false
}

// VectorColumn holds fixed-dimension vectors flattened row-major. For binary
// vectors the dimension is in bits and each row occupies dim/8 bytes.
type VectorColumn struct {
	dim    int64
	floats []float32
	binary []byte
	isBin  bool
}

// NewFloatVectorColumn wraps a flat buffer of len(data)/dim float rows.
func NewFloatVectorColumn(dim int64, data []float32) (*VectorColumn, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	if int64(len(data))%dim != 0 {
		return nil, fmt.Errorf("%w: %d floats with dimension %d", ErrInvalidVectorBufferLength, len(data), dim)
	}
	return &VectorColumn{dim: dim, floats: data}, nil
}

// NewFloatVectorColumnFromRows flattens rows that must all have the same length.
func NewFloatVectorColumnFromRows(rows [][]float32) (*VectorColumn, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidDimension)
	}
	dim := len(rows[0])
	flat := make([]float32, 0, dim*len(rows))
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
		flat = append(flat, row...)
	}
	return NewFloatVectorColumn(int64(dim), flat)
}

// NewBinaryVectorColumn wraps a flat buffer of packed bit vectors.
func NewBinaryVectorColumn(dim int64, data []byte) (*VectorColumn, error) {
	if dim <= 0 || dim%8 != 0 {
		return nil, fmt.Errorf("%w: binary dimension %d", ErrInvalidDimension, dim)
	}
	if int64(len(data))%(dim/8) != 0 {
		return nil, fmt.Errorf("%w: %d bytes with dimension %d bits", ErrInvalidVectorBufferLength, len(data), dim)
	}
	return &VectorColumn{dim: dim, binary: data, isBin: true}, nil
}

func (*VectorColumn) column() {}

func (c *VectorColumn) Dimension() int64 { return c.dim }

func (c *VectorColumn) DataType() DataType {
	if c.isBin {
		return DataTypeBinaryVector
	}
	return DataTypeFloatVector
}

// NumRows returns ceil(len/rowWidth). Constructors reject partial rows, so
// the division is exact for every column built by this package.
func (c *VectorColumn) NumRows() int {
	width, n := c.dim, int64(len(c.floats))
	if c.isBin {
		width, n = c.dim/8, int64(len(c.binary))
	}
	if width <= 0 {
		return 0
	}
	return int((n + width - 1) / width)
}

func (c *VectorColumn) FloatData() ([]float32, bool) { return c.floats, !c.isBin }
func (c *VectorColumn) BinaryData() ([]byte, bool) { return c.binary, c.isBin }

// FloatRow returns row i of a float vector column.
func (c *VectorColumn) FloatRow(i int) []float32 {
	if c.isBin || i < 0 || i >= c.NumRows() {
		return nil
	}
	start := int64(i) * c.dim
	return c.floats[start : start+c.dim]
}
