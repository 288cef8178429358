package schema

import (
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// DataType identifies the storage type of a field. The numeric values are the
// codes exchanged with the server and must never be renumbered.
type DataType int32

const (
	DataTypeNone         DataType = 0
	DataTypeBool         DataType = 1
	DataTypeInt8         DataType = 2
	DataTypeInt16        DataType = 3
	DataTypeInt32        DataType = 4
	DataTypeInt64        DataType = 5
	DataTypeFloat        DataType = 10
	DataTypeDouble       DataType = 11
	DataTypeString       DataType = 20
	DataTypeVarChar      DataType = 21
	DataTypeJSON         DataType = 23
	DataTypeBinaryVector DataType = 100
	DataTypeFloatVector  DataType = 101
)

var dataTypeNames = map[DataType]string{
	DataTypeNone:         "None",
	DataTypeBool:         "Bool",
	DataTypeInt8:         "Int8",
	DataTypeInt16:        "Int16",
	DataTypeInt32:        "Int32",
	DataTypeInt64:        "Int64",
	DataTypeFloat:        "Float",
	DataTypeDouble:       "Double",
	DataTypeString:       "String",
	DataTypeVarChar:      "VarChar",
	DataTypeJSON:         "JSON",
	DataTypeBinaryVector: "BinaryVector",
	DataTypeFloatVector:  "FloatVector",
}

// wireDataTypes is the closed mapping between the local enumeration and the
// protobuf enumeration. Anything outside it is rejected on decode.
var wireDataTypes = map[schemapb.DataType]DataType{
	schemapb.DataType_None:         DataTypeNone,
	schemapb.DataType_Bool:         DataTypeBool,
	schemapb.DataType_Int8:         DataTypeInt8,
	schemapb.DataType_Int16:        DataTypeInt16,
	schemapb.DataType_Int32:        DataTypeInt32,
	schemapb.DataType_Int64:        DataTypeInt64,
	schemapb.DataType_Float:        DataTypeFloat,
	schemapb.DataType_Double:       DataTypeDouble,
	schemapb.DataType_String:       DataTypeString,
	schemapb.DataType_VarChar:      DataTypeVarChar,
	schemapb.DataType_JSON:         DataTypeJSON,
	schemapb.DataType_BinaryVector: DataTypeBinaryVector,
	schemapb.DataType_FloatVector:  DataTypeFloatVector,
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int32(t))
}

// Valid reports whether t is one of the known codes.
func (t DataType) Valid() bool {
	_, ok := dataTypeNames[t]
	return ok
}

// IsVector reports whether t stores fixed-dimension vectors.
func (t DataType) IsVector() bool {
	return t == DataTypeFloatVector || t == DataTypeBinaryVector
}

// IsScalar reports whether t stores one value per row.
func (t DataType) IsScalar() bool {
	return t.Valid() && t != DataTypeNone && !t.IsVector()
}

// Wire returns the protobuf code for t.
func (t DataType) Wire() schemapb.DataType {
	return schemapb.DataType(t)
}

// DataTypeFromWire converts a protobuf type code into a DataType, failing with
// ErrMalformedResponse for codes this client does not know.
func DataTypeFromWire(code schemapb.DataType) (DataType, error) {
	t, ok := wireDataTypes[code]
	if !ok {
		return DataTypeNone, fmt.Errorf("%w: unknown data type code %d", ErrMalformedResponse, int32(code))
	}
	return t, nil
}
