package schema

import (
	"encoding/json"
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// BindColumns checks columns against the schema and encodes them for an
// insert. The result follows schema field order, carries field ids
// and declared types, and is returned together with the common row count.
//
// Every non auto id field must be supplied exactly once. Values for an auto id
// primary key are rejected. When the schema enables dynamic fields, columns
// named after no declared field are folded into the hidden DynamicFieldName
// JSON column, one object per row. A JSON column named DynamicFieldName may
// seed those objects.
func (c *CollectionSchema) BindColumns(columns ...*FieldData) ([]*schemapb.FieldData, uint32, error) {
	return c.bind(false, columns)
}

// BindUpsertColumns is BindColumns for upserts: the primary key must always
// be supplied, auto id or not, since it selects the rows to replace.
func (c *CollectionSchema) BindUpsertColumns(columns ...*FieldData) ([]*schemapb.FieldData, uint32, error) {
	return c.bind(true, columns)
}

func (c *CollectionSchema) bind(upsert bool, columns []*FieldData) ([]*schemapb.FieldData, uint32, error) {
	byName := make(map[string]*FieldData, len(columns))
	var dynamic []*FieldData
	for _, col := range columns {
		if col == nil {
			continue
		}
		if _, dup := byName[col.name]; dup {
			return nil, 0, &DuplicateFieldNameError{Name: col.name}
		}
		f, ok := c.Field(col.name)
		if !ok {
			if !c.enableDynamicField {
				return nil, 0, fmt.Errorf("%w: %q in collection %q", ErrUnknownField, col.name, c.name)
			}
			if err := checkDynamicColumn(col); err != nil {
				return nil, 0, err
			}
			byName[col.name] = col
			dynamic = append(dynamic, col)
			continue
		}
		if f.autoID && !upsert {
			return nil, 0, fmt.Errorf("%w: %q", ErrAutoIDSupplied, f.name)
		}
		if err := checkColumn(f, col); err != nil {
			return nil, 0, err
		}
		byName[col.name] = col
	}

	rows := -1
	out := make([]*schemapb.FieldData, 0, len(byName))
	for _, f := range c.fields {
		col, ok := byName[f.name]
		if !ok {
			if f.autoID && !upsert {
				continue
			}
			return nil, 0, fmt.Errorf("%w: %q", ErrMissingField, f.name)
		}

		n := col.NumRows()
		if rows == -1 {
			rows = n
		} else if n != rows {
			return nil, 0, fmt.Errorf("%w: %q has %d rows, expected %d", ErrRowCountMismatch, f.name, n, rows)
		}

		pb := (&FieldData{name: f.name, id: f.id, dataType: f.dataType, payload: col.payload}).ToWire()
		out = append(out, pb)
	}
	for _, col := range dynamic {
		if rows == -1 {
			rows = col.NumRows()
		} else if n := col.NumRows(); n != rows {
			return nil, 0, fmt.Errorf("%w: %q has %d rows, expected %d", ErrRowCountMismatch, col.name, n, rows)
		}
	}
	if rows < 0 {
		rows = 0
	}
	if len(dynamic) > 0 {
		meta, err := dynamicColumn(dynamic, rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, meta)
	}
	return out, uint32(rows), nil
}

func checkDynamicColumn(col *FieldData) error {
	p, ok := col.payload.(*ScalarColumn)
	switch {
	case col.payload == nil:
		return fmt.Errorf("%w: %q", ErrEmptyColumn, col.name)
	case !ok:
		return fmt.Errorf("%w: dynamic field %q cannot hold vectors", ErrTypeMismatch, col.name)
	case col.name == DynamicFieldName && p.kind != scalarJSON:
		return fmt.Errorf("%w: %q must be a JSON column, got %s", ErrTypeMismatch, col.name, p.DataType())
	case p.kind == scalarEmpty:
		return fmt.Errorf("%w: %q", ErrEmptyColumn, col.name)
	}
	return nil
}

// dynamicColumn merges the undeclared columns into one JSON object per row.
// Named columns win over keys of a supplied DynamicFieldName document.
func dynamicColumn(columns []*FieldData, rows int) (*schemapb.FieldData, error) {
	docs := make([][]byte, rows)
	for i := 0; i < rows; i++ {
		obj := map[string]any{}
		for _, col := range columns {
			if col.name != DynamicFieldName {
				continue
			}
			raw, _ := col.payload.(*ScalarColumn).JSONDocs()
			if err := json.Unmarshal(raw[i], &obj); err != nil || obj == nil {
				return nil, fmt.Errorf("%w: row %d of %q is not a JSON object", ErrTypeMismatch, i, col.name)
			}
		}
		for _, col := range columns {
			if col.name == DynamicFieldName {
				continue
			}
			obj[col.name] = col.payload.(*ScalarColumn).value(i)
		}
		doc, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d of %q: %v", ErrTypeMismatch, i, DynamicFieldName, err)
		}
		docs[i] = doc
	}
	pb := NewFieldData(DynamicFieldName, DataTypeJSON, NewJSONColumn(docs)).ToWire()
	pb.IsDynamic = true
	return pb, nil
}

func checkColumn(f *FieldSchema, col *FieldData) error {
	switch p := col.payload.(type) {
	case nil:
		return fmt.Errorf("%w: %q", ErrEmptyColumn, col.name)
	case *ScalarColumn:
		if !p.accepts(f.dataType) {
			return fmt.Errorf("%w: field %q is %s, column holds %s", ErrTypeMismatch, f.name, f.dataType, p.DataType())
		}
	case *VectorColumn:
		if p.DataType() != f.dataType {
			return fmt.Errorf("%w: field %q is %s, column holds %s", ErrTypeMismatch, f.name, f.dataType, p.DataType())
		}
		if p.dim != f.dimension {
			return fmt.Errorf("%w: field %q has dimension %d, column has %d", ErrDimensionMismatch, f.name, f.dimension, p.dim)
		}
	}
	return nil
}
