package schema

import (
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// IDs is a list of primary key values. Exactly one of Int and Str is used,
// matching the primary key type of the collection.
type IDs struct {
	Int []int64
	Str []string
}

// NewIntIDs wraps Int64 primary keys.
func NewIntIDs(ids ...int64) *IDs { return &IDs{Int: ids} }

// NewStrIDs wraps VarChar primary keys.
func NewStrIDs(ids ...string) *IDs {
	if ids == nil {
		ids = []string{}
	}
	return &IDs{Str: ids}
}

// Len returns the number of ids.
func (ids *IDs) Len() int {
	if ids == nil {
		return 0
	}
	if ids.Str != nil {
		return len(ids.Str)
	}
	return len(ids.Int)
}

// IsString reports whether the ids are VarChar keys.
func (ids *IDs) IsString() bool {
	return ids != nil && ids.Str != nil
}

// At returns id i as an int64 or string.
func (ids *IDs) At(i int) any {
	if ids.IsString() {
		return ids.Str[i]
	}
	return ids.Int[i]
}

// ToWire encodes the ids.
func (ids *IDs) ToWire() *schemapb.IDs {
	if ids.IsString() {
		return &schemapb.IDs{IdField: &schemapb.IDs_StrId{StrId: &schemapb.StringArray{Data: ids.Str}}}
	}
	return &schemapb.IDs{IdField: &schemapb.IDs_IntId{IntId: &schemapb.LongArray{Data: ids.Int}}}
}

// IDsFromWire decodes ids. A nil message or one without a populated list
// decodes to nil.
func IDsFromWire(pb *schemapb.IDs) (*IDs, error) {
	switch v := pb.GetIdField().(type) {
	case *schemapb.IDs_IntId:
		data := v.IntId.GetData()
		if data == nil {
			data = []int64{}
		}
		return &IDs{Int: data}, nil
	case *schemapb.IDs_StrId:
		data := v.StrId.GetData()
		if data == nil {
			data = []string{}
		}
		return &IDs{Str: data}, nil
	case nil:
		return nil, nil
	}
	return nil, malformed("unsupported id payload %T", pb.GetIdField())
}
