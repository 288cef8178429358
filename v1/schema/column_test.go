package schema

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestScalarColumnVariants(t *testing.T) {
	tests := []struct {
		name string
		col  *ScalarColumn
		dt   DataType
		rows int
	}{
		{"bool", NewScalarColumn([]bool{true, false}), DataTypeBool, 2},
		{"int32", NewScalarColumn([]int32{1, 2, 3}), DataTypeInt32, 3},
		{"int64", NewScalarColumn([]int64{7}), DataTypeInt64, 1},
		{"float", NewScalarColumn([]float32{1.5, 2.5}), DataTypeFloat, 2},
		{"double", NewScalarColumn([]float64{}), DataTypeDouble, 0},
		{"string", NewScalarColumn([]string{"a", "b", "c", "d"}), DataTypeString, 4},
		{"bytes", NewScalarColumn([][]byte{{1}, {2}}), DataTypeBinaryVector, 2},
		{"json", NewJSONColumn([][]byte{[]byte(`{"a":1}`)}), DataTypeJSON, 1},
		{"empty", &ScalarColumn{}, DataTypeNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dt, tt.col.DataType())
			assert.Equal(t, tt.rows, tt.col.NumRows())
		})
	}
}

// viaWire encodes fd to bytes and decodes it back.
func viaWire(t *testing.T, fd *FieldData) *FieldData {
	t.Helper()
	raw, err := proto.Marshal(fd.ToWire())
	require.NoError(t, err)
	pb := &schemapb.FieldData{}
	require.NoError(t, proto.Unmarshal(raw, pb))
	back, err := FieldDataFromWire(pb)
	require.NoError(t, err)
	assert.Equal(t, fd.Name(), back.Name())
	assert.Equal(t, fd.DataType(), back.DataType())
	return back
}

func sameRows[T any](t *testing.T, want, got []T, ok bool) {
	t.Helper()
	require.True(t, ok)
	if len(want) == 0 {
		assert.Empty(t, got)
		return
	}
	assert.Equal(t, want, got)
}

func TestColumnWireRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	randBytes := func() []byte {
		b := make([]byte, 1+rng.Intn(8))
		rng.Read(b)
		return b
	}

	for _, n := range []int{0, 1, 17, 1000} {
		bools := make([]bool, n)
		ints := make([]int32, n)
		longs := make([]int64, n)
		floats := make([]float32, n)
		doubles := make([]float64, n)
		strs := make([]string, n)
		blobs := make([][]byte, n)
		docs := make([][]byte, n)
		vecs := make([]float32, 4*n)
		bins := make([]byte, 2*n)
		for i := 0; i < n; i++ {
			bools[i] = rng.Intn(2) == 1
			ints[i] = rng.Int31()
			longs[i] = rng.Int63()
			floats[i] = rng.Float32()
			doubles[i] = rng.Float64()
			strs[i] = string(rune('a' + rng.Intn(26)))
			blobs[i] = randBytes()
			docs[i] = []byte(fmt.Sprintf(`{"n":%d}`, rng.Intn(100)))
		}
		for i := range vecs {
			vecs[i] = rng.Float32()
		}
		rng.Read(bins)

		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			col, _ := viaWire(t, NewFieldData("b", DataTypeBool, NewScalarColumn(bools))).Scalars()
			got, ok := col.Bools()
			sameRows(t, bools, got, ok)

			col, _ = viaWire(t, NewFieldData("i", DataTypeInt16, NewScalarColumn(ints))).Scalars()
			gotInts, ok := col.Ints()
			sameRows(t, ints, gotInts, ok)

			col, _ = viaWire(t, NewFieldData("l", DataTypeInt64, NewScalarColumn(longs))).Scalars()
			gotLongs, ok := col.Longs()
			sameRows(t, longs, gotLongs, ok)

			col, _ = viaWire(t, NewFieldData("f", DataTypeFloat, NewScalarColumn(floats))).Scalars()
			gotFloats, ok := col.Floats()
			sameRows(t, floats, gotFloats, ok)

			col, _ = viaWire(t, NewFieldData("d", DataTypeDouble, NewScalarColumn(doubles))).Scalars()
			gotDoubles, ok := col.Doubles()
			sameRows(t, doubles, gotDoubles, ok)

			col, _ = viaWire(t, NewFieldData("s", DataTypeVarChar, NewScalarColumn(strs))).Scalars()
			gotStrs, ok := col.Strings()
			sameRows(t, strs, gotStrs, ok)

			col, _ = viaWire(t, NewFieldData("raw", DataTypeBinaryVector, NewScalarColumn(blobs))).Scalars()
			gotBlobs, ok := col.Bytes()
			sameRows(t, blobs, gotBlobs, ok)

			col, _ = viaWire(t, NewFieldData("meta", DataTypeJSON, NewJSONColumn(docs))).Scalars()
			gotDocs, ok := col.JSONDocs()
			sameRows(t, docs, gotDocs, ok)

			fv, err := NewFloatVectorColumn(4, vecs)
			require.NoError(t, err)
			vec, _ := viaWire(t, NewFieldData("v", DataTypeFloatVector, fv)).Vectors()
			gotVecs, ok := vec.FloatData()
			sameRows(t, vecs, gotVecs, ok)
			assert.Equal(t, n, vec.NumRows())

			bv, err := NewBinaryVectorColumn(16, bins)
			require.NoError(t, err)
			vec, _ = viaWire(t, NewFieldData("bv", DataTypeBinaryVector, bv)).Vectors()
			gotBins, ok := vec.BinaryData()
			sameRows(t, bins, gotBins, ok)
			assert.Equal(t, n, vec.NumRows())
		})
	}
}

func TestVectorColumnRows(t *testing.T) {
	col, err := NewFloatVectorColumn(128, make([]float32, 256))
	require.NoError(t, err)
	assert.Equal(t, 2, col.NumRows())
	assert.Equal(t, DataTypeFloatVector, col.DataType())

	empty, err := NewFloatVectorColumn(4, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumRows())

	bin, err := NewBinaryVectorColumn(16, make([]byte, 6))
	require.NoError(t, err)
	assert.Equal(t, 3, bin.NumRows())
	assert.Equal(t, DataTypeBinaryVector, bin.DataType())
}

func TestVectorColumnRejectsPartialRows(t *testing.T) {
	_, err := NewFloatVectorColumn(128, make([]float32, 130))
	assert.ErrorIs(t, err, ErrInvalidVectorBufferLength)

	_, err = NewBinaryVectorColumn(16, make([]byte, 3))
	assert.ErrorIs(t, err, ErrInvalidVectorBufferLength)

	_, err = NewFloatVectorColumn(0, nil)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = NewFloatVectorColumnFromRows([][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestVectorFieldDataWireRoundTrip(t *testing.T) {
	col, err := NewFloatVectorColumnFromRows([][]float32{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	fd := NewFieldData("embedding", DataTypeFloatVector, col)
	pb := fd.ToWire()
	assert.Equal(t, int64(3), pb.GetVectors().GetDim())

	back, err := FieldDataFromWire(pb)
	require.NoError(t, err)
	vec, ok := back.Vectors()
	require.True(t, ok)
	assert.Equal(t, 2, vec.NumRows())
	assert.Equal(t, []float32{4, 5, 6}, vec.FloatRow(1))
	assert.Nil(t, vec.FloatRow(2))
}

func TestFieldDataFromWireMalformed(t *testing.T) {
	t.Run("partial vector row", func(t *testing.T) {
		pb := &schemapb.FieldData{
			Type:      schemapb.DataType_FloatVector,
			FieldName: "v",
			Field: &schemapb.FieldData_Vectors{Vectors: &schemapb.VectorField{
				Dim:  4,
				Data: &schemapb.VectorField_FloatVector{FloatVector: &schemapb.FloatArray{Data: make([]float32, 6)}},
			}},
		}
		_, err := FieldDataFromWire(pb)
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.ErrorIs(t, err, ErrInvalidVectorBufferLength)
	})

	t.Run("unknown type code", func(t *testing.T) {
		_, err := FieldDataFromWire(&schemapb.FieldData{Type: schemapb.DataType(77), FieldName: "x"})
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("payload does not match declared type", func(t *testing.T) {
		for name, pb := range map[string]*schemapb.FieldData{
			"strings as float vector": {
				Type:      schemapb.DataType_FloatVector,
				FieldName: "v",
				Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
					Data: &schemapb.ScalarField_StringData{StringData: &schemapb.StringArray{Data: []string{"a"}}},
				}},
			},
			"longs as varchar": {
				Type:      schemapb.DataType_VarChar,
				FieldName: "title",
				Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
					Data: &schemapb.ScalarField_LongData{LongData: &schemapb.LongArray{Data: []int64{1}}},
				}},
			},
			"binary vector as float vector": NewFieldData("v", DataTypeFloatVector, mustBinaryVector(t)).ToWire(),
		} {
			t.Run(name, func(t *testing.T) {
				_, err := FieldDataFromWire(pb)
				assert.ErrorIs(t, err, ErrMalformedResponse)
			})
		}
	})

	t.Run("empty scalar payload", func(t *testing.T) {
		fd, err := FieldDataFromWire(&schemapb.FieldData{
			Type:      schemapb.DataType_Int64,
			FieldName: "x",
			Field:     &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{}},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, fd.NumRows())
	})

	t.Run("absent payload", func(t *testing.T) {
		fd, err := FieldDataFromWire(&schemapb.FieldData{Type: schemapb.DataType_Int64, FieldName: "x"})
		require.NoError(t, err)
		assert.Nil(t, fd.Column())
		assert.Equal(t, 0, fd.NumRows())
	})
}

func mustBinaryVector(t *testing.T) *VectorColumn {
	t.Helper()
	col, err := NewBinaryVectorColumn(8, []byte{0xff})
	require.NoError(t, err)
	return col
}

func TestIDsWire(t *testing.T) {
	ids, err := IDsFromWire(NewIntIDs(1, 2, 3).ToWire())
	require.NoError(t, err)
	assert.Equal(t, 3, ids.Len())
	assert.False(t, ids.IsString())
	assert.Equal(t, int64(2), ids.At(1))

	strs, err := IDsFromWire(NewStrIDs("a").ToWire())
	require.NoError(t, err)
	assert.True(t, strs.IsString())
	assert.Equal(t, "a", strs.At(0))

	none, err := IDsFromWire(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
}
