package vdb

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"google.golang.org/protobuf/proto"
)

const placeholderTag = "$0"

// encodePlaceholderGroup serializes query vectors into the placeholder group
// bytes carried by a search request. Float vectors are little-endian float32.
func encodePlaceholderGroup(floats [][]float32, binaries [][]byte) ([]byte, int64, error) {
	value := &commonpb.PlaceholderValue{Tag: placeholderTag}

	switch {
	case len(floats) > 0 && len(binaries) > 0:
		return nil, 0, fmt.Errorf("%w: both float and binary query vectors given", ErrInvalidArgument)
	case len(floats) > 0:
		dim := len(floats[0])
		if dim == 0 {
			return nil, 0, ErrEmptyVectors
		}
		value.Type = commonpb.PlaceholderType_FloatVector
		value.Values = make([][]byte, 0, len(floats))
		for i, vec := range floats {
			if len(vec) != dim {
				return nil, 0, fmt.Errorf("%w: query vector %d has dimension %d, want %d", ErrInvalidArgument, i, len(vec), dim)
			}
			buf := make([]byte, 4*dim)
			for j, f := range vec {
				binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(f))
			}
			value.Values = append(value.Values, buf)
		}
	case len(binaries) > 0:
		width := len(binaries[0])
		if width == 0 {
			return nil, 0, ErrEmptyVectors
		}
		value.Type = commonpb.PlaceholderType_BinaryVector
		for i, vec := range binaries {
			if len(vec) != width {
				return nil, 0, fmt.Errorf("%w: binary query vector %d has %d bytes, want %d", ErrInvalidArgument, i, len(vec), width)
			}
		}
		value.Values = binaries
	default:
		return nil, 0, ErrEmptyVectors
	}

	raw, err := proto.Marshal(&commonpb.PlaceholderGroup{Placeholders: []*commonpb.PlaceholderValue{value}})
	if err != nil {
		return nil, 0, fmt.Errorf("[VDB] failed to encode query vectors: %w", err)
	}
	return raw, int64(len(value.Values)), nil
}
