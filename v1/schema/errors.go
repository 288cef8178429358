package schema

import (
	"errors"
	"fmt"
)

// Schema construction errors.
var (
	// ErrNoPrimaryKey is returned when a collection schema declares no primary key field.
	ErrNoPrimaryKey = errors.New("schema: collection has no primary key field")

	// ErrDuplicatePrimaryKey is matched by *DuplicatePrimaryKeyError.
	ErrDuplicatePrimaryKey = errors.New("schema: collection has more than one primary key field")

	// ErrDuplicateFieldName is matched by *DuplicateFieldNameError.
	ErrDuplicateFieldName = errors.New("schema: duplicate field name")

	// ErrEmptyCollectionName is returned when a collection schema has no name.
	ErrEmptyCollectionName = errors.New("schema: collection name is empty")

	// ErrEmptyFieldName is returned when a field has no name.
	ErrEmptyFieldName = errors.New("schema: field name is empty")

	// ErrAutoIDWithoutPrimaryKey is returned when auto id is requested on a non-primary field.
	ErrAutoIDWithoutPrimaryKey = errors.New("schema: auto id requires the field to be the primary key")

	// ErrUnsupportedPrimaryKeyType is returned when the primary key is neither Int64 nor VarChar.
	ErrUnsupportedPrimaryKeyType = errors.New("schema: primary key must be Int64 or VarChar")

	// ErrInvalidDimension is returned for a vector field without a positive dimension.
	ErrInvalidDimension = errors.New("schema: invalid vector dimension")

	// ErrInvalidMaxLength is returned for a VarChar field without a positive max length.
	ErrInvalidMaxLength = errors.New("schema: invalid max length")

	// ErrInvalidTypeParams is returned when a type parameter does not apply to the field type.
	ErrInvalidTypeParams = errors.New("schema: type parameter does not apply to data type")

	// ErrInvalidDataType is returned for a data type that cannot be used as a field type.
	ErrInvalidDataType = errors.New("schema: invalid data type")
)

// Column and binding errors.
var (
	// ErrInvalidVectorBufferLength is returned when a flat vector buffer is not a
	// whole number of rows.
	ErrInvalidVectorBufferLength = errors.New("schema: vector buffer length is not a multiple of the row width")

	// ErrDimensionMismatch is returned when a vector column disagrees with its field's dimension.
	ErrDimensionMismatch = errors.New("schema: vector dimension mismatch")

	// ErrTypeMismatch is returned when a column payload does not fit the declared field type.
	ErrTypeMismatch = errors.New("schema: column type does not match field type")

	// ErrRowCountMismatch is returned when bound columns have differing row counts.
	ErrRowCountMismatch = errors.New("schema: columns have different row counts")

	// ErrUnknownField is returned when a column names a field the schema does not have.
	ErrUnknownField = errors.New("schema: unknown field")

	// ErrMissingField is returned when a required field has no column.
	ErrMissingField = errors.New("schema: missing column for field")

	// ErrAutoIDSupplied is returned when values are supplied for an auto id primary key.
	ErrAutoIDSupplied = errors.New("schema: values supplied for auto id primary key")

	// ErrEmptyColumn is returned when field data carries no payload.
	ErrEmptyColumn = errors.New("schema: field data has no payload")
)

// ErrMalformedResponse is returned when data received from the server violates
// a structural invariant: unknown type codes, ragged result arrays, missing statuses.
var ErrMalformedResponse = errors.New("malformed response")

// DuplicatePrimaryKeyError names the first two fields that both claim to be the primary key.
type DuplicatePrimaryKeyError struct {
	First  string
	Second string
}

func (e *DuplicatePrimaryKeyError) Error() string {
	return fmt.Sprintf("%s: %q and %q", ErrDuplicatePrimaryKey.Error(), e.First, e.Second)
}

func (e *DuplicatePrimaryKeyError) Is(target error) bool {
	return target == ErrDuplicatePrimaryKey
}

// DuplicateFieldNameError names a field that appears more than once in a schema.
type DuplicateFieldNameError struct {
	Name string
}

func (e *DuplicateFieldNameError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateFieldName.Error(), e.Name)
}

func (e *DuplicateFieldNameError) Is(target error) bool {
	return target == ErrDuplicateFieldName
}

// IsMalformedResponse reports whether err was caused by an invalid server payload.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
