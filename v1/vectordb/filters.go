package vectordb

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is returned for filters that cannot be expressed, such as
// a MatchAny over values of mixed kinds.
var ErrInvalidFilter = errors.New("invalid filter")

// FieldType selects where a filtered key lives.
type FieldType int

const (
	// ColumnField is a top-level collection field such as "id".
	ColumnField FieldType = iota
	// PayloadField is a key inside the JSON payload of a record.
	PayloadField
)

// FilterCondition is implemented by every condition type. Adapters convert
// conditions into their native filter language.
type FilterCondition interface {
	IsFilterCondition()
}

// FilterSet combines condition groups: every Must condition holds, at least
// one Should condition holds, and no MustNot condition holds. Empty groups
// are ignored.
//
// Example:
//
//	filters := vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("lang", "en")),
//	    vectordb.MustNot(vectordb.NewMatchAny("status", "draft", "deleted")),
//	)
type FilterSet struct {
	Must    *ConditionSet `json:"must,omitempty"`
	Should  *ConditionSet `json:"should,omitempty"`
	MustNot *ConditionSet `json:"mustNot,omitempty"`
}

// ConditionSet holds the conditions of one clause.
type ConditionSet struct {
	Conditions []FilterCondition `json:"conditions,omitempty"`
}

// MatchCondition holds when Field equals Value. Value is a string, bool or
// number.
type MatchCondition struct {
	Field     string    `json:"field"`
	Value     any       `json:"equalTo"`
	FieldType FieldType `json:"-"`
}

func (c *MatchCondition) IsFilterCondition() {}

// MatchAnyCondition holds when Field equals one of Values.
type MatchAnyCondition struct {
	Field     string    `json:"field"`
	Values    []any     `json:"anyOf"`
	FieldType FieldType `json:"-"`
}

func (c *MatchAnyCondition) IsFilterCondition() {}

// MatchExceptCondition holds when Field equals none of Values.
type MatchExceptCondition struct {
	Field     string    `json:"field"`
	Values    []any     `json:"noneOf"`
	FieldType FieldType `json:"-"`
}

func (c *MatchExceptCondition) IsFilterCondition() {}

// NumericRange bounds a numeric field. Nil bounds are open.
type NumericRange struct {
	Gt  *float64 `json:"greaterThan,omitempty"`
	Gte *float64 `json:"greaterThanOrEqualTo,omitempty"`
	Lt  *float64 `json:"lessThan,omitempty"`
	Lte *float64 `json:"lessThanOrEqualTo,omitempty"`
}

// Empty reports whether no bound is set.
func (r NumericRange) Empty() bool {
	return r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil
}

// NumericRangeCondition holds when Field lies inside Range.
type NumericRangeCondition struct {
	Field     string       `json:"field"`
	Range     NumericRange `json:"range"`
	FieldType FieldType    `json:"-"`
}

func (c *NumericRangeCondition) IsFilterCondition() {}

// NewFilterSet builds a FilterSet from clause options.
func NewFilterSet(clauses ...func(*FilterSet)) *FilterSet {
	fs := &FilterSet{}
	for _, clause := range clauses {
		clause(fs)
	}
	return fs
}

// Must adds conditions that all have to hold.
func Must(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) { fs.Must = appendConditions(fs.Must, conditions) }
}

// Should adds conditions of which at least one has to hold.
func Should(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) { fs.Should = appendConditions(fs.Should, conditions) }
}

// MustNot adds conditions none of which may hold.
func MustNot(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) { fs.MustNot = appendConditions(fs.MustNot, conditions) }
}

func appendConditions(set *ConditionSet, conditions []FilterCondition) *ConditionSet {
	if set == nil {
		set = &ConditionSet{}
	}
	set.Conditions = append(set.Conditions, conditions...)
	return set
}

// NewMatch matches a column field against a value.
func NewMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value, FieldType: ColumnField}
}

// NewPayloadMatch matches a payload key against a value.
func NewPayloadMatch(key string, value any) *MatchCondition {
	return &MatchCondition{Field: key, Value: value, FieldType: PayloadField}
}

// NewMatchAny matches a column field against a set of values.
func NewMatchAny(field string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: field, Values: values, FieldType: ColumnField}
}

// NewPayloadMatchAny matches a payload key against a set of values.
func NewPayloadMatchAny(key string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: key, Values: values, FieldType: PayloadField}
}

// NewMatchExcept excludes a set of values of a column field.
func NewMatchExcept(field string, values ...any) *MatchExceptCondition {
	return &MatchExceptCondition{Field: field, Values: values, FieldType: ColumnField}
}

// NewPayloadMatchExcept excludes a set of values of a payload key.
func NewPayloadMatchExcept(key string, values ...any) *MatchExceptCondition {
	return &MatchExceptCondition{Field: key, Values: values, FieldType: PayloadField}
}

// NewNumericRange bounds a column field.
func NewNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r, FieldType: ColumnField}
}

// NewPayloadNumericRange bounds a numeric payload key.
func NewPayloadNumericRange(key string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: key, Range: r, FieldType: PayloadField}
}

// Float returns a pointer to v, for NumericRange literals.
func Float(v float64) *float64 { return &v }

// Validate checks every condition of the set. A nil set is valid.
func (fs *FilterSet) Validate() error {
	if fs == nil {
		return nil
	}
	for _, set := range []*ConditionSet{fs.Must, fs.Should, fs.MustNot} {
		if set == nil {
			continue
		}
		for i, cond := range set.Conditions {
			if err := validateCondition(cond); err != nil {
				return fmt.Errorf("condition %d: %w", i, err)
			}
		}
	}
	return nil
}

func validateCondition(cond FilterCondition) error {
	switch c := cond.(type) {
	case *MatchCondition:
		if c.Field == "" {
			return fmt.Errorf("%w: match without field", ErrInvalidFilter)
		}
		if valueKind(c.Value) == "" {
			return fmt.Errorf("%w: unsupported value type %T for %q", ErrInvalidFilter, c.Value, c.Field)
		}
	case *MatchAnyCondition:
		return validateValues(c.Field, c.Values)
	case *MatchExceptCondition:
		return validateValues(c.Field, c.Values)
	case *NumericRangeCondition:
		if c.Field == "" {
			return fmt.Errorf("%w: range without field", ErrInvalidFilter)
		}
		if c.Range.Empty() {
			return fmt.Errorf("%w: range on %q has no bounds", ErrInvalidFilter, c.Field)
		}
	case nil:
		return fmt.Errorf("%w: nil condition", ErrInvalidFilter)
	default:
		return fmt.Errorf("%w: unsupported condition %T", ErrInvalidFilter, cond)
	}
	return nil
}

// validateValues requires a non-empty list of values of one kind.
func validateValues(field string, values []any) error {
	if field == "" {
		return fmt.Errorf("%w: value list without field", ErrInvalidFilter)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: empty value list for %q", ErrInvalidFilter, field)
	}
	expected := valueKind(values[0])
	if expected == "" {
		return fmt.Errorf("%w: unsupported value type %T for %q", ErrInvalidFilter, values[0], field)
	}
	for i, v := range values[1:] {
		if kind := valueKind(v); kind != expected {
			return fmt.Errorf("%w: mixed values for %q: expected %s, got %T at index %d", ErrInvalidFilter, field, expected, v, i+1)
		}
	}
	return nil
}

func valueKind(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case int, int32, int64, float32, float64:
		return "numeric"
	case bool:
		return "boolean"
	}
	return ""
}
