package vdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/vdb-client/v1/vectordb"
)

// ── Filter Conversion ────────────────────────────────────────────────────────

// FilterExpression renders a FilterSet as a boolean expression. Payload
// conditions address keys of the JSON field payloadField. An empty or nil
// set yields "".
//
// Example:
//
//	expr, _ := vdb.FilterExpression(vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewPayloadMatch("lang", "en")),
//	), "payload")
//	// payload["lang"] == "en"
func FilterExpression(filters *vectordb.FilterSet, payloadField string) (string, error) {
	if filters == nil {
		return "", nil
	}
	if err := filters.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	var clauses []string
	if must := conditionExprs(filters.Must, payloadField); len(must) > 0 {
		clauses = append(clauses, must...)
	}
	if should := conditionExprs(filters.Should, payloadField); len(should) > 0 {
		clauses = append(clauses, group(should, " || "))
	}
	for _, not := range conditionExprs(filters.MustNot, payloadField) {
		clauses = append(clauses, "not ("+not+")")
	}

	switch len(clauses) {
	case 0:
		return "", nil
	case 1:
		return clauses[0], nil
	}
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = "(" + c + ")"
	}
	return strings.Join(parts, " && "), nil
}

func group(exprs []string, op string) string {
	if len(exprs) == 1 {
		return exprs[0]
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = "(" + e + ")"
	}
	return strings.Join(parts, op)
}

func conditionExprs(set *vectordb.ConditionSet, payloadField string) []string {
	if set == nil {
		return nil
	}
	out := make([]string, 0, len(set.Conditions))
	for _, cond := range set.Conditions {
		out = append(out, conditionExpr(cond, payloadField))
	}
	return out
}

// conditionExpr assumes the condition passed FilterSet.Validate.
func conditionExpr(cond vectordb.FilterCondition, payloadField string) string {
	switch c := cond.(type) {
	case *vectordb.MatchCondition:
		return fieldKey(c.Field, c.FieldType, payloadField) + " == " + literal(c.Value)
	case *vectordb.MatchAnyCondition:
		return fieldKey(c.Field, c.FieldType, payloadField) + " in " + literalList(c.Values)
	case *vectordb.MatchExceptCondition:
		return fieldKey(c.Field, c.FieldType, payloadField) + " not in " + literalList(c.Values)
	case *vectordb.NumericRangeCondition:
		return rangeExpr(fieldKey(c.Field, c.FieldType, payloadField), c.Range)
	}
	return ""
}

func rangeExpr(key string, r vectordb.NumericRange) string {
	var parts []string
	bound := func(op string, v *float64) {
		if v != nil {
			parts = append(parts, key+" "+op+" "+formatFloat(*v))
		}
	}
	bound(">", r.Gt)
	bound(">=", r.Gte)
	bound("<", r.Lt)
	bound("<=", r.Lte)
	return strings.Join(parts, " && ")
}

func fieldKey(field string, fieldType vectordb.FieldType, payloadField string) string {
	if fieldType == vectordb.PayloadField {
		return payloadField + "[" + strconv.Quote(field) + "]"
	}
	return field
}

func literal(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	}
	return fmt.Sprint(v)
}

func literalList(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = literal(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
