package vdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vdb-client/v1/vectordb"
)

func TestFilterExpression(t *testing.T) {
	tests := []struct {
		name    string
		filters *vectordb.FilterSet
		want    string
	}{
		{"nil", nil, ""},
		{"empty", vectordb.NewFilterSet(), ""},
		{
			"single match",
			vectordb.NewFilterSet(vectordb.Must(vectordb.NewPayloadMatch("lang", "en"))),
			`payload["lang"] == "en"`,
		},
		{
			"column match any",
			vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("id", "a", "b"))),
			`id in ["a", "b"]`,
		},
		{
			"must and must not",
			vectordb.NewFilterSet(
				vectordb.Must(vectordb.NewPayloadMatch("published", true)),
				vectordb.MustNot(vectordb.NewPayloadMatchAny("status", "draft")),
			),
			`(payload["published"] == true) && (not (payload["status"] in ["draft"]))`,
		},
		{
			"should is grouped",
			vectordb.NewFilterSet(vectordb.Should(
				vectordb.NewPayloadMatch("year", 2020),
				vectordb.NewPayloadMatch("year", int64(2021)),
			)),
			`(payload["year"] == 2020) || (payload["year"] == 2021)`,
		},
		{
			"range",
			vectordb.NewFilterSet(vectordb.Must(vectordb.NewPayloadNumericRange("price", vectordb.NumericRange{
				Gte: vectordb.Float(1.5),
				Lt:  vectordb.Float(10),
			}))),
			`payload["price"] >= 1.5 && payload["price"] < 10`,
		},
		{
			"except",
			vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchExcept("id", "x"))),
			`id not in ["x"]`,
		},
		{
			"quotes are escaped",
			vectordb.NewFilterSet(vectordb.Must(vectordb.NewPayloadMatch(`we"ird`, `say "hi"`))),
			`payload["we\"ird"] == "say \"hi\""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterExpression(tt.filters, AdapterPayloadField)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterExpressionRejectsInvalidFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters *vectordb.FilterSet
	}{
		{"mixed kinds", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("id", "a", 1)))},
		{"empty list", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatchAny("id")))},
		{"open range", vectordb.NewFilterSet(vectordb.Must(vectordb.NewNumericRange("n", vectordb.NumericRange{})))},
		{"unsupported value", vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("n", []int{1})))},
		{"nil condition", vectordb.NewFilterSet(vectordb.Must(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FilterExpression(tt.filters, AdapterPayloadField)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.ErrorIs(t, err, vectordb.ErrInvalidFilter)
		})
	}
}
