package internal

import (
	"encoding/json"
	"testing"

	"github.com/lychee-technology/chartpreset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustColumnTypes(t *testing.T, data string) *chartpreset.ColumnTypes {
	t.Helper()
	var ct chartpreset.ColumnTypes
	require.NoError(t, json.Unmarshal([]byte(data), &ct))
	return &ct
}

func mustFilter(t *testing.T, data string) *chartpreset.ColumnFilter {
	t.Helper()
	if data == "null" {
		return nil
	}
	var f chartpreset.ColumnFilter
	require.NoError(t, json.Unmarshal([]byte(data), &f))
	return &f
}

const carsColumns = `{
	"name":   {"type": "nominal", "unique": 300},
	"mpg":    {"type": "quantitative", "unique": 120},
	"origin": {"type": "nominal", "unique": 3},
	"year":   {"type": "temporal", "unique": 12},
	"hp":     {"type": "quantitative"}
}`

func TestMatchColumn(t *testing.T) {
	columns := mustColumnTypes(t, carsColumns)

	tests := []struct {
		name    string
		filter  string
		claimed []string
		want    string
		wantOK  bool
	}{
		{name: "nil filter matches nothing", filter: "null"},
		{name: "first column of type", filter: `{"type": ["quantitative"]}`, want: "mpg", wantOK: true},
		{name: "type list is a set", filter: `{"type": ["temporal", "nominal"]}`, want: "name", wantOK: true},
		{name: "skips claimed", filter: `{"type": ["quantitative"]}`, claimed: []string{"mpg"}, want: "hp", wantOK: true},
		{name: "all candidates claimed", filter: `{"type": ["quantitative"]}`, claimed: []string{"mpg", "hp"}},
		{name: "max unique ceiling", filter: `{"type": ["nominal"], "maxUnique": 20}`, want: "origin", wantOK: true},
		{name: "max unique is inclusive", filter: `{"type": ["nominal"], "maxUnique": 3}`, want: "origin", wantOK: true},
		{name: "missing unique counts as zero", filter: `{"type": ["quantitative"], "maxUnique": 10}`, want: "hp", wantOK: true},
		{name: "max unique zero is no ceiling", filter: `{"type": ["nominal"], "maxUnique": 0}`, want: "name", wantOK: true},
		{name: "no type constraint", filter: `{"maxUnique": 5}`, want: "origin", wantOK: true},
		{name: "empty filter matches first column", filter: `{}`, want: "name", wantOK: true},
		{name: "empty type list admits nothing", filter: `{"type": []}`},
		{name: "no candidate of type", filter: `{"type": ["ordinal"]}`},
		{name: "wildcard fallback", filter: `{"type": ["ordinal", null]}`, want: "name", wantOK: true},
		{name: "wildcard fallback ignores max unique", filter: `{"type": [null], "maxUnique": 1}`, claimed: []string{"name"}, want: "mpg", wantOK: true},
		{name: "wildcard unused when candidates exist", filter: `{"type": ["temporal", null]}`, want: "year", wantOK: true},
		{name: "wildcard respects claimed", filter: `{"type": ["temporal", null]}`, claimed: []string{"year"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchColumn(mustFilter(t, tt.filter), columns, NewSetOf(tt.claimed...))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchColumn_EmptyColumns(t *testing.T) {
	got, ok := MatchColumn(mustFilter(t, `{"type": [null]}`), chartpreset.NewColumnTypes(), NewSet[string]())
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestMatchColumn_NilClaimed(t *testing.T) {
	columns := mustColumnTypes(t, carsColumns)
	got, ok := MatchColumn(mustFilter(t, `{"type": ["temporal"]}`), columns, nil)
	assert.True(t, ok)
	assert.Equal(t, "year", got)
}
