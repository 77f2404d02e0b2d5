package internal

import (
	"testing"

	"github.com/lychee-technology/chartpreset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findColumnsOf(t *testing.T, preset string) chartpreset.FindColumnsSpec {
	t.Helper()
	spec, err := chartpreset.MustParsePreset(preset).FindColumns()
	require.NoError(t, err)
	return spec
}

func TestResolveColumns_EmptySpec(t *testing.T) {
	columns := mustColumnTypes(t, carsColumns)

	resolved := ResolveColumns(nil, columns)
	assert.Equal(t, 0, resolved.Len())

	resolved = ResolveColumns(findColumnsOf(t, `{"mark": "point"}`), columns)
	assert.Equal(t, 0, resolved.Len())
}

func TestResolveColumns_NoReuse(t *testing.T) {
	columns := mustColumnTypes(t, `{
		"a": {"type": "quantitative"},
		"b": {"type": "quantitative"}
	}`)
	spec := findColumnsOf(t, `{"findColumns": {
		"x": {"type": ["quantitative"]},
		"y": {"type": ["quantitative"]},
		"z": {"type": ["quantitative"]}
	}}`)

	resolved := ResolveColumns(spec, columns)

	assert.Equal(t, []string{"x", "y"}, resolved.Variables())
	assert.Equal(t, []string{"a", "b"}, resolved.Columns())
	_, ok := resolved.Get("z")
	assert.False(t, ok, "z has no unclaimed column left")
}

func TestResolveColumns_OrderSensitive(t *testing.T) {
	columns := mustColumnTypes(t, `{
		"origin": {"type": "nominal", "unique": 3},
		"name":   {"type": "nominal", "unique": 300}
	}`)

	t.Run("broad filter first claims the low-cardinality column", func(t *testing.T) {
		spec := findColumnsOf(t, `{"findColumns": {
			"label": {"type": ["nominal"]},
			"color": {"type": ["nominal"], "maxUnique": 10}
		}}`)
		resolved := ResolveColumns(spec, columns)

		label, _ := resolved.Get("label")
		assert.Equal(t, "origin", label)
		_, ok := resolved.Get("color")
		assert.False(t, ok)
	})

	t.Run("narrow filter first leaves the other column for the broad one", func(t *testing.T) {
		spec := findColumnsOf(t, `{"findColumns": {
			"color": {"type": ["nominal"], "maxUnique": 10},
			"label": {"type": ["nominal"]}
		}}`)
		resolved := ResolveColumns(spec, columns)

		assert.Equal(t, map[string]string{"color": "origin", "label": "name"}, resolved.Map())
		assert.Equal(t, []string{"color", "label"}, resolved.Variables())
	})
}

func TestResolveColumns_NullFilterSkipped(t *testing.T) {
	columns := mustColumnTypes(t, carsColumns)
	spec := findColumnsOf(t, `{"findColumns": {
		"ignored": null,
		"x": {"type": ["quantitative"]}
	}}`)

	resolved := ResolveColumns(spec, columns)
	assert.Equal(t, map[string]string{"x": "mpg"}, resolved.Map())
}

func TestResolveColumns_WildcardAfterClaims(t *testing.T) {
	columns := mustColumnTypes(t, `{
		"t": {"type": "temporal"},
		"q": {"type": "quantitative"}
	}`)
	spec := findColumnsOf(t, `{"findColumns": {
		"x": {"type": ["temporal"]},
		"y": {"type": ["ordinal", null]}
	}}`)

	resolved := ResolveColumns(spec, columns)
	assert.Equal(t, map[string]string{"x": "t", "y": "q"}, resolved.Map())
}
