package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  JSONType
	}{
		{"nil", nil, JSONNull},
		{"bool", true, JSONBoolean},
		{"json number", json.Number("1.5"), JSONNumber},
		{"float", 2.0, JSONNumber},
		{"int", 3, JSONNumber},
		{"string", "x", JSONString},
		{"array", []any{1}, JSONArray},
		{"object", map[string]any{}, JSONObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyValue(tt.value))
		})
	}
}

func TestJSONType_TextRoundTrip(t *testing.T) {
	for _, kind := range AllJSONTypes {
		text, err := kind.MarshalText()
		require.NoError(t, err)

		var parsed JSONType
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, kind, parsed)
	}

	var bad JSONType
	assert.Error(t, bad.UnmarshalText([]byte("decimal")))
}

func TestFieldStats_Record(t *testing.T) {
	s := NewFieldStats("a", 1)
	s.Record("x")
	s.Record(nil)
	s.Record(json.Number("1"))

	assert.Equal(t, uint64(3), s.Occurrences)
	assert.Equal(t, uint64(1), s.NullCount)
	assert.Equal(t, s.Occurrences, s.TotalTyped())
	assert.Equal(t, uint64(1), s.Types[JSONString])
	assert.Equal(t, uint64(1), s.Types[JSONNull])
	assert.Equal(t, uint64(1), s.Types[JSONNumber])
	assert.Equal(t, []any{"x", nil, json.Number("1")}, s.Examples)
}

func TestFieldStats_ExamplesBounded(t *testing.T) {
	s := NewFieldStats("a", 1)
	for i := 0; i < 25; i++ {
		s.Record(i)
	}

	assert.Len(t, s.Examples, MaxExamples)
	assert.Equal(t, 0, s.Examples[0])
	assert.Equal(t, 9, s.Examples[9])
}

func TestFieldStats_Finalize(t *testing.T) {
	s := NewFieldStats("a", 1)
	s.Record("x")
	s.Record("y")

	s.Finalize(4)
	assert.Equal(t, uint64(4), s.TotalSamples)
	assert.InDelta(t, 0.5, s.Density, 1e-9)

	s.Finalize(0)
	assert.Equal(t, 0.0, s.Density)
}

func TestFieldStats_DominantType(t *testing.T) {
	s := NewFieldStats("a", 1)
	_, ok := s.DominantType()
	assert.False(t, ok)

	s.Record("x")
	s.Record(json.Number("1"))
	s.Record(json.Number("2"))
	kind, ok := s.DominantType()
	require.True(t, ok)
	assert.Equal(t, JSONNumber, kind)

	// A tie goes to the later kind.
	s.Record("y")
	kind, _ = s.DominantType()
	assert.Equal(t, JSONString, kind)
}

func TestFieldStats_JSONEncoding(t *testing.T) {
	s := NewFieldStats("profile.age", 2)
	s.Record(json.Number("30"))
	s.Finalize(1)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"types":{"number":1}`)
	assert.Contains(t, string(b), `"total_samples":1`)
}

func TestStats_SortedPaths(t *testing.T) {
	stats := Stats{
		"b":   NewFieldStats("b", 1),
		"a.c": NewFieldStats("a.c", 2),
		"a":   NewFieldStats("a", 1),
	}

	assert.Equal(t, []string{"a", "a.c", "b"}, stats.SortedPaths())

	sorted := stats.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, "a", sorted[0].Path)
}

func TestParseTableName(t *testing.T) {
	schema, table := ParseTableName("users")
	assert.Equal(t, "public", schema)
	assert.Equal(t, "users", table)

	schema, table = ParseTableName("app.events")
	assert.Equal(t, "app", schema)
	assert.Equal(t, "events", table)

	target := NewTarget("app.events", "payload")
	assert.Equal(t, "app.events.payload", target.FullName())
}
