package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puzzlebench/arc-explainer/internal/arc"
)

func TestIsValidGrid(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"valid_json_grid", nil, true}, // filled below
		{"nil", nil, false},
		{"string", "not a grid", false},
		{"number", 42.0, false},
		{"empty_array", []any{}, false},
		{"empty_rows", decodeJSONStatic(`[[]]`), false},
		{"ragged", decodeJSONStatic(`[[1,2],[3]]`), false},
		{"cell_out_of_range", decodeJSONStatic(`[[1,10]]`), false},
		{"negative_cell", decodeJSONStatic(`[[-1,0]]`), false},
		{"fractional_cell", decodeJSONStatic(`[[1.5,2]]`), false},
		{"string_cell", decodeJSONStatic(`[[1,"2"]]`), false},
		{"row_not_array", decodeJSONStatic(`[1,2]`), false},
		{"native_grid", arc.Grid{{0, 9}, {5, 3}}, true},
		{"native_ragged", arc.Grid{{0, 9}, {5}}, false},
		{"int_rows", [][]int{{1, 2}, {3, 4}}, true},
	}
	tests[0].v = decodeJSONStatic(`[[0,1,2],[3,4,5]]`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidGrid(tt.v))
		})
	}
}

func decodeJSONStatic(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

func TestCoerceGrid_JSONValues(t *testing.T) {
	v := decodeJSONStatic(`[[0,1],[8,9]]`)
	grid, ok := CoerceGrid(v)
	require.True(t, ok)
	assert.Equal(t, arc.Grid{{0, 1}, {8, 9}}, grid)
}

func TestCoerceGrid_ExactIntegerFloats(t *testing.T) {
	// encoding/json decodes every number as float64; whole values are
	// accepted, fractional ones are not.
	grid, ok := CoerceGrid([]any{[]any{float64(3), float64(7)}})
	require.True(t, ok)
	assert.Equal(t, arc.Grid{{3, 7}}, grid)

	_, ok = CoerceGrid([]any{[]any{3.5}})
	assert.False(t, ok)
}

func TestCoerceGrid_MalformedYieldsNoGrid(t *testing.T) {
	grid, ok := CoerceGrid(decodeJSONStatic(`[[1,2],[3,"x"]]`))
	assert.False(t, ok)
	assert.Nil(t, grid)
}
