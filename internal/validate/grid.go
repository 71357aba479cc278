package validate

import (
	"math"

	"github.com/puzzlebench/arc-explainer/internal/arc"
)

// IsValidGrid reports whether v is a well-formed prediction grid: a
// non-empty array of equal-length rows whose cells are integers 0-9.
// It accepts both arc.Grid values and the []any shapes produced by
// decoding provider JSON. Structural mismatches of any kind return
// false; this function never panics.
func IsValidGrid(v any) bool {
	_, ok := CoerceGrid(v)
	return ok
}

// CoerceGrid converts a JSON-decoded value into an arc.Grid. It returns
// ok=false for anything that is not a rectangular 2D array of integers
// in [0,9]. A malformed candidate yields no grid at all, never a
// partially populated one.
func CoerceGrid(v any) (arc.Grid, bool) {
	switch rows := v.(type) {
	case arc.Grid:
		if coerced, ok := coerceIntRows(rows); ok {
			return coerced, true
		}
		return nil, false
	case [][]int:
		return coerceIntRows(rows)
	case []any:
		return coerceAnyRows(rows)
	default:
		return nil, false
	}
}

func coerceIntRows(rows [][]int) (arc.Grid, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	width := len(rows[0])
	if width == 0 {
		return nil, false
	}
	out := make(arc.Grid, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, false
		}
		out[i] = make([]int, width)
		for j, cell := range row {
			if cell < 0 || cell > 9 {
				return nil, false
			}
			out[i][j] = cell
		}
	}
	return out, true
}

func coerceAnyRows(rows []any) (arc.Grid, bool) {
	if len(rows) == 0 {
		return nil, false
	}
	out := make(arc.Grid, len(rows))
	width := -1
	for i, rowVal := range rows {
		row, ok := rowVal.([]any)
		if !ok {
			return nil, false
		}
		if width == -1 {
			width = len(row)
			if width == 0 {
				return nil, false
			}
		} else if len(row) != width {
			return nil, false
		}
		out[i] = make([]int, width)
		for j, cellVal := range row {
			cell, ok := coerceCell(cellVal)
			if !ok {
				return nil, false
			}
			out[i][j] = cell
		}
	}
	return out, true
}

// coerceCell accepts the numeric types encoding/json produces. A float
// is only accepted when it is an exact integer in range.
func coerceCell(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		i := int(n)
		if i < 0 || i > 9 {
			return 0, false
		}
		return i, true
	case int:
		if n < 0 || n > 9 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
