package validate

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeConfidence maps a raw model-reported confidence value onto the
// canonical 0-100 integer scale. Providers disagree on representation:
// some emit a 0-1 fraction, some a 0-100 percentage, some a string with
// or without a trailing "%". Returns nil when no value is present or the
// value cannot be parsed as a number.
//
// The value 1 is genuinely ambiguous between "100%" and "1%". The
// fractional branch wins (1 normalizes to 100) because the provider
// family that emits exact 1.0 uses the 0-1 scale exclusively. This
// tie-break is load-bearing for historical data and must not change.
//
// Values <= 0 or > 100 are rounded and passed through unclamped; see
// DESIGN.md for the open policy question on clamping.
func NormalizeConfidence(raw any) *int {
	var v float64
	switch val := raw.(type) {
	case nil:
		return nil
	case float64:
		v = val
	case float32:
		v = float64(val)
	case int:
		v = float64(val)
	case int64:
		v = float64(val)
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}

	var normalized int
	switch {
	case v > 0 && v <= 1:
		// Fractional-probability representation.
		normalized = int(math.Round(v * 100))
	case v > 1 && v <= 100:
		normalized = int(math.Round(v))
	default:
		normalized = int(math.Round(v))
	}
	return &normalized
}
