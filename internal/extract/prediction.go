package extract

import (
	"fmt"

	"github.com/puzzlebench/arc-explainer/internal/arc"
	"github.com/puzzlebench/arc-explainer/internal/validate"
)

// Method names the tier that produced a successful extraction, recorded
// so aggregate statistics can distinguish clean JSON responses from ones
// recovered out of markdown wrapping or truncated text.
type Method string

const (
	MethodObject   Method = "object"
	MethodDirect   Method = "direct"
	MethodFenced   Method = "fenced"
	MethodBalanced Method = "balanced"
	MethodNested   Method = "nested_result"
)

// Prediction is the normalized intermediate form between a raw provider
// response and validation. Confidence is kept on its raw, provider-native
// scale; normalization happens at validation time.
type Prediction struct {
	// PredictedGrid is the single-test prediction, nil when the payload
	// carried none (or only multi-test grids).
	PredictedGrid arc.Grid

	// HasMultiplePredictions and PredictionGrids carry the multi-test
	// form. They are deliberately separate fields: a payload either has
	// numbered grids or it does not, and the two are never conflated.
	HasMultiplePredictions bool
	PredictionGrids        []arc.Grid

	PatternDescription string
	SolvingStrategy    string
	Hints              []string

	RawConfidence any
	ReasoningLog  string

	Method Method
}

// HasGrid reports whether any prediction grid was extracted.
func (p *Prediction) HasGrid() bool {
	return p.PredictedGrid != nil || len(p.PredictionGrids) > 0
}

// fromPayload maps a located JSON object onto a Prediction. Grid fields
// that fail structural coercion are dropped entirely rather than kept in
// partial form.
func fromPayload(payload map[string]any, method Method) *Prediction {
	pred := &Prediction{Method: method}

	if raw, ok := payload["predictedOutput"]; ok {
		if grid, valid := validate.CoerceGrid(raw); valid {
			pred.PredictedGrid = grid
		}
	}

	// Numbered grids predictedOutput1..N, collected in order until the
	// first gap.
	for i := 1; ; i++ {
		raw, ok := payload[fmt.Sprintf("predictedOutput%d", i)]
		if !ok {
			break
		}
		grid, valid := validate.CoerceGrid(raw)
		if !valid {
			// Keep positional alignment with test cases: a malformed
			// grid at slot i is an absent prediction for case i.
			pred.PredictionGrids = append(pred.PredictionGrids, nil)
			continue
		}
		pred.PredictionGrids = append(pred.PredictionGrids, grid)
	}
	pred.HasMultiplePredictions = len(pred.PredictionGrids) > 0

	pred.PatternDescription = stringField(payload, "patternDescription")
	pred.SolvingStrategy = stringField(payload, "solvingStrategy")
	pred.ReasoningLog = stringField(payload, "reasoningLog")

	if raw, ok := payload["hints"]; ok {
		if items, isList := raw.([]any); isList {
			for _, item := range items {
				if s, isString := item.(string); isString {
					pred.Hints = append(pred.Hints, s)
				}
			}
		}
	}

	if raw, ok := payload["confidence"]; ok {
		pred.RawConfidence = raw
	}

	return pred
}

func stringField(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}
