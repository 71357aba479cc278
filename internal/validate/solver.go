package validate

import (
	"github.com/rotisserie/eris"

	"github.com/puzzlebench/arc-explainer/internal/arc"
)

// CaseResult holds the validation outcome for a single test case.
type CaseResult struct {
	PredictedGrid arc.Grid `json:"predicted_grid,omitempty"`
	ExpectedGrid  arc.Grid `json:"expected_grid"`
	Correct       bool     `json:"correct"`

	// Trustworthiness is the calibration-aware accuracy score in [0,1],
	// nil when no confidence was reported.
	Trustworthiness *float64 `json:"trustworthiness,omitempty"`
}

// MultiResult aggregates per-case results for a multi-test puzzle.
type MultiResult struct {
	Cases      []CaseResult `json:"cases"`
	AllCorrect bool         `json:"all_correct"`

	// AverageTrustworthiness is the mean of the per-case scores, nil
	// when no confidence was reported.
	AverageTrustworthiness *float64 `json:"average_trustworthiness,omitempty"`

	// Incomplete is set when the model returned fewer predictions than
	// the puzzle has test cases, so ingestion can distinguish a partial
	// response from a complete-but-wrong one.
	Incomplete bool `json:"incomplete"`
}

// Validate compares one predicted grid against the expected output.
// A nil or structurally invalid prediction is incorrect, never an error:
// absence of a valid grid is itself the failure signal.
func Validate(predicted arc.Grid, expected arc.Grid, confidence *int) CaseResult {
	result := CaseResult{ExpectedGrid: expected}

	if grid, ok := CoerceGrid(predicted); ok {
		result.PredictedGrid = grid
		result.Correct = grid.Equal(expected)
	}

	result.Trustworthiness = trustworthiness(result.Correct, confidence)
	return result
}

// ValidateMulti validates each prediction against the corresponding
// expected output. Confidence, when supplied, applies uniformly to every
// case; there is no per-test confidence in the data model. Missing
// trailing predictions are scored incorrect without aborting validation
// of the remaining cases. The returned error indicates a caller bug
// (nil/empty expected outputs), not a data-quality problem.
func ValidateMulti(predictions []arc.Grid, expected []arc.Grid, confidence *int) (MultiResult, error) {
	if len(expected) == 0 {
		return MultiResult{}, eris.New("validate: expected outputs required")
	}

	result := MultiResult{
		Cases:      make([]CaseResult, len(expected)),
		AllCorrect: true,
		Incomplete: len(predictions) < len(expected),
	}

	for i, exp := range expected {
		var pred arc.Grid
		if i < len(predictions) {
			pred = predictions[i]
		}
		result.Cases[i] = Validate(pred, exp, confidence)
		if !result.Cases[i].Correct {
			result.AllCorrect = false
		}
	}

	if confidence != nil {
		var sum float64
		for _, c := range result.Cases {
			if c.Trustworthiness != nil {
				sum += *c.Trustworthiness
			}
		}
		avg := sum / float64(len(result.Cases))
		result.AverageTrustworthiness = &avg
	}

	return result, nil
}

// trustworthiness computes the calibration-aware score: a correct answer
// scores confidence/100, an incorrect one scores 1-confidence/100. The
// two curves meet at 0.5 when confidence is 50, so honest uncertainty on
// a wrong answer beats overconfidence, and confident correct answers
// beat hedged ones.
func trustworthiness(correct bool, confidence *int) *float64 {
	if confidence == nil {
		return nil
	}
	c := float64(*confidence) / 100
	score := c
	if !correct {
		score = 1 - c
	}
	return &score
}
