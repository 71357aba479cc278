// Package explain shapes a validated solver response into the row
// format the persistence layer stores.
package explain

import (
	"time"

	"github.com/google/uuid"

	"github.com/puzzlebench/arc-explainer/internal/arc"
	"github.com/puzzlebench/arc-explainer/internal/extract"
	"github.com/puzzlebench/arc-explainer/internal/model"
	"github.com/puzzlebench/arc-explainer/internal/validate"
)

// Usage carries token counters and the estimated cost of one provider
// call, already converted from the provider client's native type.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Meta carries provider-side metadata attached to the stored record.
type Meta struct {
	Provider   string
	ModelName  string
	ResponseID string
	Raw        string
}

// Build assembles the Explanation record for a completed analysis.
// prediction is nil when extraction failed; the record is still created
// with correctness false and method "none", because an unusable response
// is a reportable outcome, not an error.
func Build(task *arc.Task, prediction *extract.Prediction, usage Usage, meta Meta) model.Explanation {
	exp := model.Explanation{
		ID:               uuid.New().String(),
		PuzzleID:         task.ID,
		Provider:         meta.Provider,
		ModelName:        meta.ModelName,
		ExtractionMethod: "none",
		InputTokens:      usage.InputTokens,
		OutputTokens:     usage.OutputTokens,
		EstimatedCostUSD: usage.CostUSD,
		ProviderResponseID: meta.ResponseID,
		RawResponse:        meta.Raw,
		CreatedAt:          time.Now().UTC(),
	}

	var confidence *int
	if prediction != nil {
		exp.ExtractionMethod = string(prediction.Method)
		exp.PatternDescription = prediction.PatternDescription
		exp.SolvingStrategy = prediction.SolvingStrategy
		exp.Hints = prediction.Hints
		confidence = validate.NormalizeConfidence(prediction.RawConfidence)
		exp.Confidence = confidence
	}

	if task.HasMultipleTests() {
		applyMulti(&exp, task, prediction, confidence)
	} else {
		applySingle(&exp, task, prediction, confidence)
	}

	return exp
}

func applySingle(exp *model.Explanation, task *arc.Task, prediction *extract.Prediction, confidence *int) {
	var grid arc.Grid
	if prediction != nil {
		grid = prediction.PredictedGrid
		// A response that only carried numbered grids still answers a
		// single-test puzzle with its first grid.
		if grid == nil && len(prediction.PredictionGrids) > 0 {
			grid = prediction.PredictionGrids[0]
		}
	}

	result := validate.Validate(grid, task.Test[0].Output, confidence)
	exp.PredictedGrid = result.PredictedGrid
	exp.IsPredictionCorrect = &result.Correct
	exp.Trustworthiness = result.Trustworthiness
}

func applyMulti(exp *model.Explanation, task *arc.Task, prediction *extract.Prediction, confidence *int) {
	var grids []arc.Grid
	if prediction != nil {
		grids = prediction.PredictionGrids
		// A single unnumbered grid against a multi-test puzzle is a
		// partial answer for the first case.
		if len(grids) == 0 && prediction.PredictedGrid != nil {
			grids = []arc.Grid{prediction.PredictedGrid}
		}
	}

	result, err := validate.ValidateMulti(grids, task.ExpectedOutputs(), confidence)
	if err != nil {
		// Unreachable for a loaded task (test pairs are validated at
		// load time); kept loud for caller bugs.
		panic(err)
	}

	exp.HasMultiplePredictions = len(grids) > 0
	exp.PredictionGrids = grids
	exp.MultiTestAllCorrect = &result.AllCorrect
	exp.MultiTestIncomplete = result.Incomplete
	exp.Trustworthiness = result.AverageTrustworthiness
}
