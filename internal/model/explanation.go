package model

import (
	"time"

	"github.com/puzzlebench/arc-explainer/internal/arc"
)

// Explanation is the durable record of one analysis request: what the
// model said about a puzzle, whether it was right, and what it cost.
// Created once per request and never mutated afterward.
type Explanation struct {
	ID        string `json:"id"`
	PuzzleID  string `json:"puzzle_id"`
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`

	PatternDescription string   `json:"pattern_description,omitempty"`
	SolvingStrategy    string   `json:"solving_strategy,omitempty"`
	Hints              []string `json:"hints,omitempty"`

	// Single-test prediction. Nil when the response carried no valid
	// grid or the puzzle is multi-test.
	PredictedGrid arc.Grid `json:"predicted_grid,omitempty"`

	// Multi-test predictions. HasMultiplePredictions and the grid list
	// are separate fields on purpose; neither is ever reused as a flag.
	HasMultiplePredictions bool       `json:"has_multiple_predictions"`
	PredictionGrids        []arc.Grid `json:"prediction_grids,omitempty"`

	// Exactly one of IsPredictionCorrect / MultiTestAllCorrect is
	// non-nil, determined by the puzzle's test count at creation time.
	IsPredictionCorrect *bool `json:"is_prediction_correct,omitempty"`
	MultiTestAllCorrect *bool `json:"multi_test_all_correct,omitempty"`
	MultiTestIncomplete bool  `json:"multi_test_incomplete,omitempty"`

	// Confidence is the normalized 0-100 integer scale, nil when the
	// model reported none (or it was unparseable).
	Confidence      *int     `json:"confidence,omitempty"`
	Trustworthiness *float64 `json:"trustworthiness,omitempty"`

	// ExtractionMethod names the tier that recovered the payload, or
	// "none" when the response was unusable. Ingestion statistics use
	// this to separate "never produced parseable JSON" from "wrong".
	ExtractionMethod string `json:"extraction_method"`

	InputTokens      int64   `json:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`

	// ProviderResponseID chains follow-up conversations (debates) to
	// the provider-side response. RawResponse is the audit blob.
	ProviderResponseID string `json:"provider_response_id,omitempty"`
	RawResponse        string `json:"raw_response,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ExtractionFailed reports whether no payload was recovered from the
// provider response.
func (e *Explanation) ExtractionFailed() bool {
	return e.ExtractionMethod == "none"
}
