// Package stats aggregates stored explanations into per-model
// performance and cost summaries.
package stats

import (
	"sort"

	"github.com/puzzlebench/arc-explainer/internal/model"
)

// ModelSummary aggregates every stored explanation for one
// provider/model pair.
type ModelSummary struct {
	Provider  string `json:"provider"`
	ModelName string `json:"model_name"`

	Attempts           int `json:"attempts"`
	Correct            int `json:"correct"`
	Incomplete         int `json:"incomplete"`
	ExtractionFailures int `json:"extraction_failures"`

	// Accuracy counts multi-test records as correct only when every
	// prediction matched.
	Accuracy float64 `json:"accuracy"`

	// AvgConfidence and AvgTrustworthiness cover only records that
	// carried the respective value.
	AvgConfidence      *float64 `json:"avg_confidence,omitempty"`
	AvgTrustworthiness *float64 `json:"avg_trustworthiness,omitempty"`

	// CalibrationGap is mean confidence (as a fraction) minus accuracy;
	// positive means the model is overconfident.
	CalibrationGap *float64 `json:"calibration_gap,omitempty"`

	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

type accumulator struct {
	summary         ModelSummary
	confidenceSum   float64
	confidenceCount int
	trustSum        float64
	trustCount      int
}

// Summarize groups explanations by provider and model and computes a
// summary for each group, sorted by accuracy descending then by name.
func Summarize(exps []model.Explanation) []ModelSummary {
	groups := map[string]*accumulator{}

	for _, exp := range exps {
		key := exp.Provider + "/" + exp.ModelName
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{summary: ModelSummary{
				Provider:  exp.Provider,
				ModelName: exp.ModelName,
			}}
			groups[key] = acc
		}
		acc.add(exp)
	}

	summaries := make([]ModelSummary, 0, len(groups))
	for _, acc := range groups {
		summaries = append(summaries, acc.finish())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Accuracy != summaries[j].Accuracy {
			return summaries[i].Accuracy > summaries[j].Accuracy
		}
		if summaries[i].Provider != summaries[j].Provider {
			return summaries[i].Provider < summaries[j].Provider
		}
		return summaries[i].ModelName < summaries[j].ModelName
	})

	return summaries
}

func (a *accumulator) add(exp model.Explanation) {
	s := &a.summary
	s.Attempts++
	s.InputTokens += exp.InputTokens
	s.OutputTokens += exp.OutputTokens
	s.TotalCostUSD += exp.EstimatedCostUSD

	if exp.ExtractionFailed() {
		s.ExtractionFailures++
	}
	if exp.MultiTestIncomplete {
		s.Incomplete++
	}

	correct := false
	switch {
	case exp.IsPredictionCorrect != nil:
		correct = *exp.IsPredictionCorrect
	case exp.MultiTestAllCorrect != nil:
		correct = *exp.MultiTestAllCorrect
	}
	if correct {
		s.Correct++
	}

	if exp.Confidence != nil {
		a.confidenceSum += float64(*exp.Confidence)
		a.confidenceCount++
	}
	if exp.Trustworthiness != nil {
		a.trustSum += *exp.Trustworthiness
		a.trustCount++
	}
}

func (a *accumulator) finish() ModelSummary {
	s := a.summary
	if s.Attempts > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Attempts)
	}
	if a.confidenceCount > 0 {
		avg := a.confidenceSum / float64(a.confidenceCount)
		s.AvgConfidence = &avg
		gap := avg/100 - s.Accuracy
		s.CalibrationGap = &gap
	}
	if a.trustCount > 0 {
		avg := a.trustSum / float64(a.trustCount)
		s.AvgTrustworthiness = &avg
	}
	return s
}
