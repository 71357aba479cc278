package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puzzlebench/arc-explainer/internal/arc"
)

func TestValidate_CorrectPrediction(t *testing.T) {
	expected := arc.Grid{{1, 2}, {3, 4}}
	result := Validate(arc.Grid{{1, 2}, {3, 4}}, expected, intPtr(80))

	assert.True(t, result.Correct)
	assert.Equal(t, expected, result.PredictedGrid)
	require.NotNil(t, result.Trustworthiness)
	assert.InDelta(t, 0.8, *result.Trustworthiness, 1e-9)
}

func TestValidate_IncorrectPrediction(t *testing.T) {
	result := Validate(arc.Grid{{1, 2}}, arc.Grid{{2, 1}}, intPtr(80))

	assert.False(t, result.Correct)
	require.NotNil(t, result.Trustworthiness)
	assert.InDelta(t, 0.2, *result.Trustworthiness, 1e-9)
}

func TestValidate_NilPredictionIsIncorrectNotError(t *testing.T) {
	result := Validate(nil, arc.Grid{{1}}, nil)

	assert.False(t, result.Correct)
	assert.Nil(t, result.PredictedGrid)
	assert.Nil(t, result.Trustworthiness)
}

func TestValidate_MalformedPredictionIsIncorrect(t *testing.T) {
	result := Validate(arc.Grid{{1, 2}, {3}}, arc.Grid{{1, 2}, {3, 4}}, intPtr(95))

	assert.False(t, result.Correct)
	assert.Nil(t, result.PredictedGrid)
	require.NotNil(t, result.Trustworthiness)
	assert.InDelta(t, 0.05, *result.Trustworthiness, 1e-9)
}

func TestValidate_Deterministic(t *testing.T) {
	pred := arc.Grid{{5, 5}}
	expected := arc.Grid{{5, 5}}
	first := Validate(pred, expected, intPtr(60))
	second := Validate(pred, expected, intPtr(60))
	assert.Equal(t, first, second)
}

// The two trustworthiness curves must meet at 50% confidence: an answer
// at coin-flip confidence scores 0.5 regardless of correctness.
func TestTrustworthiness_CurvesMeetAtFifty(t *testing.T) {
	correct := Validate(arc.Grid{{1}}, arc.Grid{{1}}, intPtr(50))
	incorrect := Validate(arc.Grid{{2}}, arc.Grid{{1}}, intPtr(50))

	require.NotNil(t, correct.Trustworthiness)
	require.NotNil(t, incorrect.Trustworthiness)
	assert.InDelta(t, 0.5, *correct.Trustworthiness, 1e-9)
	assert.InDelta(t, 0.5, *incorrect.Trustworthiness, 1e-9)
}

func TestTrustworthiness_Monotonicity(t *testing.T) {
	// For correct answers, higher confidence scores higher. For
	// incorrect answers, higher confidence scores lower.
	prevCorrect := -1.0
	prevIncorrect := 2.0
	for c := 0; c <= 100; c += 10 {
		correct := Validate(arc.Grid{{1}}, arc.Grid{{1}}, intPtr(c))
		incorrect := Validate(arc.Grid{{2}}, arc.Grid{{1}}, intPtr(c))
		assert.Greater(t, *correct.Trustworthiness, prevCorrect)
		assert.Less(t, *incorrect.Trustworthiness, prevIncorrect)
		prevCorrect = *correct.Trustworthiness
		prevIncorrect = *incorrect.Trustworthiness
	}
}

func TestValidateMulti_AllCorrect(t *testing.T) {
	preds := []arc.Grid{{{1}}, {{2}}}
	expected := []arc.Grid{{{1}}, {{2}}}

	result, err := ValidateMulti(preds, expected, intPtr(70))
	require.NoError(t, err)

	assert.True(t, result.AllCorrect)
	assert.False(t, result.Incomplete)
	assert.Len(t, result.Cases, 2)
	require.NotNil(t, result.AverageTrustworthiness)
	assert.InDelta(t, 0.7, *result.AverageTrustworthiness, 1e-9)
}

func TestValidateMulti_OneWrongBreaksAllCorrect(t *testing.T) {
	preds := []arc.Grid{{{1}}, {{9}}}
	expected := []arc.Grid{{{1}}, {{2}}}

	result, err := ValidateMulti(preds, expected, intPtr(80))
	require.NoError(t, err)

	assert.False(t, result.AllCorrect)
	assert.True(t, result.Cases[0].Correct)
	assert.False(t, result.Cases[1].Correct)
	// mean of 0.8 (correct) and 0.2 (incorrect)
	assert.InDelta(t, 0.5, *result.AverageTrustworthiness, 1e-9)
}

func TestValidateMulti_MissingPredictionsIncomplete(t *testing.T) {
	preds := []arc.Grid{{{1}}}
	expected := []arc.Grid{{{1}}, {{2}}, {{3}}}

	result, err := ValidateMulti(preds, expected, nil)
	require.NoError(t, err)

	assert.True(t, result.Incomplete)
	assert.False(t, result.AllCorrect)
	assert.Len(t, result.Cases, 3)
	assert.True(t, result.Cases[0].Correct)
	assert.False(t, result.Cases[1].Correct)
	assert.False(t, result.Cases[2].Correct)
	assert.Nil(t, result.AverageTrustworthiness)
}

func TestValidateMulti_ExtraPredictionsNotIncomplete(t *testing.T) {
	preds := []arc.Grid{{{1}}, {{2}}, {{3}}}
	expected := []arc.Grid{{{1}}}

	result, err := ValidateMulti(preds, expected, nil)
	require.NoError(t, err)

	assert.False(t, result.Incomplete)
	assert.True(t, result.AllCorrect)
	assert.Len(t, result.Cases, 1)
}

func TestValidateMulti_EmptyExpectedIsError(t *testing.T) {
	_, err := ValidateMulti([]arc.Grid{{{1}}}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected outputs required")
}

func TestValidateMulti_NoConfidenceNoAverage(t *testing.T) {
	result, err := ValidateMulti([]arc.Grid{{{1}}}, []arc.Grid{{{1}}}, nil)
	require.NoError(t, err)
	assert.Nil(t, result.AverageTrustworthiness)
	assert.Nil(t, result.Cases[0].Trustworthiness)
}
