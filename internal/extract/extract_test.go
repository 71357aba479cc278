package extract

import (
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puzzlebench/arc-explainer/internal/arc"
)

func TestExtract_DirectJSON(t *testing.T) {
	raw := `{"predictedOutput": [[1,2],[3,4]], "patternDescription": "rotate", "confidence": 85}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)

	assert.Equal(t, MethodDirect, pred.Method)
	assert.Equal(t, arc.Grid{{1, 2}, {3, 4}}, pred.PredictedGrid)
	assert.Equal(t, "rotate", pred.PatternDescription)
	assert.Equal(t, float64(85), pred.RawConfidence)
	assert.False(t, pred.HasMultiplePredictions)
}

func TestExtract_CodeFence(t *testing.T) {
	raw := "Here is my answer:\n```json\n{\"predictedOutput\": [[0]], \"confidence\": 70}\n```\nHope that helps!"

	pred, err := Extract(raw, ProviderAnthropic)
	require.NoError(t, err)

	assert.Equal(t, MethodFenced, pred.Method)
	assert.Equal(t, arc.Grid{{0}}, pred.PredictedGrid)
}

func TestExtract_BareFence(t *testing.T) {
	raw := "```\n{\"predictedOutput\": [[5,5]]}\n```"

	pred, err := Extract(raw, ProviderGrok)
	require.NoError(t, err)
	assert.Equal(t, MethodFenced, pred.Method)
	assert.Equal(t, arc.Grid{{5, 5}}, pred.PredictedGrid)
}

// The balanced-brace tier must capture the full object, including
// fields after nested arrays; a first-closing-brace heuristic would
// drop the trailing confidence.
func TestExtract_BalancedBracesKeepTrailingFields(t *testing.T) {
	raw := `After careful thought I conclude: see below.
The answer is {"predictedOutput": [[1,0],[0,1]], "patternDescription": "identity with {braces} in text", "confidence": 85} as stated.`

	pred, err := Extract(raw, ProviderDeepSeek)
	require.NoError(t, err)

	assert.Equal(t, MethodBalanced, pred.Method)
	assert.Equal(t, arc.Grid{{1, 0}, {0, 1}}, pred.PredictedGrid)
	assert.Equal(t, "identity with {braces} in text", pred.PatternDescription)
	assert.Equal(t, float64(85), pred.RawConfidence)
}

func TestExtract_FreeTextNoJSON(t *testing.T) {
	pred, err := Extract("The pattern seems to involve rotation but I cannot format it.", ProviderOpenAI)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoJSONFound))
	assert.Nil(t, pred)
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := Extract(42, ProviderOpenAI)
	assert.True(t, eris.Is(err, ErrNoJSONFound))
}

func TestExtract_ParsedObjectPayload(t *testing.T) {
	obj := map[string]any{
		"predictedOutput": []any{[]any{float64(7)}},
		"solvingStrategy": "look at rows",
	}

	pred, err := Extract(obj, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, MethodObject, pred.Method)
	assert.Equal(t, arc.Grid{{7}}, pred.PredictedGrid)
	assert.Equal(t, "look at rows", pred.SolvingStrategy)
}

func TestExtract_NestedResultWrapper(t *testing.T) {
	raw := `{"result": {"predictedOutput": [[2]], "confidence": 0.9}}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, MethodNested, pred.Method)
	assert.Equal(t, arc.Grid{{2}}, pred.PredictedGrid)
	assert.Equal(t, 0.9, pred.RawConfidence)
}

func TestExtract_MultiTestNumberedGrids(t *testing.T) {
	raw := `{"predictedOutput1": [[1]], "predictedOutput2": [[2]], "predictedOutput3": [[3]], "confidence": 60}`

	pred, err := Extract(raw, ProviderGemini)
	require.NoError(t, err)

	assert.True(t, pred.HasMultiplePredictions)
	assert.Equal(t, []arc.Grid{{{1}}, {{2}}, {{3}}}, pred.PredictionGrids)
	assert.Nil(t, pred.PredictedGrid)
}

func TestExtract_MalformedNumberedGridKeepsAlignment(t *testing.T) {
	raw := `{"predictedOutput1": [[1]], "predictedOutput2": [[1,2],[3]], "predictedOutput3": [[3]]}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)

	require.Len(t, pred.PredictionGrids, 3)
	assert.Equal(t, arc.Grid{{1}}, pred.PredictionGrids[0])
	assert.Nil(t, pred.PredictionGrids[1])
	assert.Equal(t, arc.Grid{{3}}, pred.PredictionGrids[2])
}

func TestExtract_SchemaMismatch(t *testing.T) {
	// predictedOutput as a string is schema drift, not a missing field.
	raw := `{"predictedOutput": "[[1,2]]", "confidence": 85}`

	_, err := Extract(raw, ProviderOpenAI)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSchemaMismatch))
}

func TestExtract_ConfidenceAsObjectIsSchemaMismatch(t *testing.T) {
	raw := `{"predictedOutput": [[1]], "confidence": {"value": 85}}`

	_, err := Extract(raw, ProviderOpenAI)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSchemaMismatch))
}

func TestExtract_HintsCollected(t *testing.T) {
	raw := `{"predictedOutput": [[1]], "hints": ["symmetry", 42, "color swap"]}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)
	// non-string entries are dropped
	assert.Equal(t, []string{"symmetry", "color swap"}, pred.Hints)
}

func TestExtract_StringConfidencePreserved(t *testing.T) {
	raw := `{"predictedOutput": [[1]], "confidence": "85%"}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "85%", pred.RawConfidence)
}

func TestExtract_BytesInput(t *testing.T) {
	pred, err := Extract([]byte(`{"predictedOutput": [[4]]}`), ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, arc.Grid{{4}}, pred.PredictedGrid)
}

// Envelope fixtures: one raw response per provider family, payload
// buried in the provider's native wrapping.

func TestExtract_OpenAIResponsesEnvelope(t *testing.T) {
	raw := `{
		"id": "resp_123",
		"object": "response",
		"output": [
			{"type": "reasoning", "summary": []},
			{"type": "message", "content": [
				{"type": "output_text", "text": "{\"predictedOutput\": [[1,1]], \"confidence\": 95}"}
			]}
		]
	}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, arc.Grid{{1, 1}}, pred.PredictedGrid)
	assert.Equal(t, float64(95), pred.RawConfidence)
}

func TestExtract_OpenAIOutputTextConvenienceField(t *testing.T) {
	raw := `{"id": "resp_9", "output_text": "{\"predictedOutput\": [[2,2]]}"}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, arc.Grid{{2, 2}}, pred.PredictedGrid)
}

func TestExtract_AnthropicEnvelope(t *testing.T) {
	raw := `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"content": [
			{"type": "text", "text": "Looking at the examples..."},
			{"type": "text", "text": "{\"predictedOutput\": [[3,3]], \"patternDescription\": \"fill\"}"}
		]
	}`

	pred, err := Extract(raw, ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, arc.Grid{{3, 3}}, pred.PredictedGrid)
	assert.Equal(t, "fill", pred.PatternDescription)
}

func TestExtract_GeminiEnvelope(t *testing.T) {
	raw := `{
		"candidates": [{
			"content": {
				"parts": [{"text": "{\"predictedOutput\": [[6]], \"confidence\": 0.75}"}],
				"role": "model"
			},
			"finishReason": "STOP"
		}]
	}`

	pred, err := Extract(raw, ProviderGemini)
	require.NoError(t, err)
	assert.Equal(t, arc.Grid{{6}}, pred.PredictedGrid)
	assert.Equal(t, 0.75, pred.RawConfidence)
}

func TestExtract_ChatCompletionsEnvelope(t *testing.T) {
	raw := `{
		"id": "chatcmpl-1",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "` + "```json\\n{\\\"predictedOutput\\\": [[8,8]]}\\n```" + `"},
			"finish_reason": "stop"
		}]
	}`

	for _, provider := range []Provider{ProviderGrok, ProviderDeepSeek, ProviderOpenRouter} {
		pred, err := Extract(raw, provider)
		require.NoError(t, err, provider.String())
		assert.Equal(t, arc.Grid{{8, 8}}, pred.PredictedGrid, provider.String())
	}
}

func TestExtract_EnvelopeWithNoUsableText(t *testing.T) {
	raw := `{"choices": [{"message": {"role": "assistant", "content": "no json here at all"}}]}`

	_, err := Extract(raw, ProviderGrok)
	assert.True(t, eris.Is(err, ErrNoJSONFound))
}

func TestExtract_WrongEnvelopeForProvider(t *testing.T) {
	// An Anthropic-shaped response handed to the chat decoder finds no
	// candidate text; dispatch is by provider, not by sniffing.
	raw := `{"content": [{"type": "text", "text": "{\"predictedOutput\": [[1]]}"}]}`

	_, err := Extract(raw, ProviderGrok)
	assert.True(t, eris.Is(err, ErrNoJSONFound))
}

func TestParseBalanced_StringAwareScan(t *testing.T) {
	// Braces inside JSON strings must not affect depth counting.
	text := `prefix {"a": "close } brace", "b": {"nested": "open { brace"}, "confidence": 5} suffix`
	obj, ok := parseBalanced(text)
	require.True(t, ok)
	assert.Equal(t, "close } brace", obj["a"])
	assert.Equal(t, float64(5), obj["confidence"])
}

func TestParseBalanced_UnterminatedObject(t *testing.T) {
	_, ok := parseBalanced(`{"predictedOutput": [[1,2]`)
	assert.False(t, ok)
}

func TestParseFenced_UnclosedFenceStillParses(t *testing.T) {
	// Truncated responses often lose the closing fence.
	obj, ok := parseFenced("```json\n{\"confidence\": 10}")
	require.True(t, ok)
	assert.Equal(t, float64(10), obj["confidence"])
}

func TestMethodRecorded(t *testing.T) {
	cases := []struct {
		raw    string
		method Method
	}{
		{`{"confidence": 1}`, MethodDirect},
		{"```json\n{\"confidence\": 1}\n```", MethodFenced},
		{`text before {"confidence": 1} after`, MethodBalanced},
	}
	for _, tc := range cases {
		pred, err := Extract(tc.raw, ProviderOpenAI)
		require.NoError(t, err)
		assert.Equal(t, tc.method, pred.Method)
	}
}

func TestProviderRoundTrip(t *testing.T) {
	for name, want := range map[string]Provider{
		"openai":     ProviderOpenAI,
		"anthropic":  ProviderAnthropic,
		"gemini":     ProviderGemini,
		"grok":       ProviderGrok,
		"deepseek":   ProviderDeepSeek,
		"openrouter": ProviderOpenRouter,
	} {
		got, err := ParseProvider(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}

	_, err := ParseProvider("mistral")
	assert.Error(t, err)
}

func TestPrediction_HasGrid(t *testing.T) {
	assert.False(t, (&Prediction{}).HasGrid())
	assert.True(t, (&Prediction{PredictedGrid: arc.Grid{{1}}}).HasGrid())
	assert.True(t, (&Prediction{PredictionGrids: []arc.Grid{{{1}}}}).HasGrid())
}

func TestSchemaAllowsUnknownFields(t *testing.T) {
	raw := `{"predictedOutput": [[1]], "modelNotes": "extra field", "tokensUsed": 5}`

	pred, err := Extract(raw, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, arc.Grid{{1}}, pred.PredictedGrid)
}

func TestExtract_JSONNumberPrecision(t *testing.T) {
	// Confidence survives as the decoded json type for normalization
	// downstream.
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"predictedOutput": [[1]], "confidence": 0.85}`), &obj))

	pred, err := Extract(obj, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, 0.85, pred.RawConfidence)
}
