// Package extract locates and parses the JSON prediction payload inside
// heterogeneous AI-provider responses. Extraction is pure and never
// panics: an unusable response is a first-class outcome reported as a
// typed error so batch runs can count it alongside correct/incorrect.
package extract

import (
	"github.com/rotisserie/eris"
)

// ErrNoJSONFound indicates no JSON payload could be located anywhere in
// the response. Callers treat this as "no prediction", not as a crash.
var ErrNoJSONFound = eris.New("extract: no JSON payload found")

// ErrSchemaMismatch indicates a JSON object was located but its fields
// have the wrong shape (schema drift from the provider).
var ErrSchemaMismatch = eris.New("extract: payload does not match schema")

// payloadFields are the keys that mark an object as the prediction
// payload itself rather than a provider envelope around it.
var payloadFields = []string{
	"predictedOutput",
	"predictedOutput1",
	"patternDescription",
	"solvingStrategy",
	"reasoningLog",
	"hints",
	"confidence",
}

// Extract locates the prediction payload in a raw provider response,
// which may be an already-parsed object, the envelope JSON text, or
// free-form model output wrapping a JSON object. The tiers run cheapest
// first; provider selects the envelope decoder.
func Extract(raw any, provider Provider) (*Prediction, error) {
	switch v := raw.(type) {
	case map[string]any:
		return fromObject(v, provider)
	case []byte:
		return fromText(string(v), provider)
	case string:
		return fromText(v, provider)
	default:
		return nil, ErrNoJSONFound
	}
}

// fromText runs the ordered text strategies and finishes on the first
// located object.
func fromText(text string, provider Provider) (*Prediction, error) {
	for _, strat := range textStrategies {
		if obj, ok := strat.locate(text); ok {
			return fromObject(obj, provider, strat.method)
		}
	}
	return nil, ErrNoJSONFound
}

// fromObject resolves a located (or supplied) object to a payload:
// directly when it carries prediction fields, through a nested "result"
// wrapper when present, or through the provider envelope decoder.
// methodHint carries the text tier that located the object.
func fromObject(obj map[string]any, provider Provider, methodHint ...Method) (*Prediction, error) {
	method := MethodObject
	if len(methodHint) > 0 {
		method = methodHint[0]
	}

	if hasPayloadFields(obj) {
		return finish(obj, method)
	}

	// Providers that nest the payload under a result wrapper.
	if nested, ok := obj["result"].(map[string]any); ok {
		if hasPayloadFields(nested) {
			return finish(nested, MethodNested)
		}
	}

	// Envelope: decode candidate text blocks and re-run the text tiers
	// over each.
	if decoder, ok := envelopeDecoders[provider]; ok {
		for _, candidate := range decoder(obj) {
			if pred, err := fromText(candidate, provider); err == nil {
				return pred, nil
			}
		}
	}

	return nil, ErrNoJSONFound
}

func finish(payload map[string]any, method Method) (*Prediction, error) {
	if err := checkPayloadSchema(payload); err != nil {
		return nil, err
	}
	return fromPayload(payload, method), nil
}

func hasPayloadFields(obj map[string]any) bool {
	for _, key := range payloadFields {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}
