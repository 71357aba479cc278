package extract

import (
	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema constrains the types of known payload fields without
// requiring any of them: a payload carrying only text fields is valid,
// but a confidence that arrives as an object, or a predictedOutput that
// is not an array, is schema drift and fails extraction rather than
// flowing downstream half-parsed.
const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "predictedOutput":     {"type": ["array", "null"]},
    "patternDescription":  {"type": ["string", "null"]},
    "solvingStrategy":     {"type": ["string", "null"]},
    "reasoningLog":        {"type": ["string", "null"]},
    "hints":               {"type": ["array", "null"]},
    "confidence":          {"type": ["number", "string", "null"]}
  },
  "patternProperties": {
    "^predictedOutput[0-9]+$": {"type": ["array", "null"]}
  },
  "additionalProperties": true
}`

var schemaLoader = gojsonschema.NewStringLoader(payloadSchema)

// checkPayloadSchema validates a located payload object against the
// expected field types.
func checkPayloadSchema(payload map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(payload))
	if err != nil {
		return eris.Wrap(err, "extract: schema validation")
	}
	if !result.Valid() {
		return eris.Wrapf(ErrSchemaMismatch, "%s", result.Errors()[0].String())
	}
	return nil
}
