package extract

import (
	"encoding/json"
	"strings"
)

// textStrategy is one pure attempt at locating a JSON object in response
// text. Strategies are tried in order, cheapest first; the first success
// wins. Keeping the chain explicit makes each tier testable on its own
// and keeps the fallback order out of control flow.
type textStrategy struct {
	method Method
	locate func(text string) (map[string]any, bool)
}

var textStrategies = []textStrategy{
	{MethodDirect, parseWhole},
	{MethodFenced, parseFenced},
	{MethodBalanced, parseBalanced},
}

// parseWhole attempts to parse the entire trimmed text as one object.
func parseWhole(text string) (map[string]any, bool) {
	return unmarshalObject(strings.TrimSpace(text))
}

// parseFenced strips a markdown code fence (```json ... ``` or bare
// ``` ... ```) and parses the enclosed text.
func parseFenced(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "```")
	if start < 0 {
		return nil, false
	}
	text = text[start+3:]
	text = strings.TrimPrefix(text, "json")

	if end := strings.Index(text, "```"); end >= 0 {
		text = text[:end]
	}
	return unmarshalObject(strings.TrimSpace(text))
}

// parseBalanced scans for the first brace-balanced {...} object. Depth
// counting (with string/escape awareness) is required here: a naive
// "match up to the first }" regex truncates the object before trailing
// fields such as confidence.
func parseBalanced(text string) (map[string]any, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return unmarshalObject(text[start : i+1])
			}
		}
	}
	return nil, false
}

func unmarshalObject(text string) (map[string]any, bool) {
	if text == "" || text[0] != '{' {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
