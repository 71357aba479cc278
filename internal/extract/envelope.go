package extract

// Envelope decoding: each provider wraps the model's text in its own
// response shape. These decoders pull out candidate text blocks from an
// already-parsed envelope object; the text tiers then run over each
// candidate. Decoders are total functions that return nil rather than
// failing on unfamiliar shapes.

type envelopeDecoder func(obj map[string]any) []string

var envelopeDecoders = map[Provider]envelopeDecoder{
	ProviderOpenAI:     decodeResponsesEnvelope,
	ProviderAnthropic:  decodeAnthropicEnvelope,
	ProviderGemini:     decodeGeminiEnvelope,
	ProviderGrok:       decodeChatEnvelope,
	ProviderDeepSeek:   decodeChatEnvelope,
	ProviderOpenRouter: decodeChatEnvelope,
}

// decodeResponsesEnvelope handles the OpenAI Responses API: a flattened
// output_text convenience field plus an output array of message items
// holding output_text content blocks.
func decodeResponsesEnvelope(obj map[string]any) []string {
	var texts []string
	if s, ok := obj["output_text"].(string); ok && s != "" {
		texts = append(texts, s)
	}
	output, ok := obj["output"].([]any)
	if !ok {
		return texts
	}
	for _, itemVal := range output {
		item, ok := itemVal.(map[string]any)
		if !ok || item["type"] != "message" {
			continue
		}
		content, ok := item["content"].([]any)
		if !ok {
			continue
		}
		for _, blockVal := range content {
			block, ok := blockVal.(map[string]any)
			if !ok {
				continue
			}
			if s, ok := block["text"].(string); ok && s != "" {
				texts = append(texts, s)
			}
		}
	}
	return texts
}

// decodeAnthropicEnvelope handles Anthropic messages: content is a list
// of typed blocks; text and tool_use input blocks both may carry the
// payload.
func decodeAnthropicEnvelope(obj map[string]any) []string {
	content, ok := obj["content"].([]any)
	if !ok {
		return nil
	}
	var texts []string
	for _, blockVal := range content {
		block, ok := blockVal.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := block["text"].(string); ok && s != "" {
			texts = append(texts, s)
		}
	}
	return texts
}

// decodeGeminiEnvelope handles Gemini generate-content responses:
// candidates[].content.parts[].text.
func decodeGeminiEnvelope(obj map[string]any) []string {
	candidates, ok := obj["candidates"].([]any)
	if !ok {
		return nil
	}
	var texts []string
	for _, candVal := range candidates {
		cand, ok := candVal.(map[string]any)
		if !ok {
			continue
		}
		content, ok := cand["content"].(map[string]any)
		if !ok {
			continue
		}
		parts, ok := content["parts"].([]any)
		if !ok {
			continue
		}
		for _, partVal := range parts {
			part, ok := partVal.(map[string]any)
			if !ok {
				continue
			}
			if s, ok := part["text"].(string); ok && s != "" {
				texts = append(texts, s)
			}
		}
	}
	return texts
}

// decodeChatEnvelope handles the shared chat-completions wire format
// used by xAI/Grok, DeepSeek, and OpenRouter: choices[].message.content.
func decodeChatEnvelope(obj map[string]any) []string {
	choices, ok := obj["choices"].([]any)
	if !ok {
		return nil
	}
	var texts []string
	for _, choiceVal := range choices {
		choice, ok := choiceVal.(map[string]any)
		if !ok {
			continue
		}
		message, ok := choice["message"].(map[string]any)
		if !ok {
			continue
		}
		if s, ok := message["content"].(string); ok && s != "" {
			texts = append(texts, s)
		}
	}
	return texts
}
