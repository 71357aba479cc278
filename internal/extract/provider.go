package extract

import "github.com/rotisserie/eris"

// Provider identifies which API family produced a raw response. The
// envelope decoder is selected once from this closed set; no string
// prefix matching on model names happens anywhere else.
type Provider int

const (
	ProviderOpenAI Provider = iota
	ProviderAnthropic
	ProviderGemini
	ProviderGrok
	ProviderDeepSeek
	ProviderOpenRouter
)

var providerNames = map[Provider]string{
	ProviderOpenAI:     "openai",
	ProviderAnthropic:  "anthropic",
	ProviderGemini:     "gemini",
	ProviderGrok:       "grok",
	ProviderDeepSeek:   "deepseek",
	ProviderOpenRouter: "openrouter",
}

func (p Provider) String() string {
	if name, ok := providerNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParseProvider converts a config/CLI provider name to a Provider.
func ParseProvider(name string) (Provider, error) {
	for p, n := range providerNames {
		if n == name {
			return p, nil
		}
	}
	return 0, eris.Errorf("extract: unknown provider %q", name)
}
