package types

import "strings"

type ApiType string

const (
	ApiTypeOpenAI    ApiType = "openai"
	ApiTypeAnyScale  ApiType = "anyscale"
	ApiTypeFireworks ApiType = "fireworks"
)

// OpenAICompatible lists the providers served by the chat-completions engine.
var OpenAICompatible = []ApiType{ApiTypeOpenAI, ApiTypeAnyScale, ApiTypeFireworks}

// ParseModel splits a "provider:model" identifier. Identifiers without a known
// provider prefix are attributed to defaultType.
func ParseModel(model string, defaultType ApiType) (ApiType, string) {
	model = strings.TrimSpace(model)
	if prefix, name, ok := strings.Cut(model, ":"); ok {
		for _, t := range OpenAICompatible {
			if strings.EqualFold(prefix, string(t)) {
				return t, name
			}
		}
	}
	return defaultType, model
}
