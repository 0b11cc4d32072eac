package factory

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/openai"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/types"
)

// EngineFactory creates inference engines for model identifiers such as
// "openai:gpt-4o" or "gpt-4o-mini".
type EngineFactory interface {
	// CreateEngine creates an Engine for model. An empty model selects the
	// model configured in the factory settings.
	CreateEngine(model string) (engine.Engine, error)

	// SupportedProviders returns the provider prefixes this factory accepts.
	SupportedProviders() []string

	// DefaultProvider is used for identifiers without a provider prefix.
	DefaultProvider() string
}

// StandardEngineFactory creates OpenAI-compatible engines from a shared
// settings template. Each engine gets its own copy of the settings.
type StandardEngineFactory struct {
	settings *settings.StepSettings
	options  []openai.Option
}

func NewStandardEngineFactory(s *settings.StepSettings, options ...openai.Option) *StandardEngineFactory {
	return &StandardEngineFactory{settings: s, options: options}
}

func (f *StandardEngineFactory) CreateEngine(model string) (engine.Engine, error) {
	if f.settings == nil {
		return nil, errors.New("settings cannot be nil")
	}
	s := f.settings.Clone()
	if model = strings.TrimSpace(model); model != "" {
		s.Chat.Engine = &model
	}
	if s.Chat.Engine == nil || *s.Chat.Engine == "" {
		return nil, errors.New("no model specified")
	}

	if prefix, _, ok := strings.Cut(*s.Chat.Engine, ":"); ok && !f.supports(prefix) {
		return nil, errors.Errorf("unsupported provider %s. Supported providers: %s",
			prefix, strings.Join(f.SupportedProviders(), ", "))
	}

	apiType, _ := types.ParseModel(*s.Chat.Engine, types.ApiType(f.DefaultProvider()))
	s.Chat.ApiType = &apiType
	if err := f.validateSettings(s, apiType); err != nil {
		return nil, errors.Wrapf(err, "invalid settings for provider %s", apiType)
	}

	return openai.NewOpenAIEngine(s, f.options...)
}

func (f *StandardEngineFactory) SupportedProviders() []string {
	ret := make([]string, 0, len(types.OpenAICompatible))
	for _, t := range types.OpenAICompatible {
		ret = append(ret, string(t))
	}
	return ret
}

func (f *StandardEngineFactory) DefaultProvider() string {
	return string(types.ApiTypeOpenAI)
}

func (f *StandardEngineFactory) supports(provider string) bool {
	for _, p := range f.SupportedProviders() {
		if strings.EqualFold(p, provider) {
			return true
		}
	}
	return false
}

func (f *StandardEngineFactory) validateSettings(s *settings.StepSettings, apiType types.ApiType) error {
	if s.API == nil {
		return errors.New("API settings cannot be nil")
	}
	if s.API.APIKey(string(apiType)) == "" {
		return errors.Errorf("missing API key %s", settings.APIKeyName(string(apiType)))
	}
	if s.API.BaseURL(string(apiType)) == "" {
		return errors.Errorf("missing base URL %s for provider %s", settings.BaseURLName(string(apiType)), apiType)
	}
	return nil
}

var _ EngineFactory = (*StandardEngineFactory)(nil)
