package settings

import (
	"io"
	"strings"
	"time"

	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/itinerant/pkg/steps/ai/types"
)

// Keys of APISettings.APIKeys / APISettings.BaseUrls. Provider keys follow the
// "<provider>-api-key" / "<provider>-base-url" convention.
const (
	KeyOpenAI            = "openai"
	KeyGoogleMaps        = "google-maps"
	KeyGoogle            = "google"
	KeyTavily            = "tavily"
	KeyWeather           = "weather"
	KeyAddressValidation = "address-validation"
	KeyIPInfo            = "ipinfo"
)

const DefaultModel = "openai:gpt-4o"

func APIKeyName(provider string) string { return provider + "-api-key" }

func BaseURLName(provider string) string { return provider + "-base-url" }

type ChatSettings struct {
	Engine            *string        `yaml:"engine,omitempty"`
	ApiType           *types.ApiType `yaml:"api_type,omitempty"`
	MaxResponseTokens *int           `yaml:"max_response_tokens,omitempty"`
	Temperature       *float64       `yaml:"temperature,omitempty"`
	// MaxRetries bounds completion retries on transport errors, 429 and 5xx.
	MaxRetries int `yaml:"max_retries"`
}

type APISettings struct {
	APIKeys  map[string]string `yaml:"api_keys,omitempty"`
	BaseUrls map[string]string `yaml:"base_urls,omitempty"`
}

// APIKey returns the key stored for provider, or "".
func (a *APISettings) APIKey(provider string) string {
	if a == nil {
		return ""
	}
	return a.APIKeys[APIKeyName(provider)]
}

// BaseURL returns the base URL stored for provider, or "".
func (a *APISettings) BaseURL(provider string) string {
	if a == nil {
		return ""
	}
	return a.BaseUrls[BaseURLName(provider)]
}

type ClientSettings struct {
	Timeout time.Duration `yaml:"timeout"`
	// DelegationTimeout bounds one specialized-agent run started by the coordinator.
	DelegationTimeout time.Duration `yaml:"delegation_timeout"`
	UserAgent         string        `yaml:"user_agent,omitempty"`
}

type StepSettings struct {
	Chat   *ChatSettings   `yaml:"chat,omitempty"`
	API    *APISettings    `yaml:"api,omitempty"`
	Client *ClientSettings `yaml:"client,omitempty"`
}

func NewStepSettings() *StepSettings {
	engine := DefaultModel
	apiType := types.ApiTypeOpenAI
	return &StepSettings{
		Chat: &ChatSettings{
			Engine:     &engine,
			ApiType:    &apiType,
			MaxRetries: 3,
		},
		API: &APISettings{
			APIKeys: map[string]string{},
			BaseUrls: map[string]string{
				BaseURLName(KeyOpenAI):            "https://api.openai.com/v1",
				BaseURLName(KeyTavily):            "https://api.tavily.com",
				BaseURLName(KeyWeather):           "https://weather.googleapis.com",
				BaseURLName(KeyAddressValidation): "https://addressvalidation.googleapis.com",
				BaseURLName(KeyIPInfo):            "https://ipinfo.io",
			},
		},
		Client: &ClientSettings{
			Timeout:           30 * time.Second,
			DelegationTimeout: 60 * time.Second,
			UserAgent:         "itinerant",
		},
	}
}

// envFallbacks maps viper keys to the conventional, unprefixed environment
// variables of each provider.
var envFallbacks = map[string][]string{
	APIKeyName(KeyOpenAI):     {"OPENAI_API_KEY"},
	APIKeyName(KeyGoogleMaps): {"GOOGLE_CLIENT_API_KEY", "GOOGLE_MAPS_API_KEY"},
	APIKeyName(KeyGoogle):     {"GOOGLE_API_KEY"},
	APIKeyName(KeyTavily):     {"TAVILY_API_KEY"},
	BaseURLName(KeyOpenAI):    {"OPENAI_BASE_URL"},
}

// BindEnv registers the provider environment variables on v. The prefixed
// variable (e.g. ITINERANT_OPENAI_API_KEY) wins over the conventional one.
func BindEnv(v *viper.Viper, prefix string) error {
	for key, envs := range envFallbacks {
		args := []string{key}
		if prefix != "" {
			args = append(args, strings.ToUpper(prefix+"_"+strings.ReplaceAll(key, "-", "_")))
		}
		args = append(args, envs...)
		if err := v.BindEnv(args...); err != nil {
			return errors.Wrapf(err, "bind env for %s", key)
		}
	}
	return nil
}

// NewStepSettingsFromViper overlays the values known to v on the defaults.
func NewStepSettingsFromViper(v *viper.Viper) (*StepSettings, error) {
	s := NewStepSettings()
	if v == nil {
		return s, nil
	}

	if m := v.GetString("model"); m != "" {
		s.Chat.Engine = &m
	}
	if v.IsSet("temperature") {
		t := v.GetFloat64("temperature")
		s.Chat.Temperature = &t
	}
	if v.IsSet("max-response-tokens") {
		n := v.GetInt("max-response-tokens")
		s.Chat.MaxResponseTokens = &n
	}
	if v.IsSet("max-retries") {
		s.Chat.MaxRetries = v.GetInt("max-retries")
	}
	if v.IsSet("timeout") {
		s.Client.Timeout = v.GetDuration("timeout")
	}
	if v.IsSet("delegation-timeout") {
		s.Client.DelegationTimeout = v.GetDuration("delegation-timeout")
	}

	for _, p := range []string{KeyOpenAI, KeyGoogleMaps, KeyGoogle, KeyTavily} {
		if key := strings.TrimSpace(v.GetString(APIKeyName(p))); key != "" {
			s.API.APIKeys[APIKeyName(p)] = key
		}
	}
	for _, p := range []string{KeyOpenAI, KeyTavily, KeyWeather, KeyAddressValidation, KeyIPInfo} {
		if u := strings.TrimSpace(v.GetString(BaseURLName(p))); u != "" {
			s.API.BaseUrls[BaseURLName(p)] = strings.TrimRight(u, "/")
		}
	}

	// weather and address validation share the generic Google key, falling back to the maps key
	if s.API.APIKey(KeyGoogle) == "" && s.API.APIKey(KeyGoogleMaps) != "" {
		s.API.APIKeys[APIKeyName(KeyGoogle)] = s.API.APIKey(KeyGoogleMaps)
	}

	return s, nil
}

// NewStepSettingsFromYAML reads settings from YAML, starting from the defaults.
func NewStepSettingsFromYAML(r io.Reader) (*StepSettings, error) {
	s := NewStepSettings()
	if err := yaml.NewDecoder(r).Decode(s); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode settings yaml")
	}
	return s, nil
}

func (ss *StepSettings) Clone() *StepSettings {
	return clone.Clone(ss).(*StepSettings)
}

// Missing lists the credentials required for multi-agent planning that are not set.
func (ss *StepSettings) Missing() []string {
	var missing []string
	for _, p := range []struct{ key, env string }{
		{KeyGoogleMaps, "GOOGLE_CLIENT_API_KEY"},
		{KeyTavily, "TAVILY_API_KEY"},
		{KeyOpenAI, "OPENAI_API_KEY"},
	} {
		if ss.API.APIKey(p.key) == "" {
			missing = append(missing, p.env)
		}
	}
	return missing
}

func (ss *StepSettings) GetMetadata() map[string]interface{} {
	metadata := make(map[string]interface{})
	if ss.Chat != nil {
		if ss.Chat.Engine != nil {
			metadata["ai-engine"] = *ss.Chat.Engine
		}
		if ss.Chat.ApiType != nil {
			metadata["ai-api-type"] = string(*ss.Chat.ApiType)
		}
		if ss.Chat.MaxResponseTokens != nil {
			metadata["ai-max-response-tokens"] = *ss.Chat.MaxResponseTokens
		}
		if ss.Chat.Temperature != nil {
			metadata["ai-temperature"] = *ss.Chat.Temperature
		}
		metadata["ai-max-retries"] = ss.Chat.MaxRetries
	}
	if ss.Client != nil {
		metadata["client-timeout"] = ss.Client.Timeout.String()
	}
	return metadata
}
