package engine

import "context"

// ToolChoice defines how the model should choose tools
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// InferenceConfig provides per-call overrides for inference parameters.
//
// Fields use pointer types so that nil means "not set, use the engine default".
type InferenceConfig struct {
	Temperature       *float64   `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxResponseTokens *int       `json:"max_response_tokens,omitempty" yaml:"max_response_tokens,omitempty"`
	ToolChoice        ToolChoice `json:"tool_choice,omitempty" yaml:"tool_choice,omitempty"`
}

type inferenceConfigKey struct{}

// WithInferenceConfig attaches per-call inference overrides to ctx.
func WithInferenceConfig(ctx context.Context, cfg InferenceConfig) context.Context {
	return context.WithValue(ctx, inferenceConfigKey{}, cfg)
}

// InferenceConfigFrom returns the overrides attached to ctx, if any.
func InferenceConfigFrom(ctx context.Context) (InferenceConfig, bool) {
	if ctx == nil {
		return InferenceConfig{}, false
	}
	cfg, ok := ctx.Value(inferenceConfigKey{}).(InferenceConfig)
	return cfg, ok
}
