package engine

import (
	"context"

	"github.com/go-go-golems/itinerant/pkg/turns"
)

// Engine represents an AI inference engine. Given a Turn holding the system
// prompt and the conversation so far, it returns the Turn extended with the
// model's response blocks (llm_text and/or tool_call).
//
// Tools available to the model are read from the context
// (see tools.WithRegistry); per-call parameters from WithInferenceConfig.
type Engine interface {
	RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, t *turns.Turn) (*turns.Turn, error)

func (f EngineFunc) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	return f(ctx, t)
}
