// Package middleware wraps engines with cross-cutting behaviour applied to
// every inference call.
package middleware

import (
	"context"

	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// HandlerFunc represents a function that processes a Turn.
// It returns the updated Turn, possibly mutating the input.
type HandlerFunc func(ctx context.Context, t *turns.Turn) (*turns.Turn, error)

// Middleware wraps a HandlerFunc with additional functionality.
// Middleware are applied in order: Chain(m1, m2, m3) results in m1(m2(m3(handler))).
type Middleware func(HandlerFunc) HandlerFunc

// Chain composes multiple middleware into a single HandlerFunc.
func Chain(handler HandlerFunc, middlewares ...Middleware) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func engineHandlerFunc(e engine.Engine) HandlerFunc {
	return func(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
		return e.RunInference(ctx, t)
	}
}

// EngineWithMiddleware wraps an Engine with a middleware chain.
type EngineWithMiddleware struct {
	handler HandlerFunc
}

var _ engine.Engine = (*EngineWithMiddleware)(nil)

func NewEngineWithMiddleware(e engine.Engine, middlewares ...Middleware) *EngineWithMiddleware {
	return &EngineWithMiddleware{
		handler: Chain(engineHandlerFunc(e), middlewares...),
	}
}

// RunInference executes the middleware chain followed by the underlying engine.
func (e *EngineWithMiddleware) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	return e.handler(ctx, t)
}
