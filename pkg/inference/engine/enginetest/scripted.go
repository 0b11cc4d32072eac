// Package enginetest provides a scripted engine for exercising agents and
// tool loops without a model provider.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// Step produces the response blocks for one inference call. It receives the
// turn as sent to the engine and the tool names advertised through the context.
type Step func(t *turns.Turn, toolNames []string) ([]turns.Block, error)

// ScriptedEngine replays a fixed list of steps, one per RunInference call.
type ScriptedEngine struct {
	mu    sync.Mutex
	steps []Step
	calls int
	seen  [][]string
}

var _ engine.Engine = (*ScriptedEngine)(nil)

func NewScriptedEngine(steps ...Step) *ScriptedEngine {
	return &ScriptedEngine{steps: steps}
}

func (s *ScriptedEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	var names []string
	if reg, ok := tools.RegistryFrom(ctx); ok {
		for _, def := range reg.ListTools() {
			names = append(names, def.Name)
		}
	}
	s.seen = append(s.seen, names)
	s.mu.Unlock()

	if idx >= len(s.steps) {
		return nil, errors.Errorf("scripted engine: no step for call %d", idx+1)
	}
	blocks, err := s.steps[idx](t, names)
	if err != nil {
		return nil, err
	}
	out := t.Clone()
	turns.AppendBlocks(out, blocks...)
	return out, nil
}

// Calls returns how many inference calls were made.
func (s *ScriptedEngine) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ToolNames returns the tool names advertised on the n-th call (0-based).
func (s *ScriptedEngine) ToolNames(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n >= len(s.seen) {
		return nil
	}
	return s.seen[n]
}

// Text answers with a single assistant text block.
func Text(text string) Step {
	return func(*turns.Turn, []string) ([]turns.Block, error) {
		return []turns.Block{turns.NewAssistantTextBlock(text)}, nil
	}
}

// Call answers with one tool call per (name, args) pair.
func Call(calls ...ToolCall) Step {
	return func(t *turns.Turn, _ []string) ([]turns.Block, error) {
		blocks := make([]turns.Block, 0, len(calls))
		for i, c := range calls {
			id := c.ID
			if id == "" {
				id = fmt.Sprintf("call_%d_%d", len(t.Blocks), i)
			}
			blocks = append(blocks, turns.NewToolCallBlock(id, c.Name, c.Args))
		}
		return blocks, nil
	}
}

// Fail makes the call return err.
func Fail(err error) Step {
	return func(*turns.Turn, []string) ([]turns.Block, error) {
		return nil, err
	}
}

// ToolCall describes one scripted tool call.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}
