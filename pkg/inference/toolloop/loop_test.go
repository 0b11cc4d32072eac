package toolloop

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/itinerant/pkg/inference/engine/enginetest"
	"github.com/go-go-golems/itinerant/pkg/inference/toolblocks"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

type echoIn struct {
	Text string `json:"text"`
}

func newEchoRegistry(t *testing.T) *tools.InMemoryToolRegistry {
	reg := tools.NewInMemoryToolRegistry()
	echo, err := tools.NewToolFromFunc("echo", "Echo back the provided text", func(in echoIn) (map[string]any, error) {
		return map[string]any{"echo": in.Text}, nil
	})
	require.NoError(t, err)
	final, err := tools.NewToolFromFunc("final_result", "Return the final answer", func(in echoIn) string { return in.Text })
	require.NoError(t, err)
	require.NoError(t, reg.Register(echo, final))
	return reg
}

func TestLoop_ExecutesToolsUntilTextAnswer(t *testing.T) {
	eng := enginetest.NewScriptedEngine(
		enginetest.Call(enginetest.ToolCall{ID: "call-1", Name: "echo", Args: map[string]any{"text": "hello"}}),
		enginetest.Text("done"),
	)
	loop := New(WithEngine(eng), WithRegistry(newEchoRegistry(t)))

	out, err := loop.RunLoop(context.Background(), turns.NewTurnBuilder().WithUserPrompt("hi").Build())
	require.NoError(t, err)
	require.Equal(t, 2, eng.Calls())
	assert.Equal(t, []string{"echo", "final_result"}, eng.ToolNames(0))

	kinds := []turns.BlockKind{}
	for _, b := range out.Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []turns.BlockKind{
		turns.BlockKindUser, turns.BlockKindToolCall, turns.BlockKindToolUse, turns.BlockKindLLMText,
	}, kinds)
	assert.JSONEq(t, `{"echo":"hello"}`, out.Blocks[2].Payload[turns.PayloadKeyResult].(string))
	txt, ok := turns.LastAssistantText(out)
	require.True(t, ok)
	assert.Equal(t, "done", txt)
}

func TestLoop_OutputToolStopsWithoutExecuting(t *testing.T) {
	eng := enginetest.NewScriptedEngine(
		enginetest.Call(
			enginetest.ToolCall{ID: "o1", Name: "final_result", Args: map[string]any{"text": "answer"}},
			enginetest.ToolCall{ID: "e1", Name: "echo", Args: map[string]any{"text": "late"}},
		),
	)
	loop := New(WithEngine(eng), WithRegistry(newEchoRegistry(t)), WithOutputTools("final_result"))

	out, err := loop.RunLoop(context.Background(), turns.NewTurnBuilder().WithUserPrompt("hi").Build())
	require.NoError(t, err)
	assert.Equal(t, 1, eng.Calls())

	require.Len(t, out.Blocks, 5)
	ack := out.Blocks[3]
	assert.Equal(t, OutputToolAck, ack.Payload[turns.PayloadKeyResult])
	assert.True(t, turns.HasBlockMetadata(ack, turns.MetaKeyOutputTool, "final_result"))
	assert.Equal(t, OutputToolSkipped, out.Blocks[4].Payload[turns.PayloadKeyResult])
}

func TestLoop_UnknownToolIsReportedToModel(t *testing.T) {
	eng := enginetest.NewScriptedEngine(
		enginetest.Call(enginetest.ToolCall{ID: "x", Name: "teleport", Args: map[string]any{}}),
		enginetest.Text("sorry"),
	)
	loop := New(WithEngine(eng), WithRegistry(newEchoRegistry(t)))

	out, err := loop.RunLoop(context.Background(), &turns.Turn{})
	require.NoError(t, err)
	assert.Equal(t, "tool not found: teleport", out.Blocks[1].Payload[turns.PayloadKeyError])
}

func TestLoop_MaxIterations(t *testing.T) {
	steps := []enginetest.Step{}
	for i := 0; i < 3; i++ {
		steps = append(steps, enginetest.Call(enginetest.ToolCall{Name: "echo", Args: map[string]any{"text": "again"}}))
	}
	eng := enginetest.NewScriptedEngine(steps...)
	loop := New(
		WithEngine(eng),
		WithRegistry(newEchoRegistry(t)),
		WithLoopConfig(DefaultLoopConfig().WithMaxIterations(3)),
	)

	out, err := loop.RunLoop(context.Background(), &turns.Turn{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxIterations))
	assert.NotNil(t, out)
	assert.Equal(t, 3, eng.Calls())
}

func TestLoop_EngineErrorPropagates(t *testing.T) {
	eng := enginetest.NewScriptedEngine(enginetest.Fail(errors.New("provider down")))
	loop := New(WithEngine(eng), WithRegistry(newEchoRegistry(t)))

	_, err := loop.RunLoop(context.Background(), &turns.Turn{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestLoop_InvalidOutputIsRetriedOnce(t *testing.T) {
	eng := enginetest.NewScriptedEngine(
		enginetest.Call(enginetest.ToolCall{ID: "o1", Name: "final_result", Args: map[string]any{"text": ""}}),
		enginetest.Call(enginetest.ToolCall{ID: "o2", Name: "final_result", Args: map[string]any{"text": "fixed"}}),
	)
	validator := func(call toolblocks.ToolCall) error {
		if call.Arguments["text"] == "" {
			return errors.New("text must not be empty")
		}
		return nil
	}
	loop := New(
		WithEngine(eng),
		WithRegistry(newEchoRegistry(t)),
		WithOutputTools("final_result"),
		WithOutputValidator(validator, 1),
	)

	out, err := loop.RunLoop(context.Background(), &turns.Turn{})
	require.NoError(t, err)
	assert.Equal(t, 2, eng.Calls())
	assert.Contains(t, out.Blocks[1].Payload[turns.PayloadKeyError], "text must not be empty")
	assert.True(t, turns.HasBlockMetadata(out.Blocks[3], turns.MetaKeyOutputTool, "final_result"))
}
