package tools

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/itinerant/pkg/events"
)

type testContextKey string

type testInput struct {
	Value int    `json:"value" jsonschema:"description=Value to increment"`
	Label string `json:"label,omitempty"`
}

func TestToolFuncExecute_SupportsContextAndInputSignature(t *testing.T) {
	def, err := NewToolFromFunc("ctx_input_tool", "test",
		func(ctx context.Context, in testInput) (int, error) {
			require.NotNil(t, ctx)
			return in.Value + 1, nil
		},
	)
	require.NoError(t, err)

	out, err := def.Function.Execute([]byte(`{"value":41}`))
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestToolFuncExecuteWithContext_PassesProvidedContext(t *testing.T) {
	key := testContextKey("tool-test-key")
	def, err := NewToolFromFunc("ctx_passthrough_tool", "test",
		func(ctx context.Context, in testInput) (bool, error) {
			v, _ := ctx.Value(key).(string)
			return v == "ok" && in.Value == 7, nil
		},
	)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), key, "ok")
	out, err := def.Function.ExecuteWithContext(ctx, []byte(`{"value":7}`))
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestNewToolFromFunc_SchemaMarksOptionalFields(t *testing.T) {
	def, err := NewToolFromFunc("schema_tool", "test", func(in testInput) int { return in.Value })
	require.NoError(t, err)

	require.NotNil(t, def.Parameters)
	assert.Equal(t, "object", def.Parameters.Type)
	assert.Contains(t, def.Parameters.Required, "value")
	assert.NotContains(t, def.Parameters.Required, "label")
	_, ok := def.Parameters.Properties.Get("label")
	assert.True(t, ok)
}

func TestNewToolFromFunc_RejectsBadSignatures(t *testing.T) {
	_, err := NewToolFromFunc("x", "", 42)
	assert.Error(t, err)

	_, err = NewToolFromFunc("x", "", func(a, b int) int { return a + b })
	assert.Error(t, err)

	_, err = NewToolFromFunc("x", "", func(int) (int, int) { return 0, 0 })
	assert.Error(t, err)
}

func TestToolFuncExecute_MalformedArgumentsAreInvalidInput(t *testing.T) {
	def, err := NewToolFromFunc("x", "", func(in testInput) int { return in.Value })
	require.NoError(t, err)

	_, err = def.Function.Execute([]byte(`{"value":"nope"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRegistry_ListToolsIsSortedAndRejectsDuplicates(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		def, err := NewToolFromFunc(name, "", func(in testInput) int { return in.Value })
		require.NoError(t, err)
		require.NoError(t, reg.Register(def))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())

	def, err := NewToolFromFunc("alpha", "", func(in testInput) int { return 0 })
	require.NoError(t, err)
	assert.Error(t, reg.Register(def))
}

type recordingSink struct {
	count atomic.Int32
}

func (r *recordingSink) PublishEvent(events.Event) error {
	r.count.Add(1)
	return nil
}

func TestExecutor_ReportsToolErrorsAsResults(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	def, err := NewToolFromFunc("fails", "", func(in testInput) (int, error) {
		return 0, InvalidInputf("bad value %d", in.Value)
	})
	require.NoError(t, err)
	require.NoError(t, reg.Register(def))

	sink := &recordingSink{}
	ctx := events.WithEventSinks(context.Background(), sink)

	exec := NewDefaultToolExecutor(DefaultToolConfig())
	results, err := exec.ExecuteToolCalls(ctx, []ToolCall{
		{ID: "1", Name: "fails", Arguments: []byte(`{"value":3}`)},
		{ID: "2", Name: "missing", Arguments: []byte(`{}`)},
	}, reg)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Error, "bad value 3")
	assert.Equal(t, "fails", results[0].Name)
	assert.Equal(t, "tool not found: missing", results[1].Error)
	assert.Equal(t, int32(4), sink.count.Load())
}

func TestExecutor_AbortPolicyStopsOnError(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	def, err := NewToolFromFunc("fails", "", func(in testInput) (int, error) {
		return 0, errors.New("boom")
	})
	require.NoError(t, err)
	require.NoError(t, reg.Register(def))

	exec := NewDefaultToolExecutor(DefaultToolConfig().WithErrorHandling(ToolErrorAbort).WithMaxParallelTools(1))
	_, err = exec.ExecuteToolCalls(context.Background(), []ToolCall{
		{ID: "1", Name: "fails", Arguments: []byte(`{}`)},
		{ID: "2", Name: "fails", Arguments: []byte(`{}`)},
	}, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecutor_RunsCallsInParallelPreservingOrder(t *testing.T) {
	reg := NewInMemoryToolRegistry()
	var inFlight, peak atomic.Int32
	def, err := NewToolFromFunc("slow", "", func(ctx context.Context, in testInput) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return in.Value, nil
	})
	require.NoError(t, err)
	require.NoError(t, reg.Register(def))

	exec := NewDefaultToolExecutor(DefaultToolConfig().WithMaxParallelTools(3))
	calls := []ToolCall{}
	for i := 0; i < 3; i++ {
		calls = append(calls, ToolCall{ID: string(rune('a' + i)), Name: "slow", Arguments: []byte(`{"value":` + string(rune('0'+i)) + `}`)})
	}
	results, err := exec.ExecuteToolCalls(context.Background(), calls, reg)
	require.NoError(t, err)
	for i, r := range results {
		assert.Equal(t, i, r.Result)
	}
	assert.Greater(t, peak.Load(), int32(1))
}
