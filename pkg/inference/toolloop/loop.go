package toolloop

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/toolblocks"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// ErrMaxIterations is returned when the model keeps calling tools past the configured cap.
var ErrMaxIterations = errors.New("maximum tool loop iterations reached")

// SnapshotHook observes the turn at the loop's phase boundaries.
type SnapshotHook func(ctx context.Context, t *turns.Turn, phase string)

// Loop alternates engine inference with tool execution until the model
// answers without tool calls, calls one of the output tools, or the
// iteration cap is hit.
type Loop struct {
	eng      engine.Engine
	registry tools.ToolRegistry
	loopCfg  LoopConfig
	toolCfg  tools.ToolConfig
	executor tools.ToolExecutor

	outputTools      map[string]bool
	outputValidator  OutputValidator
	maxOutputRetries int
	snapshotHook     SnapshotHook
}

// OutputValidator checks the arguments of an output tool call. A non-nil
// error is sent back to the model, which gets another chance to answer.
type OutputValidator func(call toolblocks.ToolCall) error

type Option func(*Loop)

func New(opts ...Option) *Loop {
	l := &Loop{
		loopCfg:     DefaultLoopConfig(),
		toolCfg:     tools.DefaultToolConfig(),
		outputTools: map[string]bool{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.executor == nil {
		l.executor = tools.NewDefaultToolExecutor(l.toolCfg)
	}
	return l
}

func WithEngine(eng engine.Engine) Option {
	return func(l *Loop) { l.eng = eng }
}

func WithRegistry(reg tools.ToolRegistry) Option {
	return func(l *Loop) { l.registry = reg }
}

func WithLoopConfig(cfg LoopConfig) Option {
	return func(l *Loop) { l.loopCfg = cfg }
}

func WithToolConfig(cfg tools.ToolConfig) Option {
	return func(l *Loop) { l.toolCfg = cfg }
}

func WithExecutor(exec tools.ToolExecutor) Option {
	return func(l *Loop) { l.executor = exec }
}

// WithOutputTools names tools whose call ends the loop instead of being executed.
// They must still be registered so the model sees their schema.
func WithOutputTools(names ...string) Option {
	return func(l *Loop) {
		for _, n := range names {
			l.outputTools[n] = true
		}
	}
}

// WithOutputValidator validates output tool calls, allowing up to maxRetries corrections.
func WithOutputValidator(v OutputValidator, maxRetries int) Option {
	return func(l *Loop) {
		l.outputValidator = v
		l.maxOutputRetries = maxRetries
	}
}

func WithSnapshotHook(h SnapshotHook) Option {
	return func(l *Loop) { l.snapshotHook = h }
}

func (l *Loop) snapshot(ctx context.Context, t *turns.Turn, phase string) {
	if l.snapshotHook != nil {
		l.snapshotHook(ctx, t, phase)
	}
}

// RunLoop runs the tool calling workflow starting from initialTurn and returns
// the final turn. On ErrMaxIterations the turn reached so far is returned too.
func (l *Loop) RunLoop(ctx context.Context, initialTurn *turns.Turn) (*turns.Turn, error) {
	if l == nil {
		return nil, errors.New("tool loop is nil")
	}
	if l.eng == nil {
		return nil, errors.New("tool loop engine is nil")
	}
	if l.registry == nil {
		return nil, errors.New("tool loop registry is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := initialTurn
	if t == nil {
		t = &turns.Turn{}
	}
	ctx = tools.WithRegistry(ctx, l.registry)

	maxIterations := l.loopCfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultLoopConfig().MaxIterations
	}

	outputRetries := 0
	for i := 0; i < maxIterations; i++ {
		log.Debug().Int("iteration", i+1).Msg("toolloop: engine inference step")

		l.snapshot(ctx, t, "pre_inference")
		updated, err := l.eng.RunInference(ctx, t)
		if err != nil {
			return nil, errors.Wrap(err, "inference")
		}
		l.snapshot(ctx, updated, "post_inference")

		calls := toolblocks.ExtractPendingToolCalls(updated)
		if len(calls) == 0 {
			return updated, nil
		}

		if out, ok := l.firstOutputCall(calls); ok {
			if err := l.validateOutput(out); err != nil && outputRetries < l.maxOutputRetries {
				outputRetries++
				log.Debug().Err(err).Str("tool", out.Name).Int("retry", outputRetries).Msg("toolloop: invalid output, asking model to retry")
				l.rejectOutput(updated, calls, out, err)
				t = updated
				continue
			}
			l.acknowledgeOutput(updated, calls)
			l.snapshot(ctx, updated, "output")
			return updated, nil
		}

		results, err := l.executeTools(ctx, calls)
		if err != nil {
			return nil, err
		}
		toolblocks.AppendToolResultsBlocks(updated, results)
		l.snapshot(ctx, updated, "post_tools")

		t = updated
	}

	log.Warn().Int("max_iterations", maxIterations).Msg("toolloop: maximum iterations reached")
	return t, errors.Wrapf(ErrMaxIterations, "after %d iterations", maxIterations)
}

func (l *Loop) firstOutputCall(calls []toolblocks.ToolCall) (toolblocks.ToolCall, bool) {
	for _, c := range calls {
		if l.outputTools[c.Name] {
			return c, true
		}
	}
	return toolblocks.ToolCall{}, false
}

func (l *Loop) validateOutput(call toolblocks.ToolCall) error {
	if l.outputValidator == nil {
		return nil
	}
	return l.outputValidator(call)
}

func (l *Loop) rejectOutput(t *turns.Turn, calls []toolblocks.ToolCall, rejected toolblocks.ToolCall, err error) {
	for _, c := range calls {
		if c.ID == rejected.ID {
			turns.AppendBlock(t, turns.NewToolErrorBlock(c.ID, c.Name, "Fix the errors and try again: "+err.Error()))
			continue
		}
		turns.AppendBlock(t, turns.NewToolUseBlock(c.ID, c.Name, OutputToolSkipped))
	}
}

// acknowledgeOutput answers every pending call so the turn stays well formed:
// the first output call is acknowledged, everything else is marked skipped.
func (l *Loop) acknowledgeOutput(t *turns.Turn, calls []toolblocks.ToolCall) {
	acknowledged := false
	for _, c := range calls {
		if l.outputTools[c.Name] && !acknowledged {
			acknowledged = true
			b := turns.NewToolUseBlock(c.ID, c.Name, OutputToolAck)
			turns.AppendBlock(t, turns.WithBlockMetadata(b, map[string]any{turns.MetaKeyOutputTool: c.Name}))
			continue
		}
		turns.AppendBlock(t, turns.NewToolUseBlock(c.ID, c.Name, OutputToolSkipped))
	}
}

func (l *Loop) executeTools(ctx context.Context, calls []toolblocks.ToolCall) ([]toolblocks.ToolResult, error) {
	toolCalls := make([]tools.ToolCall, 0, len(calls))
	for _, c := range calls {
		toolCalls = append(toolCalls, tools.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.RawArguments()})
	}

	results, err := l.executor.ExecuteToolCalls(ctx, toolCalls, l.registry)
	if err != nil {
		return nil, errors.Wrap(err, "execute tools")
	}

	out := make([]toolblocks.ToolResult, 0, len(results))
	for i, r := range results {
		tr := toolblocks.ToolResult{ID: calls[i].ID, Name: calls[i].Name}
		switch {
		case r == nil:
			tr.Error = "tool was not executed"
		case r.Error != "":
			tr.Error = r.Error
		default:
			tr.Content = encodeResult(r.Result)
		}
		out = append(out, tr)
	}
	return out, nil
}

func encodeResult(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
