// Package agent runs one LLM agent: a system prompt, a tool registry and an
// optional structured output contract, driven by the tool loop.
package agent

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/events"
	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/toolblocks"
	"github.com/go-go-golems/itinerant/pkg/inference/toolloop"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/observability"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

type Agent struct {
	name          string
	model         string
	systemPrompt  string
	engine        engine.Engine
	registry      *tools.InMemoryToolRegistry
	outputs       []*OutputTool
	loopCfg       toolloop.LoopConfig
	toolCfg       tools.ToolConfig
	outputRetries int
}

type Option func(*Agent) error

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) error {
		a.systemPrompt = prompt
		return nil
	}
}

// WithModel records the model identifier in turn metadata and events.
func WithModel(model string) Option {
	return func(a *Agent) error {
		a.model = model
		return nil
	}
}

func WithTools(defs ...*tools.ToolDefinition) Option {
	return func(a *Agent) error {
		return a.registry.Register(defs...)
	}
}

// WithOutputTools makes the agent answer through one of the given output tools.
func WithOutputTools(outputs ...OutputTool) Option {
	return func(a *Agent) error {
		for i := range outputs {
			o := outputs[i]
			if err := o.compile(); err != nil {
				return err
			}
			if err := a.registry.RegisterTool(o.Name, o.definition()); err != nil {
				return err
			}
			a.outputs = append(a.outputs, &o)
		}
		return nil
	}
}

func WithLoopConfig(cfg toolloop.LoopConfig) Option {
	return func(a *Agent) error {
		a.loopCfg = cfg
		return nil
	}
}

func WithToolConfig(cfg tools.ToolConfig) Option {
	return func(a *Agent) error {
		a.toolCfg = cfg
		return nil
	}
}

// WithOutputRetries sets how many times an invalid structured answer is sent
// back to the model for correction.
func WithOutputRetries(n int) Option {
	return func(a *Agent) error {
		a.outputRetries = n
		return nil
	}
}

func New(name string, eng engine.Engine, opts ...Option) (*Agent, error) {
	if eng == nil {
		return nil, errors.Errorf("agent %s: engine is nil", name)
	}
	a := &Agent{
		name:          name,
		engine:        eng,
		registry:      tools.NewInMemoryToolRegistry(),
		loopCfg:       toolloop.DefaultLoopConfig(),
		toolCfg:       tools.DefaultToolConfig(),
		outputRetries: 1,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, errors.Wrapf(err, "agent %s", name)
		}
	}
	return a, nil
}

func (a *Agent) Name() string {
	return a.name
}

// ToolNames lists every tool advertised to the model, output tools included.
func (a *Agent) ToolNames() []string {
	return a.registry.Names()
}

// Result is the outcome of one agent run.
type Result struct {
	RunID string
	Turn  *turns.Turn
	// Text is the last assistant text, if the model produced any.
	Text string
	// Output is set when the model answered through an output tool.
	Output *Output
}

// Messages splits the run's turn into request/response messages.
func (r *Result) Messages() []turns.Turn {
	if r == nil {
		return nil
	}
	return turns.SplitMessages(r.Turn)
}

// Run executes the agent on prompt. Engine failures and exhausted iterations
// are returned as errors; the partial turn is still returned on ErrMaxIterations.
func (a *Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	runID := uuid.NewString()
	ctx = events.WithMetadata(ctx, events.EventMetadata{RunID: runID, Agent: a.name, Model: a.model})
	ctx, span := observability.StartSpan(ctx, "agent.run", "agent", a.name, "run_id", runID)

	events.PublishEventToContext(ctx, events.NewAgentStartEvent(events.MetadataFromContext(ctx), prompt))
	log.Debug().Str("agent", a.name).Str("run_id", runID).Str("prompt", prompt).Msg("agent run started")

	tb := turns.NewTurnBuilder().
		WithID(runID).
		WithSystemPrompt(a.systemPrompt).
		WithUserPrompt(prompt).
		WithMetadata(turns.MetaKeyAgent, a.name).
		WithMetadata(turns.MetaKeyRunID, runID)
	if a.model != "" {
		tb = tb.WithMetadata(turns.MetaKeyModel, a.model)
	}
	t := tb.Build()

	opts := []toolloop.Option{
		toolloop.WithEngine(a.engine),
		toolloop.WithRegistry(a.registry),
		toolloop.WithLoopConfig(a.loopCfg),
		toolloop.WithToolConfig(a.toolCfg),
	}
	if len(a.outputs) > 0 {
		names := make([]string, 0, len(a.outputs))
		for _, o := range a.outputs {
			names = append(names, o.Name)
		}
		opts = append(opts,
			toolloop.WithOutputTools(names...),
			toolloop.WithOutputValidator(a.validate, a.outputRetries),
		)
		if _, ok := engine.InferenceConfigFrom(ctx); !ok {
			ctx = engine.WithInferenceConfig(ctx, engine.InferenceConfig{ToolChoice: engine.ToolChoiceRequired})
		}
	}

	out, err := toolloop.New(opts...).RunLoop(ctx, t)
	if out == nil {
		out = t
	}
	res := &Result{RunID: runID, Turn: out}
	res.Text, _ = turns.LastAssistantText(out)
	res.Output = a.findOutput(out)

	if err != nil {
		events.PublishEventToContext(ctx, events.NewErrorEvent(events.MetadataFromContext(ctx), err))
		observability.EndSpan(span, err)
		return res, errors.Wrapf(err, "agent %s", a.name)
	}

	outputName := ""
	if res.Output != nil {
		outputName = res.Output.Name
	}
	events.PublishEventToContext(ctx, events.NewAgentFinalEvent(events.MetadataFromContext(ctx), res.Text, outputName))
	observability.EndSpan(span, nil)
	return res, nil
}

func (a *Agent) output(name string) *OutputTool {
	for _, o := range a.outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func (a *Agent) validate(call toolblocks.ToolCall) error {
	o := a.output(call.Name)
	if o == nil {
		return errors.Errorf("unknown output tool %s", call.Name)
	}
	return o.Validate(call.Arguments)
}

// findOutput locates the output call acknowledged by the tool loop.
func (a *Agent) findOutput(t *turns.Turn) *Output {
	if len(a.outputs) == 0 || t == nil {
		return nil
	}
	ackID := ""
	for i := len(t.Blocks) - 1; i >= 0; i-- {
		b := t.Blocks[i]
		if b.Kind != turns.BlockKindToolUse {
			continue
		}
		if _, ok := b.Metadata[turns.MetaKeyOutputTool]; ok {
			ackID, _ = b.Payload[turns.PayloadKeyID].(string)
			break
		}
	}
	if ackID == "" {
		return nil
	}
	for _, b := range t.Blocks {
		if b.Kind != turns.BlockKindToolCall || b.ID != ackID {
			continue
		}
		name, _ := b.Payload[turns.PayloadKeyName].(string)
		args := toolblocks.ArgumentsOf(b)
		raw, err := json.Marshal(args)
		if err != nil {
			raw = json.RawMessage("{}")
		}
		out := &Output{Name: name, Args: raw}
		if o := a.output(name); o != nil {
			if err := o.Validate(args); err != nil {
				out.ValidationError = err.Error()
			}
		}
		return out
	}
	return nil
}
