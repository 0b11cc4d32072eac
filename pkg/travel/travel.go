// Package travel is the entry point of the planner. An Assistant answers
// travel queries either with a single agent holding every travel tool or with
// the coordinator and its specialized agents.
package travel

import (
	"context"
	_ "embed"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/inference/agent"
	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/engine/factory"
	"github.com/go-go-golems/itinerant/pkg/inference/middleware"
	itools "github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/openai"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
	"github.com/go-go-golems/itinerant/pkg/trace"
	"github.com/go-go-golems/itinerant/pkg/travel/coordinator"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	traveltools "github.com/go-go-golems/itinerant/pkg/travel/tools"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

//go:embed prompt.md
var singleAgentPrompt string

// SingleAgentName names the agent used in single-agent mode.
const SingleAgentName = "travel_agent"

type Mode string

const (
	ModeSingle Mode = "single-agent"
	ModeMulti  Mode = "multi-agent"
)

const (
	multiAgentErrorPrefix  = "Error in multi-agent travel planning: "
	singleAgentErrorPrefix = "Error in travel planning: "
)

// Response is the answer to one query. Runs holds the recorded agent runs,
// the top-level agent first. Failed runs carry the error message in Text, an
// empty trace and Err.
type Response struct {
	Text  string                  `json:"text" yaml:"text"`
	Spans []trace.Span            `json:"spans" yaml:"spans"`
	Plan  *coordinator.TravelPlan `json:"plan,omitempty" yaml:"plan,omitempty"`
	Runs  []*turns.Run            `json:"-" yaml:"-"`
	Err   error                   `json:"-" yaml:"-"`
}

// Info describes the mode an Assistant ended up in.
type Info struct {
	Mode        Mode     `json:"mode" yaml:"mode"`
	Agents      []string `json:"agents" yaml:"agents"`
	Description string   `json:"description" yaml:"description"`
	// Fallback is set when multi-agent mode was requested but could not start.
	Fallback string `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

type options struct {
	multiAgent    bool
	eng           engine.Engine
	deps          *deps.Dependencies
	engineOptions []openai.Option
	coordOptions  []coordinator.Option
}

type Option func(*options)

// WithMultiAgent requests the coordinator and its specialized agents.
func WithMultiAgent(enabled bool) Option {
	return func(o *options) { o.multiAgent = enabled }
}

// WithEngine uses eng for every agent instead of creating engines from settings.
func WithEngine(eng engine.Engine) Option {
	return func(o *options) { o.eng = eng }
}

// WithDependencies uses d instead of building the service clients from settings.
func WithDependencies(d *deps.Dependencies) Option {
	return func(o *options) { o.deps = d }
}

func WithEngineOptions(opts ...openai.Option) Option {
	return func(o *options) { o.engineOptions = append(o.engineOptions, opts...) }
}

func WithCoordinatorOptions(opts ...coordinator.Option) Option {
	return func(o *options) { o.coordOptions = append(o.coordOptions, opts...) }
}

// planner holds the agents built for one model.
type planner struct {
	coord  *coordinator.Coordinator
	single *agent.Agent
}

// Assistant is built once per process. Agents are created lazily per model
// and reused by later queries.
type Assistant struct {
	settings *settings.StepSettings
	mode     Mode
	fallback error
	deps     *deps.Dependencies
	toolDefs []*itools.ToolDefinition

	eng          engine.Engine
	factory      *factory.StandardEngineFactory
	coordOptions []coordinator.Option

	mu       sync.Mutex
	planners map[string]*planner
}

// New builds an Assistant. When multi-agent mode is requested but a required
// credential is missing or a client cannot be created, the Assistant falls
// back to single-agent mode and logs a warning.
func New(s *settings.StepSettings, opts ...Option) (*Assistant, error) {
	if s == nil {
		s = settings.NewStepSettings()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &Assistant{
		settings:     s,
		mode:         ModeSingle,
		deps:         o.deps,
		eng:          o.eng,
		factory:      factory.NewStandardEngineFactory(s, o.engineOptions...),
		coordOptions: o.coordOptions,
		planners:     map[string]*planner{},
	}
	if s.Client != nil && s.Client.DelegationTimeout > 0 {
		a.coordOptions = append([]coordinator.Option{coordinator.WithDelegationTimeout(s.Client.DelegationTimeout)}, a.coordOptions...)
	}

	if o.multiAgent {
		if err := a.initMulti(o); err != nil {
			log.Warn().Err(err).Msg("multi-agent initialization failed, falling back to single-agent mode")
			a.fallback = err
		}
	}

	if a.deps == nil {
		d, err := deps.FromSettings(s)
		if err != nil {
			log.Warn().Err(err).Msg("travel services are not fully configured, affected tools will report errors")
			d = deps.Available(s)
		}
		a.deps = d
	}
	defs, err := traveltools.New(a.deps).Definitions()
	if err != nil {
		return nil, errors.Wrap(err, "build travel tools")
	}
	a.toolDefs = defs
	return a, nil
}

func (a *Assistant) initMulti(o *options) error {
	var missing []string
	for _, m := range a.settings.Missing() {
		if m == "OPENAI_API_KEY" && o.eng != nil {
			continue
		}
		if m != "OPENAI_API_KEY" && o.deps != nil {
			continue
		}
		missing = append(missing, m)
	}
	if len(missing) > 0 {
		return errors.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	if a.deps == nil {
		d, err := deps.FromSettings(a.settings)
		if err != nil {
			return err
		}
		a.deps = d
	}
	a.mode = ModeMulti
	if _, err := a.planner(""); err != nil {
		a.mode = ModeSingle
		return err
	}
	return nil
}

func (a *Assistant) Mode() Mode {
	return a.mode
}

// planner returns the agents for model, creating them on first use. An empty
// model selects the engine configured in the settings.
func (a *Assistant) planner(model string) (*planner, error) {
	model = strings.TrimSpace(model)
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.planners[model]; ok {
		return p, nil
	}

	eng := a.eng
	if eng == nil {
		var err error
		eng, err = a.factory.CreateEngine(model)
		if err != nil {
			return nil, errors.Wrap(err, "create engine")
		}
	}
	eng = middleware.NewEngineWithMiddleware(eng, middleware.NewTurnLoggingMiddleware(log.Logger))
	name := model
	if name == "" && a.settings.Chat != nil && a.settings.Chat.Engine != nil {
		name = *a.settings.Chat.Engine
	}

	p := &planner{}
	if a.mode == ModeMulti {
		opts := append([]coordinator.Option{coordinator.WithModel(name)}, a.coordOptions...)
		c, err := coordinator.New(eng, a.deps, opts...)
		if err != nil {
			return nil, err
		}
		p.coord = c
	} else {
		ag, err := agent.New(SingleAgentName, eng,
			agent.WithSystemPrompt(singleAgentPrompt),
			agent.WithModel(name),
			agent.WithTools(a.toolDefs...),
		)
		if err != nil {
			return nil, err
		}
		p.single = ag
	}
	a.planners[model] = p
	return p, nil
}

// Run answers query with model. It never fails: errors are reported in the
// response text, with an empty trace.
func (a *Assistant) Run(ctx context.Context, query, model string) Response {
	if a.mode == ModeMulti {
		return a.runMulti(ctx, query, model)
	}
	return a.runSingle(ctx, query, model)
}

func (a *Assistant) runMulti(ctx context.Context, query, model string) Response {
	p, err := a.planner(model)
	if err != nil {
		return failure(multiAgentErrorPrefix, err)
	}
	res, err := p.coord.Run(ctx, query)
	if err != nil {
		return failure(multiAgentErrorPrefix, err)
	}
	spans, err := trace.FromRun(res.Run)
	if err != nil {
		return failure(multiAgentErrorPrefix, err)
	}
	log.Info().Int("delegations", len(res.Delegations)).Str("destination", res.Plan.Destination).
		Msg("multi-agent travel plan ready")
	return Response{
		Text:  res.Report,
		Spans: spans,
		Plan:  res.Plan.Clone(),
		Runs:  runs(res),
	}
}

func (a *Assistant) runSingle(ctx context.Context, query, model string) Response {
	p, err := a.planner(model)
	if err != nil {
		return failure(singleAgentErrorPrefix, err)
	}
	res, err := p.single.Run(ctx, query)
	if err != nil {
		return failure(singleAgentErrorPrefix, err)
	}
	run := turns.NewRun(res.RunID, SingleAgentName, res.Turn)
	spans, err := trace.FromRun(run)
	if err != nil {
		return failure(singleAgentErrorPrefix, err)
	}
	return Response{Text: res.Text, Spans: spans, Runs: []*turns.Run{run}}
}

func runs(res *coordinator.Result) []*turns.Run {
	out := []*turns.Run{res.Run}
	for _, r := range res.AgentRuns {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func failure(prefix string, err error) Response {
	log.Error().Err(err).Msg("travel planning failed")
	return Response{Text: prefix + err.Error(), Spans: []trace.Span{}, Err: err}
}

// Info reports the active mode and its agents.
func (a *Assistant) Info() Info {
	if a.mode == ModeMulti {
		names := []string{}
		if p, err := a.planner(""); err == nil {
			names = p.coord.AgentNames()
		}
		return Info{
			Mode:        ModeMulti,
			Agents:      names,
			Description: "A coordinator delegates to specialized flight, hotel, restaurant, activity and weather agents and synthesizes their results into a travel plan.",
		}
	}
	info := Info{
		Mode:        ModeSingle,
		Agents:      []string{SingleAgentName},
		Description: "One agent with direct access to mapping, places, weather, location, address validation and web search tools.",
	}
	if a.fallback != nil {
		info.Fallback = a.fallback.Error()
	}
	return info
}
