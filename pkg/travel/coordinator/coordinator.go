// Package coordinator implements the top-level travel coordinator: an agent
// whose tools delegate sub-tasks to the specialized agents and whose answer is
// synthesized, together with the delegation records, into a TravelPlan.
package coordinator

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/inference/agent"
	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/toolloop"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/agents"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

const Name = "travel_coordinator"

// ErrNoPlan is returned when the coordinator ends without a valid synthesis.
var ErrNoPlan = errors.New("coordinator produced no travel plan")

const DefaultDelegationTimeout = 60 * time.Second

const systemPrompt = `You are the Travel Coordinator Agent, the central orchestrator for comprehensive travel planning.

Your role is to:
1. Analyze the user's travel query to understand their needs
2. Delegate specific tasks to specialized agents using the available tools
3. Synthesize all agent responses into a comprehensive travel plan
4. Create a detailed day-by-day itinerary

Available specialized agents via tools:
- flight_search_delegate: flights and transportation options
- hotel_search_delegate: accommodations and lodging
- restaurant_search_delegate: dining recommendations
- activity_search_delegate: activities and attractions
- weather_forecast_delegate: weather information

Process:
1. Extract origin, destination, dates, duration and preferences from the query
2. Call the weather agent first to understand conditions
3. Delegate to the flight, hotel, restaurant and activity agents as the query requires
4. Synthesize all responses into a coherent travel plan
5. Build a daily itinerary with specific times and locations

Include practical details: transportation options and costs, accommodation in
different price ranges, daily schedules with times, restaurants for each meal,
weather-appropriate suggestions and backup plans for bad weather.

When you are done, call final_result with the destination, the duration, one
itinerary entry per day and the estimated total cost.`

// Coordinator is built once and may run many queries.
type Coordinator struct {
	eng               engine.Engine
	model             string
	deps              *deps.Dependencies
	specialists       map[agents.Domain]*agents.Specialist
	loopCfg           toolloop.LoopConfig
	delegationTimeout time.Duration
	maxParallel       int
}

type Option func(*Coordinator) error

func WithModel(model string) Option {
	return func(c *Coordinator) error {
		c.model = model
		return nil
	}
}

func WithLoopConfig(cfg toolloop.LoopConfig) Option {
	return func(c *Coordinator) error {
		c.loopCfg = cfg
		return nil
	}
}

// WithDelegationTimeout bounds each delegation, specialist run included.
func WithDelegationTimeout(d time.Duration) Option {
	return func(c *Coordinator) error {
		if d <= 0 {
			return errors.Errorf("invalid delegation timeout %s", d)
		}
		c.delegationTimeout = d
		return nil
	}
}

// WithMaxParallelDelegations bounds how many delegations run at once when the
// model requests several in one response.
func WithMaxParallelDelegations(n int) Option {
	return func(c *Coordinator) error {
		c.maxParallel = n
		return nil
	}
}

// WithSpecialist replaces the specialist of its domain.
func WithSpecialist(s *agents.Specialist) Option {
	return func(c *Coordinator) error {
		if s == nil {
			return errors.New("nil specialist")
		}
		c.specialists[s.Domain()] = s
		return nil
	}
}

// New builds a coordinator whose specialists share eng unless replaced.
func New(eng engine.Engine, d *deps.Dependencies, opts ...Option) (*Coordinator, error) {
	if eng == nil {
		return nil, errors.New("coordinator: engine is nil")
	}
	if d == nil {
		return nil, errors.New("coordinator: no dependencies")
	}
	c := &Coordinator{
		eng:               eng,
		deps:              d,
		specialists:       map[agents.Domain]*agents.Specialist{},
		loopCfg:           toolloop.DefaultLoopConfig().WithMaxIterations(15),
		delegationTimeout: DefaultDelegationTimeout,
		maxParallel:       tools.DefaultToolConfig().MaxParallelTools,
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, errors.Wrap(err, "coordinator")
		}
	}
	for _, dom := range agents.Domains() {
		if _, ok := c.specialists[dom]; ok {
			continue
		}
		s, err := agents.New(dom, eng, agents.WithModel(c.model))
		if err != nil {
			return nil, err
		}
		c.specialists[dom] = s
	}
	return c, nil
}

// AgentNames lists the specialists followed by the coordinator itself.
func (c *Coordinator) AgentNames() []string {
	out := make([]string, 0, len(c.specialists)+1)
	for _, d := range agents.Domains() {
		out = append(out, d.AgentName())
	}
	return append(out, Name)
}

// Result is the outcome of one coordinator run.
type Result struct {
	Plan   *TravelPlan
	Report string
	// Run holds the coordinator's own messages.
	Run *turns.Run
	// Delegations lists every delegation in call order, with the specialist runs.
	Delegations []DelegationRecord
	AgentRuns   []*turns.Run
}

// Run plans a trip for query. Delegation failures are part of the plan; only
// engine failures of the coordinator and a missing synthesis are errors.
func (c *Coordinator) Run(ctx context.Context, query string) (*Result, error) {
	col := &collector{}
	defs, err := c.delegationTools(col)
	if err != nil {
		return nil, err
	}
	toolCfg := tools.DefaultToolConfig().
		WithExecutionTimeout(c.delegationTimeout).
		WithMaxParallelTools(c.maxParallel)

	a, err := agent.New(Name, c.eng,
		agent.WithSystemPrompt(systemPrompt),
		agent.WithModel(c.model),
		agent.WithTools(defs...),
		agent.WithOutputTools(agent.NewOutputTool[Synthesis](agents.OutputFinalResult, "Return the synthesized travel plan.")),
		agent.WithLoopConfig(c.loopCfg),
		agent.WithToolConfig(toolCfg),
	)
	if err != nil {
		return nil, err
	}

	res, err := a.Run(ctx, query)
	records, runs := col.all()
	out := &Result{Delegations: records, AgentRuns: runs}
	if res != nil {
		out.Run = turns.NewRun(res.RunID, Name, res.Turn)
	}
	if err != nil {
		return out, err
	}
	if !res.Output.Valid() {
		if res.Output != nil {
			return out, errors.Wrap(ErrNoPlan, res.Output.ValidationError)
		}
		return out, ErrNoPlan
	}

	var syn Synthesis
	if err := res.Output.Decode(&syn); err != nil {
		return out, errors.Wrap(ErrNoPlan, err.Error())
	}
	out.Plan = assemble(query, syn, col)
	out.Report, err = RenderReport(out.Plan)
	if err != nil {
		return out, err
	}
	return out, nil
}

func assemble(query string, syn Synthesis, col *collector) *TravelPlan {
	p := &TravelPlan{
		Query:              query,
		Destination:        syn.Destination,
		Duration:           syn.Duration,
		DailyItinerary:     syn.DailyItinerary,
		TotalEstimatedCost: syn.TotalEstimatedCost,
	}
	if p.DailyItinerary == nil {
		p.DailyItinerary = []map[string]any{}
	}
	for dom, rec := range col.last() {
		rec := rec
		p.setRecord(dom, &rec)
	}
	if days, ok := DurationDays(p.Duration); ok && days != len(p.DailyItinerary) {
		log.Warn().Str("duration", p.Duration).Int("itinerary_days", len(p.DailyItinerary)).
			Msg("trip duration does not match the itinerary length")
	}
	return p
}
