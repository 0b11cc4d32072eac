// Package agents implements the specialized travel agents. Each agent owns a
// system prompt, one search tool and a structured output contract, and
// reports a DomainResult.
package agents

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/inference/agent"
	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/toolblocks"
	"github.com/go-go-golems/itinerant/pkg/inference/toolloop"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// Names of the output tools every specialist answers through.
const (
	OutputFinalResult   = "final_result"
	OutputReportFailure = "report_failure"
)

// Specialist is one specialized agent. It is safe for concurrent use; every
// Run builds its own tool registry bound to the given dependencies.
type Specialist struct {
	domain    Domain
	eng       engine.Engine
	model     string
	prompt    string
	toolName  string
	toolDesc  string
	newTool   func(*deps.Dependencies) interface{}
	output    agent.OutputTool
	newResult func() successResult
	extra     []agent.Option
}

type Option func(*Specialist)

func WithModel(model string) Option {
	return func(s *Specialist) {
		s.model = model
	}
}

func WithLoopConfig(cfg toolloop.LoopConfig) Option {
	return func(s *Specialist) {
		s.extra = append(s.extra, agent.WithLoopConfig(cfg))
	}
}

func WithToolConfig(cfg tools.ToolConfig) Option {
	return func(s *Specialist) {
		s.extra = append(s.extra, agent.WithToolConfig(cfg))
	}
}

// WithOutputRetries sets how often an invalid final_result is sent back for correction.
func WithOutputRetries(n int) Option {
	return func(s *Specialist) {
		s.extra = append(s.extra, agent.WithOutputRetries(n))
	}
}

// New returns the specialist of domain d.
func New(d Domain, eng engine.Engine, opts ...Option) (*Specialist, error) {
	if eng == nil {
		return nil, errors.Errorf("%s: engine is nil", d.AgentName())
	}
	s := &Specialist{domain: d, eng: eng}
	switch d {
	case DomainFlight:
		s.prompt, s.toolName = flightPrompt, "flight_search"
		s.toolDesc = "Search for flights between origin and destination."
		s.newTool = func(dd *deps.Dependencies) interface{} { return flightSearch(dd) }
		s.output = agent.NewOutputTool[FlightResult](OutputFinalResult, "Return the flight recommendations.")
		s.newResult = func() successResult { return &FlightResult{} }
	case DomainHotel:
		s.prompt, s.toolName = hotelPrompt, "hotel_search"
		s.toolDesc = "Search for hotels and accommodations in a location."
		s.newTool = func(dd *deps.Dependencies) interface{} { return hotelSearch(dd) }
		s.output = agent.NewOutputTool[HotelResult](OutputFinalResult, "Return the hotel recommendations.")
		s.newResult = func() successResult { return &HotelResult{} }
	case DomainRestaurant:
		s.prompt, s.toolName = restaurantPrompt, "restaurant_search"
		s.toolDesc = "Search for restaurants in a location."
		s.newTool = func(dd *deps.Dependencies) interface{} { return restaurantSearch(dd) }
		s.output = agent.NewOutputTool[RestaurantResult](OutputFinalResult, "Return the restaurant recommendations.")
		s.newResult = func() successResult { return &RestaurantResult{} }
	case DomainActivity:
		s.prompt, s.toolName = activityPrompt, "activity_search"
		s.toolDesc = "Search for activities and attractions in a location."
		s.newTool = func(dd *deps.Dependencies) interface{} { return activitySearch(dd) }
		s.output = agent.NewOutputTool[ActivityResult](OutputFinalResult, "Return the activity recommendations.")
		s.newResult = func() successResult { return &ActivityResult{} }
	case DomainWeather:
		s.prompt, s.toolName = weatherPrompt, "weather_forecast"
		s.toolDesc = "Get the weather forecast for a location."
		s.newTool = func(dd *deps.Dependencies) interface{} { return weatherForecast(dd) }
		s.output = agent.NewOutputTool[WeatherResult](OutputFinalResult, "Return the weather report.")
		s.newResult = func() successResult { return &WeatherResult{} }
	default:
		return nil, errors.Errorf("unknown agent domain %q", d)
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Specialist) Domain() Domain {
	return s.domain
}

func (s *Specialist) Name() string {
	return s.domain.AgentName()
}

// ToolName is the name of the agent's search tool.
func (s *Specialist) ToolName() string {
	return s.toolName
}

// Run executes the agent on task. The error return is reserved for engine
// failures; anything else the agent could not answer becomes *Failed.
func (s *Specialist) Run(ctx context.Context, task string, d *deps.Dependencies) (DomainResult, *turns.Run, error) {
	if d == nil {
		return nil, nil, errors.Errorf("%s: no dependencies", s.Name())
	}
	a, err := s.build(d)
	if err != nil {
		return nil, nil, err
	}

	res, err := a.Run(ctx, task)
	var run *turns.Run
	if res != nil {
		run = turns.NewRun(res.RunID, s.Name(), res.Turn)
	}
	if err != nil {
		if errors.Is(err, toolloop.ErrMaxIterations) {
			return NewFailed(s.domain, "gave up after too many tool calls"), run, nil
		}
		return nil, run, err
	}

	// The last search is authoritative for the fields it echoes.
	raw, _ := toolblocks.LastToolResult(res.Turn, s.toolName)
	return s.resolve(res, raw), run, nil
}

func (s *Specialist) build(d *deps.Dependencies) (*agent.Agent, error) {
	tool, err := tools.NewToolFromFunc(s.toolName, s.toolDesc, s.newTool(d))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", s.Name())
	}
	opts := []agent.Option{
		agent.WithSystemPrompt(s.prompt),
		agent.WithModel(s.model),
		agent.WithTools(tool),
		agent.WithOutputTools(
			s.output,
			agent.NewOutputTool[Failed](OutputReportFailure, "Report that no satisfactory result was found."),
		),
	}
	return agent.New(s.Name(), s.eng, append(opts, s.extra...)...)
}

func (s *Specialist) resolve(res *agent.Result, raw map[string]any) DomainResult {
	out := res.Output
	switch {
	case out == nil:
		reason := "no structured result was returned"
		if txt := strings.TrimSpace(res.Text); txt != "" {
			reason += ": " + txt
		}
		return NewFailed(s.domain, reason)
	case !out.Valid():
		log.Warn().Str("agent", s.Name()).Str("output", out.Name).Str("error", out.ValidationError).Msg("discarding invalid agent result")
		return NewFailed(s.domain, "invalid result: "+out.ValidationError)
	case out.Name == OutputReportFailure:
		f := NewFailed(s.domain, "")
		if err := out.Decode(f); err != nil || strings.TrimSpace(f.Reason) == "" {
			f.Reason = "no reason given"
		}
		return f
	}

	r := s.newResult()
	if err := out.Decode(r); err != nil {
		return NewFailed(s.domain, "invalid result: "+err.Error())
	}
	if drifted := r.reconcile(raw); len(drifted) > 0 {
		log.Debug().Str("agent", s.Name()).Strs("fields", drifted).Msg("replaced answered fields with the searched values")
	}
	r.setRaw(raw)
	return r
}
