package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/events"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/observability"
	"github.com/go-go-golems/itinerant/pkg/travel/agents"
)

type FlightDelegation struct {
	Origin        string `json:"origin" jsonschema:"description=Departure location"`
	Destination   string `json:"destination" jsonschema:"description=Arrival location"`
	DepartureDate string `json:"departure_date" jsonschema:"description=Departure date"`
	ReturnDate    string `json:"return_date,omitempty" jsonschema:"description=Return date"`
}

func (r FlightDelegation) task() (string, string) {
	task := fmt.Sprintf("Find flights from %s to %s departing %s", r.Origin, r.Destination, r.DepartureDate)
	if r.ReturnDate != "" {
		task += " returning " + r.ReturnDate
	}
	return task, fmt.Sprintf("Flights %s → %s", r.Origin, r.Destination)
}

type HotelDelegation struct {
	Location string `json:"location" jsonschema:"description=Destination city or area"`
	CheckIn  string `json:"check_in" jsonschema:"description=Check-in date"`
	CheckOut string `json:"check_out" jsonschema:"description=Check-out date"`
	Guests   *int   `json:"guests,omitempty" jsonschema:"description=Number of guests,default=2"`
}

func (r HotelDelegation) task() (string, string) {
	guests := 2
	if r.Guests != nil && *r.Guests > 0 {
		guests = *r.Guests
	}
	return fmt.Sprintf("Find hotels in %s from %s to %s for %d guests", r.Location, r.CheckIn, r.CheckOut, guests),
		"Hotels in " + r.Location
}

type RestaurantDelegation struct {
	Location    string `json:"location" jsonschema:"description=Destination city or area"`
	CuisineType string `json:"cuisine_type,omitempty" jsonschema:"description=Type of cuisine"`
	PriceRange  string `json:"price_range,omitempty" jsonschema:"description=Price range preference"`
}

func (r RestaurantDelegation) task() (string, string) {
	task := "Find restaurants in " + r.Location
	if r.CuisineType != "" {
		task += " serving " + r.CuisineType + " cuisine"
	}
	if r.PriceRange != "" {
		task += " in " + r.PriceRange + " price range"
	}
	return task, "Restaurants in " + r.Location
}

type ActivityDelegation struct {
	Location     string `json:"location" jsonschema:"description=Destination city or area"`
	ActivityType string `json:"activity_type,omitempty" jsonschema:"description=Type of activities"`
	Duration     string `json:"duration,omitempty" jsonschema:"description=Duration preference"`
}

func (r ActivityDelegation) task() (string, string) {
	task := "Find activities and attractions in " + r.Location
	if r.ActivityType != "" {
		task += " focusing on " + r.ActivityType
	}
	if r.Duration != "" {
		task += " suitable for " + r.Duration
	}
	return task, "Activities in " + r.Location
}

type WeatherDelegation struct {
	Location string `json:"location" jsonschema:"description=Destination city"`
	Days     *int   `json:"days,omitempty" jsonschema:"description=Number of days to forecast,default=7"`
}

func (r WeatherDelegation) task() (string, string) {
	days := 7
	if r.Days != nil && *r.Days > 0 {
		days = *r.Days
	}
	return fmt.Sprintf("Get weather forecast for %s for %d days", r.Location, days), "Weather for " + r.Location
}

type delegation interface {
	validate() error
	task() (string, string)
}

func (r FlightDelegation) validate() error {
	return required("origin", r.Origin, "destination", r.Destination, "departure_date", r.DepartureDate)
}

func (r HotelDelegation) validate() error {
	return required("location", r.Location, "check_in", r.CheckIn, "check_out", r.CheckOut)
}

func (r RestaurantDelegation) validate() error { return required("location", r.Location) }
func (r ActivityDelegation) validate() error   { return required("location", r.Location) }
func (r WeatherDelegation) validate() error    { return required("location", r.Location) }

// delegate runs the specialist of domain d and records the outcome in col.
// Engine failures of the specialist are recorded as *agents.Failed.
func (c *Coordinator) delegate(ctx context.Context, col *collector, d agents.Domain, req delegation) (DelegationRecord, error) {
	if err := req.validate(); err != nil {
		return DelegationRecord{}, err
	}
	task, label := req.task()
	ctx, span := observability.StartSpan(ctx, "coordinator.delegate", "agent", d.AgentName(), "query", label)
	meta := events.MetadataFromContext(ctx)
	events.PublishEventToContext(ctx, events.NewDelegationStartEvent(meta,
		events.Delegation{Agent: d.AgentName(), Query: label, Task: task}))

	res, run, err := c.specialists[d].Run(ctx, task, c.deps)
	if err != nil {
		log.Warn().Err(err).Str("agent", d.AgentName()).Msg("delegation failed")
		res = agents.NewFailed(d, "agent error: "+err.Error())
	}
	rec := newRecord(d, label, res)
	col.add(rec, run)

	events.PublishEventToContext(ctx, events.NewDelegationResultEvent(meta,
		events.Delegation{Agent: rec.Agent, Query: label, Task: task, Success: rec.Success}))
	observability.EndSpan(span, err)
	return rec, nil
}

// delegationTools returns the five delegation tools bound to col.
func (c *Coordinator) delegationTools(col *collector) ([]*tools.ToolDefinition, error) {
	specs := []struct {
		name, desc string
		fn         interface{}
	}{
		{"flight_search_delegate", "Delegate flight search to the specialized flight agent.",
			func(ctx context.Context, in FlightDelegation) (DelegationRecord, error) {
				return c.delegate(ctx, col, agents.DomainFlight, in)
			}},
		{"hotel_search_delegate", "Delegate hotel search to the specialized hotel agent.",
			func(ctx context.Context, in HotelDelegation) (DelegationRecord, error) {
				return c.delegate(ctx, col, agents.DomainHotel, in)
			}},
		{"restaurant_search_delegate", "Delegate restaurant search to the specialized restaurant agent.",
			func(ctx context.Context, in RestaurantDelegation) (DelegationRecord, error) {
				return c.delegate(ctx, col, agents.DomainRestaurant, in)
			}},
		{"activity_search_delegate", "Delegate activity search to the specialized activity agent.",
			func(ctx context.Context, in ActivityDelegation) (DelegationRecord, error) {
				return c.delegate(ctx, col, agents.DomainActivity, in)
			}},
		{"weather_forecast_delegate", "Delegate the weather forecast to the specialized weather agent.",
			func(ctx context.Context, in WeatherDelegation) (DelegationRecord, error) {
				return c.delegate(ctx, col, agents.DomainWeather, in)
			}},
	}
	defs := make([]*tools.ToolDefinition, 0, len(specs))
	for _, s := range specs {
		def, err := tools.NewToolFromFunc(s.name, s.desc, s.fn)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// DelegationToolNames lists the coordinator's delegation tools.
func DelegationToolNames() []string {
	return []string{
		"activity_search_delegate",
		"flight_search_delegate",
		"hotel_search_delegate",
		"restaurant_search_delegate",
		"weather_forecast_delegate",
	}
}

func required(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return tools.InvalidInputf("%s is required", fields[i])
		}
	}
	return nil
}
