package coordinator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/itinerant/pkg/inference/engine/enginetest"
	"github.com/go-go-golems/itinerant/pkg/inference/toolblocks"
	"github.com/go-go-golems/itinerant/pkg/travel/agents"
	"github.com/go-go-golems/itinerant/pkg/travel/deps/depstest"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

func call(id, name string, args map[string]any) enginetest.ToolCall {
	return enginetest.ToolCall{ID: id, Name: name, Args: args}
}

func hotelEngine() *enginetest.ScriptedEngine {
	return enginetest.NewScriptedEngine(
		enginetest.Call(call("h1", "hotel_search", map[string]any{"location": "Paris", "check_in": "2024-06-01", "check_out": "2024-06-04"})),
		func(t *turns.Turn, _ []string) ([]turns.Block, error) {
			res, ok := toolblocks.LastToolResult(t, "hotel_search")
			if !ok {
				return nil, errors.New("hotel_search result missing")
			}
			return []turns.Block{turns.NewToolCallBlock("f1", agents.OutputFinalResult, map[string]any{
				"location":    res["location"],
				"check_in":    res["check_in"],
				"check_out":   res["check_out"],
				"hotels":      res["google_places_hotels"],
				"price_range": "$250-$900",
			})}, nil
		},
	)
}

func days(n int) []any {
	out := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, map[string]any{"morning": fmt.Sprintf("Walk %d", i)})
	}
	return out
}

func newCoordinator(t *testing.T, coord *enginetest.ScriptedEngine, specialists ...*agents.Specialist) *Coordinator {
	d, _, _ := depstest.Paris()
	opts := []Option{WithModel("openai:gpt-4o")}
	for _, s := range specialists {
		opts = append(opts, WithSpecialist(s))
	}
	c, err := New(coord, d, opts...)
	require.NoError(t, err)
	return c
}

func TestCoordinator_DelegatesAndRendersPlan(t *testing.T) {
	hotel, err := agents.New(agents.DomainHotel, hotelEngine())
	require.NoError(t, err)
	weather, err := agents.New(agents.DomainWeather, enginetest.NewScriptedEngine(
		enginetest.Call(call("r1", agents.OutputReportFailure, map[string]any{"reason": "weather service unavailable"})),
	))
	require.NoError(t, err)

	coord := enginetest.NewScriptedEngine(
		enginetest.Call(
			call("d1", "weather_forecast_delegate", map[string]any{"location": "Paris", "days": 3}),
			call("d2", "hotel_search_delegate", map[string]any{"location": "Paris", "check_in": "2024-06-01", "check_out": "2024-06-04"}),
		),
		enginetest.Call(call("s1", agents.OutputFinalResult, map[string]any{
			"destination":          "Paris",
			"duration":             "3 days",
			"daily_itinerary":      days(3),
			"total_estimated_cost": "€1500",
		})),
	)
	c := newCoordinator(t, coord, hotel, weather)

	res, err := c.Run(context.Background(), "Plan 3 days in Paris")
	require.NoError(t, err)
	require.NotNil(t, res.Plan)

	p := res.Plan
	assert.Equal(t, "Plan 3 days in Paris", p.Query)
	assert.Equal(t, "Paris", p.Destination)
	assert.Nil(t, p.Flights)
	require.NotNil(t, p.Hotels)
	assert.Equal(t, "hotel_agent", p.Hotels.Agent)
	assert.Equal(t, "Hotels in Paris", p.Hotels.Query)
	assert.True(t, p.Hotels.Success)
	require.NotNil(t, p.Weather)
	assert.False(t, p.Weather.Success)
	assert.Equal(t, "Weather for Paris", p.Weather.Query)
	assert.Len(t, p.DailyItinerary, 3)

	assert.Len(t, res.Delegations, 2)
	assert.Len(t, res.AgentRuns, 2)
	require.NotNil(t, res.Run)
	assert.Equal(t, Name, res.Run.Name)

	r := res.Report
	assert.True(t, strings.HasPrefix(r, "# 🌍 Multi-Agent Travel Plan\n"))
	assert.Contains(t, r, "- **Destination**: Paris")
	assert.Contains(t, r, "## 🏨 Hotel Recommendations\n*Provided by Hotel Agent*\n\n")
	assert.Contains(t, r, "**Location:** Paris")
	assert.Contains(t, r, "- Hotel Lutetia (Rating: 4.6)")
	assert.Contains(t, r, "- [Best hotels in Paris](https://example.com/paris-hotels)")
	assert.Contains(t, r, "## 🌤️ Weather Forecast\n*No weather information available*")
	assert.Contains(t, r, "### Day 3\n**Morning:** Walk 3")
	assert.Contains(t, r, "## 💰 Estimated Total Cost\n€1500")
	assert.NotContains(t, r, "Flight Recommendations")
	assert.Less(t, strings.Index(r, "Hotel Recommendations"), strings.Index(r, "Weather Forecast"))
	assert.True(t, strings.HasSuffix(r, "*🤖 Agents: Flight • Hotel • Restaurant • Activity • Weather • Coordinator*"))
}

func TestCoordinator_ParallelDelegationsAreAllRecorded(t *testing.T) {
	weather, err := agents.New(agents.DomainWeather, enginetest.NewScriptedEngine(
		enginetest.Call(call("w1", agents.OutputReportFailure, map[string]any{"reason": "forecast unavailable"})),
	))
	require.NoError(t, err)
	restaurant, err := agents.New(agents.DomainRestaurant, enginetest.NewScriptedEngine(
		enginetest.Call(call("r1", agents.OutputFinalResult, map[string]any{
			"location":      "Rome",
			"restaurants":   []any{map[string]any{"name": "Roscioli"}},
			"cuisine_types": []any{"Italian"},
		})),
	))
	require.NoError(t, err)

	coord := enginetest.NewScriptedEngine(
		enginetest.Call(
			call("d1", "weather_forecast_delegate", map[string]any{"location": "Rome"}),
			call("d2", "restaurant_search_delegate", map[string]any{"location": "Rome", "cuisine_type": "Italian"}),
		),
		enginetest.Call(call("s1", agents.OutputFinalResult, map[string]any{
			"destination":     "Rome",
			"duration":        "1 day",
			"daily_itinerary": days(1),
		})),
	)
	c := newCoordinator(t, coord, weather, restaurant)

	res, err := c.Run(context.Background(), "A day of food in Rome")
	require.NoError(t, err)
	require.NotNil(t, res.Plan)

	assert.Len(t, res.Delegations, 2)
	assert.Len(t, res.AgentRuns, 2)
	require.NotNil(t, res.Plan.Weather)
	assert.False(t, res.Plan.Weather.Success)
	require.NotNil(t, res.Plan.Restaurants)
	assert.True(t, res.Plan.Restaurants.Success)
	assert.Equal(t, "Restaurants in Rome", res.Plan.Restaurants.Query)
	assert.Contains(t, res.Report, "- Roscioli")
}

func TestCoordinator_SpecialistEngineFailureIsRecordedAsFailed(t *testing.T) {
	flight, err := agents.New(agents.DomainFlight, enginetest.NewScriptedEngine(enginetest.Fail(errors.New("boom"))))
	require.NoError(t, err)
	coord := enginetest.NewScriptedEngine(
		enginetest.Call(call("d1", "flight_search_delegate", map[string]any{"origin": "Lyon", "destination": "Paris", "departure_date": "2024-06-01"})),
		enginetest.Call(call("s1", agents.OutputFinalResult, map[string]any{"destination": "Paris", "duration": "1 day", "daily_itinerary": days(1)})),
	)
	c := newCoordinator(t, coord, flight)

	res, err := c.Run(context.Background(), "Lyon to Paris")
	require.NoError(t, err)
	require.NotNil(t, res.Plan.Flights)
	assert.False(t, res.Plan.Flights.Success)
	assert.Equal(t, "Flights Lyon → Paris", res.Plan.Flights.Query)
	f, ok := res.Plan.Flights.Result.(*agents.Failed)
	require.True(t, ok)
	assert.Contains(t, f.Reason, "boom")
	assert.Contains(t, res.Report, "*No flight recommendations available*")
}

func TestCoordinator_NoSynthesisIsAnError(t *testing.T) {
	c := newCoordinator(t, enginetest.NewScriptedEngine(enginetest.Text("Have a nice trip!")))
	res, err := c.Run(context.Background(), "Paris")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPlan))
	require.NotNil(t, res)
	assert.Nil(t, res.Plan)
}

func TestCoordinator_EngineFailureIsAnError(t *testing.T) {
	c := newCoordinator(t, enginetest.NewScriptedEngine(enginetest.Fail(errors.New("unauthorized"))))
	_, err := c.Run(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestCoordinator_AgentNames(t *testing.T) {
	c := newCoordinator(t, enginetest.NewScriptedEngine())
	assert.Equal(t, []string{"flight_agent", "hotel_agent", "restaurant_agent", "activity_agent", "weather_agent", "travel_coordinator"}, c.AgentNames())
}

func TestDelegationTasks(t *testing.T) {
	three := 3
	cases := []struct {
		req         delegation
		task, label string
	}{
		{FlightDelegation{Origin: "NYC", Destination: "Paris", DepartureDate: "2024-06-01"},
			"Find flights from NYC to Paris departing 2024-06-01", "Flights NYC → Paris"},
		{FlightDelegation{Origin: "NYC", Destination: "Paris", DepartureDate: "2024-06-01", ReturnDate: "2024-06-08"},
			"Find flights from NYC to Paris departing 2024-06-01 returning 2024-06-08", "Flights NYC → Paris"},
		{HotelDelegation{Location: "Paris", CheckIn: "2024-06-01", CheckOut: "2024-06-05"},
			"Find hotels in Paris from 2024-06-01 to 2024-06-05 for 2 guests", "Hotels in Paris"},
		{RestaurantDelegation{Location: "Rome", CuisineType: "Italian", PriceRange: "budget"},
			"Find restaurants in Rome serving Italian cuisine in budget price range", "Restaurants in Rome"},
		{ActivityDelegation{Location: "Tokyo", ActivityType: "museums", Duration: "half-day"},
			"Find activities and attractions in Tokyo focusing on museums suitable for half-day", "Activities in Tokyo"},
		{WeatherDelegation{Location: "Oslo"}, "Get weather forecast for Oslo for 7 days", "Weather for Oslo"},
		{WeatherDelegation{Location: "Oslo", Days: &three}, "Get weather forecast for Oslo for 3 days", "Weather for Oslo"},
	}
	for _, tc := range cases {
		task, label := tc.req.task()
		assert.Equal(t, tc.task, task)
		assert.Equal(t, tc.label, label)
		assert.NoError(t, tc.req.validate())
	}
	assert.Error(t, HotelDelegation{Location: "Paris"}.validate())
}

func TestDurationDays(t *testing.T) {
	n, ok := DurationDays("5 days")
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	_, ok = DurationDays("a long weekend")
	assert.False(t, ok)
}
