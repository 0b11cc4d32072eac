package agents

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/go-go-golems/itinerant/pkg/inference/engine/enginetest"
	"github.com/go-go-golems/itinerant/pkg/inference/toolblocks"
	"github.com/go-go-golems/itinerant/pkg/inference/toolloop"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	"github.com/go-go-golems/itinerant/pkg/travel/deps/depstest"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

func call(id, name string, args map[string]any) enginetest.Step {
	return enginetest.Call(enginetest.ToolCall{ID: id, Name: name, Args: args})
}

// answerFromTool builds the final hotel answer from what hotel_search returned.
func answerFromTool(t *testing.T) enginetest.Step {
	return func(turn *turns.Turn, _ []string) ([]turns.Block, error) {
		res, ok := toolblocks.LastToolResult(turn, "hotel_search")
		require.True(t, ok)
		return []turns.Block{turns.NewToolCallBlock("f1", OutputFinalResult, map[string]any{
			"location":    res["location"],
			"check_in":    res["check_in"],
			"check_out":   res["check_out"],
			"hotels":      res["google_places_hotels"],
			"price_range": "$250-$900 per night",
		})}, nil
	}
}

func TestHotelAgent_EndToEnd(t *testing.T) {
	d, m, s := depstest.Paris()
	eng := enginetest.NewScriptedEngine(
		call("h1", "hotel_search", map[string]any{"location": "Paris", "check_in": "2024-06-01", "check_out": "2024-06-05", "guests": 2}),
		answerFromTool(t),
	)
	hotel, err := New(DomainHotel, eng, WithModel("openai:gpt-4o"))
	require.NoError(t, err)

	res, run, err := hotel.Run(context.Background(), "Find hotels in Paris from 2024-06-01 to 2024-06-05 for 2 guests", d)
	require.NoError(t, err)

	hr, ok := res.(*HotelResult)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "Paris", hr.Location)
	assert.Equal(t, "2024-06-01", hr.CheckIn)
	assert.Equal(t, "2024-06-05", hr.CheckOut)
	assert.Len(t, hr.Hotels, 2)
	assert.True(t, IsSuccess(hr))

	assert.Equal(t, []string{"hotels in Paris"}, m.Queries)
	assert.Equal(t, []string{"best hotels Paris 2024-06-01 2024-06-05 booking"}, s.Queries)
	assert.Equal(t, []int{8}, s.Limits)

	raw := hr.Raw()
	require.NotNil(t, raw)
	assert.Len(t, raw["google_places_hotels"], 2)
	assert.Contains(t, raw, "web_search_results")

	require.NotNil(t, run)
	assert.Equal(t, "hotel_agent", run.Name)
	assert.Len(t, run.Messages, 5)
	assert.Equal(t, []string{"final_result", "hotel_search", "report_failure"}, eng.ToolNames(0))
}

func TestHotelAgent_AnswerKeepsTheSearchedLocationAndDates(t *testing.T) {
	d, _, _ := depstest.Paris()
	eng := enginetest.NewScriptedEngine(
		call("h1", "hotel_search", map[string]any{"location": "Paris", "check_in": "2024-06-01", "check_out": "2024-06-05"}),
		call("f1", OutputFinalResult, map[string]any{
			"location":    "Paris, France",
			"check_in":    "June 1",
			"check_out":   "2024-06-05",
			"hotels":      []any{map[string]any{"name": "Hotel Lutetia"}},
			"price_range": "$250-$900 per night",
		}),
	)
	hotel, err := New(DomainHotel, eng)
	require.NoError(t, err)

	res, _, err := hotel.Run(context.Background(), "Find hotels in Paris from 2024-06-01 to 2024-06-05 for 2 guests", d)
	require.NoError(t, err)
	hr, ok := res.(*HotelResult)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "Paris", hr.Location)
	assert.Equal(t, "2024-06-01", hr.CheckIn)
	assert.Equal(t, "2024-06-05", hr.CheckOut)
	assert.Equal(t, "$250-$900 per night", hr.PriceRange)
}

func TestFlightResult_ReconcileReportsDriftedFields(t *testing.T) {
	r := &FlightResult{Origin: "New York", Destination: "Paris", DepartureDate: "2024-06-01"}
	drifted := r.reconcile(map[string]any{"origin": "NYC", "destination": "Paris", "departure_date": "2024-06-01"})
	assert.Equal(t, []string{"origin"}, drifted)
	assert.Equal(t, "NYC", r.Origin)

	assert.Empty(t, r.reconcile(nil))
	assert.Equal(t, "NYC", r.Origin)
}

func TestHotelAgent_UnknownLocationStillSearchesTheWeb(t *testing.T) {
	d, m, s := depstest.Paris()
	eng := enginetest.NewScriptedEngine(
		call("h1", "hotel_search", map[string]any{"location": "Atlantis", "check_in": "2024-06-01", "check_out": "2024-06-05"}),
		call("r1", OutputReportFailure, map[string]any{"reason": "no hotels in Atlantis"}),
	)
	hotel, err := New(DomainHotel, eng)
	require.NoError(t, err)

	res, _, err := hotel.Run(context.Background(), "Find hotels in Atlantis", d)
	require.NoError(t, err)
	f, ok := res.(*Failed)
	require.True(t, ok)
	assert.Equal(t, "no hotels in Atlantis", f.Reason)
	assert.Equal(t, DomainHotel, f.Domain())
	assert.Nil(t, f.Raw())
	assert.Empty(t, m.Queries)
	assert.Len(t, s.Queries, 1)
}

func TestSpecialist_MissingOrInvalidOutputIsFailed(t *testing.T) {
	d, _, _ := depstest.Paris()

	eng := enginetest.NewScriptedEngine(enginetest.Text("Here are some restaurants."))
	r, err := New(DomainRestaurant, eng)
	require.NoError(t, err)
	res, _, err := r.Run(context.Background(), "Find restaurants in Paris", d)
	require.NoError(t, err)
	require.IsType(t, &Failed{}, res)
	assert.Contains(t, res.(*Failed).Reason, "Here are some restaurants.")

	eng = enginetest.NewScriptedEngine(
		call("f1", OutputFinalResult, map[string]any{"location": "Paris"}),
		call("f2", OutputFinalResult, map[string]any{"location": "Paris", "restaurants": "many"}),
	)
	r, err = New(DomainRestaurant, eng)
	require.NoError(t, err)
	res, _, err = r.Run(context.Background(), "Find restaurants in Paris", d)
	require.NoError(t, err)
	require.IsType(t, &Failed{}, res)
	assert.Contains(t, res.(*Failed).Reason, "invalid result")
	assert.False(t, IsSuccess(res))
}

func TestSpecialist_EngineFailureIsAnError(t *testing.T) {
	d, _, _ := depstest.Paris()
	eng := enginetest.NewScriptedEngine(enginetest.Fail(errors.New("503 from provider")))
	a, err := New(DomainFlight, eng)
	require.NoError(t, err)

	res, _, err := a.Run(context.Background(), "Find flights", d)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "503 from provider")
}

func TestSpecialist_IterationCapIsFailed(t *testing.T) {
	d, _, _ := depstest.Paris()
	args := map[string]any{"location": "Paris"}
	eng := enginetest.NewScriptedEngine(
		call("a1", "activity_search", args),
		call("a2", "activity_search", args),
	)
	a, err := New(DomainActivity, eng, WithLoopConfig(toolloop.DefaultLoopConfig().WithMaxIterations(2)))
	require.NoError(t, err)

	res, run, err := a.Run(context.Background(), "Find things to do in Paris", d)
	require.NoError(t, err)
	require.IsType(t, &Failed{}, res)
	assert.NotNil(t, run)
}

func TestNew_UnknownDomain(t *testing.T) {
	_, err := New(Domain("spa"), enginetest.NewScriptedEngine())
	require.Error(t, err)

	_, err = New(DomainHotel, nil)
	require.Error(t, err)
}

func TestFlightSearch_DrivingAlternative(t *testing.T) {
	d, m, s := depstest.Paris()
	search := flightSearch(d)

	out, err := search(context.Background(), FlightSearchRequest{Origin: "Lyon", Destination: "Paris", DepartureDate: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"driving_distance": "Unknown", "driving_duration": "Unknown"}, out["driving_alternative"])
	assert.Nil(t, out["return_date"])
	assert.Equal(t, []string{"flights from Lyon to Paris 2024-06-01"}, s.Queries)
	assert.Equal(t, []int{10}, s.Limits)

	m.Routes = []maps.Route{{Legs: []*maps.Leg{{
		Distance: maps.Distance{HumanReadable: "465 km", Meters: 465000},
		Duration: 16020e9,
	}}}}
	out, err = search(context.Background(), FlightSearchRequest{Origin: "Lyon", Destination: "Paris", DepartureDate: "2024-06-01", ReturnDate: "2024-06-08"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"driving_distance": "465 km", "driving_duration": "4h27m0s"}, out["driving_alternative"])
	assert.Equal(t, "flights from Lyon to Paris 2024-06-01 return 2024-06-08", s.Queries[1])
	assert.Equal(t, []string{"Lyon->Paris:driving", "Lyon->Paris:driving"}, m.Routed)
}

func TestRestaurantSearch_Queries(t *testing.T) {
	d, m, s := depstest.Paris()
	out, err := restaurantSearch(d)(context.Background(), RestaurantSearchRequest{Location: "Paris", CuisineType: "French", PriceRange: "budget"})
	require.NoError(t, err)
	assert.Equal(t, []string{"French restaurants in Paris"}, m.Queries)
	assert.Equal(t, []string{"best restaurants Paris French budget"}, s.Queries)
	assert.Len(t, out["google_places_restaurants"], 2)
	assert.Equal(t, "French", out["cuisine_type"])
}

func TestActivitySearch_RunsBothPlacesQueries(t *testing.T) {
	d, m, s := depstest.Paris()
	out, err := activitySearch(d)(context.Background(), ActivitySearchRequest{Location: "Paris", ActivityType: "museum"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"museum attractions in Paris", "tourist attractions Paris"}, m.Queries)
	assert.Equal(t, []string{"things to do Paris attractions activities museum"}, s.Queries)
	assert.Len(t, out["google_places_attractions"], 2)
	assert.Len(t, out["google_places_tourist_spots"], 2)
	assert.Nil(t, out["duration"])
}

func TestWeatherForecast(t *testing.T) {
	d, _, s := depstest.Paris()
	out, err := weatherForecast(d)(context.Background(), WeatherForecastRequest{Location: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lat": 48.8566, "lng": 2.3522}, out["coordinates"])
	assert.Equal(t, 7, out["days"])
	assert.Contains(t, out["current_weather"], "temperature")
	assert.Equal(t, []string{"weather forecast Paris 7 days"}, s.Queries)
	assert.Equal(t, []int{5}, s.Limits)

	out, err = weatherForecast(d)(context.Background(), WeatherForecastRequest{Location: "Atlantis"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "Could not find location: Atlantis"}, out)

	zero := 0
	_, err = weatherForecast(d)(context.Background(), WeatherForecastRequest{Location: "Paris", Days: &zero})
	require.Error(t, err)
}

func TestWeatherForecast_ProviderFailureIsTagged(t *testing.T) {
	m := &depstest.Maps{Locations: map[string]maps.LatLng{"Oslo": {Lat: 59.9, Lng: 10.7}}}
	d := deps.New(deps.WithMaps(m), deps.WithWebSearch(&depstest.Search{}),
		deps.WithWeather(&depstest.Weather{Err: errors.New("connection reset")}))

	out, err := weatherForecast(d)(context.Background(), WeatherForecastRequest{Location: "Oslo"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "Weather API error: connection reset"}, out["current_weather"])
	assert.Equal(t, map[string]any{"error": "Weather API error: connection reset"}, out["forecast"])
}
