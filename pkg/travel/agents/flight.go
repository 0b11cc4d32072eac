package agents

import (
	"context"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
)

const flightPrompt = `You are a specialized flight search agent. You find and recommend flights between two locations.

Use the flight_search tool, then answer with final_result and include:
- several airlines
- a spread of departure times
- price comparisons
- duration estimates
- connection details

Give at least 3 options when available, covering budget, mid-range and premium choices.
If nothing useful was found, call report_failure with the reason.`

type FlightSearchRequest struct {
	Origin        string `json:"origin" jsonschema:"description=Departure city or airport code"`
	Destination   string `json:"destination" jsonschema:"description=Arrival city or airport code"`
	DepartureDate string `json:"departure_date" jsonschema:"description=Departure date (YYYY-MM-DD)"`
	ReturnDate    string `json:"return_date,omitempty" jsonschema:"description=Return date for a round trip (YYYY-MM-DD)"`
}

const unknown = "Unknown"

func flightSearch(d *deps.Dependencies) func(context.Context, FlightSearchRequest) (map[string]any, error) {
	return func(ctx context.Context, in FlightSearchRequest) (map[string]any, error) {
		if strings.TrimSpace(in.Origin) == "" || strings.TrimSpace(in.Destination) == "" {
			return nil, tools.InvalidInputf("origin and destination are required")
		}
		query := "flights from " + in.Origin + " to " + in.Destination + " " + in.DepartureDate
		if in.ReturnDate != "" {
			query += " return " + in.ReturnDate
		}

		var returnDate any
		if in.ReturnDate != "" {
			returnDate = in.ReturnDate
		}
		return map[string]any{
			"search_results":      webSearch(ctx, d, query, 10),
			"driving_alternative": drivingAlternative(ctx, d, in.Origin, in.Destination),
			"origin":              in.Origin,
			"destination":         in.Destination,
			"departure_date":      in.DepartureDate,
			"return_date":         returnDate,
		}, nil
	}
}

func drivingAlternative(ctx context.Context, d *deps.Dependencies, origin, destination string) map[string]any {
	out := map[string]any{"driving_distance": unknown, "driving_duration": unknown}
	m := d.Maps()
	if m == nil {
		return out
	}
	routes, err := m.Directions(ctx, origin, destination, maps.TravelModeDriving)
	if err != nil || len(routes) == 0 || len(routes[0].Legs) == 0 {
		return out
	}
	leg := routes[0].Legs[0]
	if leg.Distance.HumanReadable != "" {
		out["driving_distance"] = leg.Distance.HumanReadable
	}
	if leg.Duration > 0 {
		out["driving_duration"] = leg.Duration.Round(time.Minute).String()
	}
	return out
}
