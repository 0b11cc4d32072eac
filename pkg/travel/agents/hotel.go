package agents

import (
	"context"
	"strings"

	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
)

const hotelPrompt = `You are a specialized hotel and accommodation search agent. You find and recommend places to stay.

Use the hotel_search tool, then answer with final_result and include:
- budget, mid-range and luxury categories
- amenities and features
- location advantages such as nearby attractions and transport
- guest ratings
- booking and pricing information

Give at least 3 options covering different budgets. Keep the location and the
dates exactly as requested. If nothing useful was found, call report_failure
with the reason.`

const defaultGuests = 2

type HotelSearchRequest struct {
	Location string `json:"location" jsonschema:"description=City or area to search for hotels"`
	CheckIn  string `json:"check_in" jsonschema:"description=Check-in date (YYYY-MM-DD)"`
	CheckOut string `json:"check_out" jsonschema:"description=Check-out date (YYYY-MM-DD)"`
	Guests   *int   `json:"guests,omitempty" jsonschema:"description=Number of guests,default=2"`
}

func hotelSearch(d *deps.Dependencies) func(context.Context, HotelSearchRequest) (map[string]any, error) {
	return func(ctx context.Context, in HotelSearchRequest) (map[string]any, error) {
		if strings.TrimSpace(in.Location) == "" {
			return nil, tools.InvalidInputf("location is required")
		}
		guests := defaultGuests
		if in.Guests != nil {
			if *in.Guests <= 0 {
				return nil, tools.InvalidInputf("guests must be positive, got %d", *in.Guests)
			}
			guests = *in.Guests
		}

		hotels := []map[string]any{}
		if ll, ok := locate(ctx, d, in.Location); ok {
			hotels = places(ctx, d, "hotels in "+in.Location, ll, lodgingRadius)
		}
		query := "best hotels " + in.Location + " " + in.CheckIn + " " + in.CheckOut + " booking"

		return map[string]any{
			"location":             in.Location,
			"check_in":             in.CheckIn,
			"check_out":            in.CheckOut,
			"guests":               guests,
			"google_places_hotels": hotels,
			"web_search_results":   webSearch(ctx, d, query, 8),
		}, nil
	}
}
