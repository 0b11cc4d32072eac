package agents

import (
	"context"
	"strings"

	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
)

const restaurantPrompt = `You are a specialized restaurant and dining recommendation agent.

Use the restaurant_search tool, then answer with final_result and include:
- a mix of cuisines and dining styles
- opening hours, price range and specialties
- location and accessibility
- ratings and popular dishes
- whether a reservation is needed

Cover different price ranges and cuisine types. If nothing useful was found,
call report_failure with the reason.`

type RestaurantSearchRequest struct {
	Location    string `json:"location" jsonschema:"description=City or area to search"`
	CuisineType string `json:"cuisine_type,omitempty" jsonschema:"description=Cuisine type filter"`
	PriceRange  string `json:"price_range,omitempty" jsonschema:"description=Price range,enum=budget,enum=mid-range,enum=fine-dining"`
}

func restaurantSearch(d *deps.Dependencies) func(context.Context, RestaurantSearchRequest) (map[string]any, error) {
	return func(ctx context.Context, in RestaurantSearchRequest) (map[string]any, error) {
		if strings.TrimSpace(in.Location) == "" {
			return nil, tools.InvalidInputf("location is required")
		}

		restaurants := []map[string]any{}
		if ll, ok := locate(ctx, d, in.Location); ok {
			kind := "restaurants"
			if in.CuisineType != "" {
				kind = in.CuisineType + " restaurants"
			}
			restaurants = places(ctx, d, kind+" in "+in.Location, ll, lodgingRadius)
		}

		query := "best restaurants " + in.Location
		if in.CuisineType != "" {
			query += " " + in.CuisineType
		}
		if in.PriceRange != "" {
			query += " " + in.PriceRange
		}

		return map[string]any{
			"location":                  in.Location,
			"cuisine_type":              optional(in.CuisineType),
			"price_range":               optional(in.PriceRange),
			"google_places_restaurants": restaurants,
			"web_search_results":        webSearch(ctx, d, query, 8),
		}, nil
	}
}

// optional maps the empty string to null.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
