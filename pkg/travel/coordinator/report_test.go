package coordinator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/itinerant/pkg/travel/agents"
)

func TestFormatSection_ErrorRecord(t *testing.T) {
	assert.Equal(t, "⚠️ Could not find location: Atlantis", formatSection(map[string]any{"error": "Could not find location: Atlantis", "days": 7.0}))
}

func TestFormatSection_TruncatesPlacesAndWebResults(t *testing.T) {
	places := []any{}
	results := []any{}
	for _, n := range []string{"A", "B", "C", "D", "E"} {
		places = append(places, map[string]any{"name": n, "rating": 4.0})
		results = append(results, map[string]any{"title": "T" + n, "url": "https://example.com/" + n})
	}
	out := formatSection(map[string]any{
		"google_places_attractions": places,
		"web_search_results":        map[string]any{"results": results},
	})
	assert.Contains(t, out, "**Google Places Attractions:**\n- A (Rating: 4)\n- B (Rating: 4)\n- C (Rating: 4)\n")
	assert.NotContains(t, out, "- D (Rating")
	assert.Contains(t, out, "- [TC](https://example.com/C)")
	assert.NotContains(t, out, "TD")
}

func TestFormatSection_ListsAndScalars(t *testing.T) {
	assert.Equal(t, "- a\n- b\n- c\n- d\n- e", formatSection([]any{"a", "b", "c", "d", "e", "f"}))
	assert.Equal(t, "**Check In:** 2024-06-01\n**Price Range:** mid", formatSection(map[string]any{
		"check_in":    "2024-06-01",
		"price_range": "mid",
		"_internal":   "hidden",
	}))
	assert.Equal(t, "plain", formatSection("plain"))
	assert.Equal(t, "- Unknown (Rating: N/A)", strings.TrimSpace(strings.SplitN(formatSection(map[string]any{
		"google_places_hotels": []any{map[string]any{}},
	}), "\n", 2)[1]))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Google Places Hotels", label("google_places_hotels"))
	assert.Equal(t, "Weather Condition", label("weatherCondition"))
}

func TestRenderReport_FieldOrderFollowsResult(t *testing.T) {
	plan := &TravelPlan{
		Query: "NYC to Paris",
		Flights: &DelegationRecord{
			Agent: "flight_agent", Query: "Flights NYC → Paris", Success: true,
			Result: &agents.FlightResult{
				Origin: "NYC", Destination: "Paris", DepartureDate: "2024-06-01",
				Flights:       []map[string]any{{"name": "AF 007"}, {"airline": "Delta"}},
				TotalDuration: "7h", EstimatedCost: "$800",
			},
		},
	}
	out, err := RenderReport(plan)
	require.NoError(t, err)
	assert.Contains(t, out, "- **Duration**: N/A")
	assert.Contains(t, out, "*Provided by Flight Agent*\n\n**Origin:** NYC\n**Destination:** Paris\n**Departure Date:** 2024-06-01\n**Flights:**\n- AF 007\n- {\"airline\":\"Delta\"}\n\n**Total Duration:** 7h\n**Estimated Cost:** $800\n\n")
	assert.NotContains(t, out, "Daily Itinerary")
	assert.NotContains(t, out, "Estimated Total Cost")

	_, err = RenderReport(nil)
	assert.Error(t, err)
}

func TestTravelPlan_CloneIsDeep(t *testing.T) {
	plan := &TravelPlan{
		Query: "Paris",
		Hotels: &DelegationRecord{
			Agent: "hotel_agent", Query: "Hotels in Paris", Success: true,
			Result: &agents.HotelResult{Location: "Paris", Hotels: []map[string]any{{"name": "Hotel Lutetia"}}},
		},
		DailyItinerary: []map[string]any{{"morning": "Louvre"}},
	}
	c := plan.Clone()
	c.Hotels.Query = "changed"
	c.Hotels.Result.(*agents.HotelResult).Hotels[0]["name"] = "changed"
	c.DailyItinerary[0]["morning"] = "changed"

	assert.Equal(t, "Hotels in Paris", plan.Hotels.Query)
	assert.Equal(t, "Hotel Lutetia", plan.Hotels.Result.(*agents.HotelResult).Hotels[0]["name"])
	assert.Equal(t, "Louvre", plan.DailyItinerary[0]["morning"])
	assert.Nil(t, (*TravelPlan)(nil).Clone())
}
