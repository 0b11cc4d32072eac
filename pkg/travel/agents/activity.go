package agents

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
)

const activityPrompt = `You are a specialized activity and attraction recommendation agent.

Use the activity_search tool, then answer with final_result and include:
- landmarks and tourist attractions
- museums and cultural experiences
- parks and outdoor activities
- entertainment and events
- hours, pricing, duration and booking requirements

Cover different interests and activity levels. If nothing useful was found,
call report_failure with the reason.`

type ActivitySearchRequest struct {
	Location     string `json:"location" jsonschema:"description=City or area to search for activities"`
	ActivityType string `json:"activity_type,omitempty" jsonschema:"description=Activity type such as museum or outdoor or entertainment"`
	Duration     string `json:"duration,omitempty" jsonschema:"description=Duration preference such as half-day or full-day"`
}

func activitySearch(d *deps.Dependencies) func(context.Context, ActivitySearchRequest) (map[string]any, error) {
	return func(ctx context.Context, in ActivitySearchRequest) (map[string]any, error) {
		if strings.TrimSpace(in.Location) == "" {
			return nil, tools.InvalidInputf("location is required")
		}

		attractions := []map[string]any{}
		spots := []map[string]any{}
		if ll, ok := locate(ctx, d, in.Location); ok {
			kind := "attractions"
			if in.ActivityType != "" {
				kind = in.ActivityType + " attractions"
			}
			var g errgroup.Group
			g.Go(func() error {
				attractions = places(ctx, d, kind+" in "+in.Location, ll, attractionRadius)
				return nil
			})
			g.Go(func() error {
				spots = places(ctx, d, "tourist attractions "+in.Location, ll, attractionRadius)
				return nil
			})
			_ = g.Wait()
		}

		query := "things to do " + in.Location + " attractions activities"
		if in.ActivityType != "" {
			query += " " + in.ActivityType
		}

		return map[string]any{
			"location":                    in.Location,
			"activity_type":               optional(in.ActivityType),
			"duration":                    optional(in.Duration),
			"google_places_attractions":   attractions,
			"google_places_tourist_spots": spots,
			"web_search_results":          webSearch(ctx, d, query, 10),
		}, nil
	}
}
