package agents

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	traveltools "github.com/go-go-golems/itinerant/pkg/travel/tools"
)

const weatherPrompt = `You are a specialized weather information agent. You give forecasts and weather-aware travel advice.

Use the weather_forecast tool, then answer with final_result. The summary covers:
- current conditions
- the multi-day forecast
- travel recommendations based on the weather
- what to pack
- which activities suit the expected conditions

If no weather information could be obtained, call report_failure with the reason.`

type WeatherForecastRequest struct {
	Location string `json:"location" jsonschema:"description=City or location for the forecast"`
	Days     *int   `json:"days,omitempty" jsonschema:"description=Number of days to forecast,default=7"`
}

func weatherForecast(d *deps.Dependencies) func(context.Context, WeatherForecastRequest) (map[string]any, error) {
	return func(ctx context.Context, in WeatherForecastRequest) (map[string]any, error) {
		if strings.TrimSpace(in.Location) == "" {
			return nil, tools.InvalidInputf("location is required")
		}
		days := traveltools.DefaultForecastDays
		if in.Days != nil {
			if *in.Days <= 0 {
				return nil, tools.InvalidInputf("days must be positive, got %d", *in.Days)
			}
			days = *in.Days
		}

		ll, ok := locate(ctx, d, in.Location)
		if !ok {
			return traveltools.ErrorRecord("Could not find location: %s", in.Location), nil
		}

		var current, forecast map[string]any
		w := d.Weather()
		if w == nil {
			current = traveltools.ErrorRecord("Weather API error: client not configured")
			forecast = current
		} else {
			var g errgroup.Group
			g.Go(func() error {
				res, err := w.CurrentConditions(ctx, ll.Lat, ll.Lng)
				if err != nil {
					res = traveltools.WeatherError(err)
				}
				current = res
				return nil
			})
			g.Go(func() error {
				res, err := w.Forecast(ctx, ll.Lat, ll.Lng, days)
				if err != nil {
					res = traveltools.WeatherError(err)
				}
				forecast = res
				return nil
			})
			_ = g.Wait()
		}

		return map[string]any{
			"location":           in.Location,
			"coordinates":        map[string]any{"lat": ll.Lat, "lng": ll.Lng},
			"current_weather":    current,
			"forecast":           forecast,
			"web_search_weather": webSearch(ctx, d, fmt.Sprintf("weather forecast %s %d days", in.Location, days), 5),
			"days":               days,
		}, nil
	}
}
