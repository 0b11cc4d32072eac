// Package tools implements the travel tool functions offered to the
// single-agent planner: maps, places, weather, location, web search and
// address validation.
//
// Provider failures never surface as Go errors: they are returned as a record
// with an "error" key so the model can reason about them. Malformed arguments
// are returned as errors wrapping tools.ErrInvalidInput.
package tools

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"googlemaps.github.io/maps"

	itools "github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	"github.com/go-go-golems/itinerant/pkg/travel/providers"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/googlemaps"
)

const (
	NameGeocodeAddress     = "geocode_address"
	NameReverseGeocode     = "reverse_geocode_coordinates"
	NameGetDirections      = "get_directions"
	NameCurrentWeather     = "get_current_weather"
	NameWeatherForecast    = "get_weather_forecast"
	NameCurrentLocation    = "get_current_location"
	NameCurrentDateTime    = "get_current_date_time"
	NameSearchWeb          = "search_web"
	NameValidateAddress    = "validate_address"
	NameFindPlaces         = "find_places"
	DefaultForecastDays    = 7
	DefaultSearchResults   = 5
	DefaultPlacesRadius    = 5000
	DefaultRegionCode      = "US"
	errNotConfiguredSuffix = "client not configured"
)

type GeocodeRequest struct {
	Address string `json:"address" jsonschema:"description=Address or place name to geocode"`
}

type ReverseGeocodeRequest struct {
	Latitude  float64 `json:"latitude" jsonschema:"description=Latitude in degrees"`
	Longitude float64 `json:"longitude" jsonschema:"description=Longitude in degrees"`
}

type DirectionsRequest struct {
	Origin      string `json:"origin" jsonschema:"description=Starting address or place"`
	Destination string `json:"destination" jsonschema:"description=Destination address or place"`
	Mode        string `json:"mode,omitempty" jsonschema:"description=Travel mode,enum=driving,enum=walking,enum=bicycling,enum=transit,default=driving"`
}

type CoordinatesRequest struct {
	Latitude  float64 `json:"latitude" jsonschema:"description=Latitude in degrees"`
	Longitude float64 `json:"longitude" jsonschema:"description=Longitude in degrees"`
}

type ForecastRequest struct {
	Latitude  float64 `json:"latitude" jsonschema:"description=Latitude in degrees"`
	Longitude float64 `json:"longitude" jsonschema:"description=Longitude in degrees"`
	Days      *int    `json:"days,omitempty" jsonschema:"description=Number of days to forecast,default=7"`
}

type SearchRequest struct {
	Query      string `json:"query" jsonschema:"description=Search query"`
	NumResults *int   `json:"num_results,omitempty" jsonschema:"description=Maximum number of results,default=5"`
}

type ValidateAddressRequest struct {
	Addresses  []string `json:"addresses" jsonschema:"description=Address lines of one postal address"`
	RegionCode string   `json:"region_code,omitempty" jsonschema:"description=CLDR region code,default=US"`
}

type FindPlacesRequest struct {
	Query    string  `json:"query" jsonschema:"description=What to search for, e.g. museums in Paris"`
	Location *string `json:"location,omitempty" jsonschema:"description=Optional center as \"lat\\,lng\""`
	Radius   *int    `json:"radius,omitempty" jsonschema:"description=Search radius in meters,default=5000"`
}

// Tools binds the tool functions to one dependency bundle.
type Tools struct {
	deps *deps.Dependencies
	now  func() time.Time
}

type Option func(*Tools)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tools) {
		t.now = now
	}
}

func New(d *deps.Dependencies, opts ...Option) *Tools {
	if d == nil {
		d = deps.New()
	}
	t := &Tools{deps: d, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Definitions returns the definitions of every tool, ready for registration.
func (t *Tools) Definitions() ([]*itools.ToolDefinition, error) {
	specs := []struct {
		name, description string
		fn                interface{}
	}{
		{NameGeocodeAddress, "Geocode an address to get coordinates and location details.", t.GeocodeAddress},
		{NameReverseGeocode, "Reverse geocode coordinates to get address information.", t.ReverseGeocodeCoordinates},
		{NameGetDirections, "Get directions between two locations.", t.GetDirections},
		{NameCurrentWeather, "Get current weather conditions for given coordinates.", t.GetCurrentWeather},
		{NameWeatherForecast, "Get the daily weather forecast for given coordinates.", t.GetWeatherForecast},
		{NameCurrentLocation, "Get the current location of the user based on IP address.", t.GetCurrentLocation},
		{NameCurrentDateTime, "Get the current date and time in ISO 8601 format.", t.GetCurrentDateTime},
		{NameSearchWeb, "Search the web for up-to-date travel information.", t.SearchWeb},
		{NameValidateAddress, "Validate a postal address.", t.ValidateAddress},
		{NameFindPlaces, "Search for places of interest, optionally around \"lat,lng\" coordinates.", t.FindPlaces},
	}
	defs := make([]*itools.ToolDefinition, 0, len(specs))
	for _, s := range specs {
		def, err := itools.NewToolFromFunc(s.name, s.description, s.fn)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (t *Tools) GeocodeAddress(ctx context.Context, in GeocodeRequest) ([]map[string]any, error) {
	if strings.TrimSpace(in.Address) == "" {
		return nil, itools.InvalidInputf("address is empty")
	}
	m := t.deps.Maps()
	if m == nil {
		return mapsError(errors.New(errNotConfiguredSuffix)), nil
	}
	res, err := m.Geocode(ctx, in.Address)
	if err != nil {
		return mapsError(err), nil
	}
	return recordsOrError(res), nil
}

func (t *Tools) ReverseGeocodeCoordinates(ctx context.Context, in ReverseGeocodeRequest) ([]map[string]any, error) {
	if err := checkCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}
	m := t.deps.Maps()
	if m == nil {
		return mapsError(errors.New(errNotConfiguredSuffix)), nil
	}
	res, err := m.ReverseGeocode(ctx, in.Latitude, in.Longitude)
	if err != nil {
		return mapsError(err), nil
	}
	return recordsOrError(res), nil
}

func (t *Tools) GetDirections(ctx context.Context, in DirectionsRequest) ([]map[string]any, error) {
	mode, err := googlemaps.ParseMode(in.Mode)
	if err != nil {
		return nil, errors.Wrap(itools.ErrInvalidInput, err.Error())
	}
	if strings.TrimSpace(in.Origin) == "" || strings.TrimSpace(in.Destination) == "" {
		return nil, itools.InvalidInputf("origin and destination are required")
	}
	m := t.deps.Maps()
	if m == nil {
		return mapsError(errors.New(errNotConfiguredSuffix)), nil
	}
	routes, err := m.Directions(ctx, in.Origin, in.Destination, mode)
	if err != nil {
		return mapsError(err), nil
	}
	return recordsOrError(routes), nil
}

func (t *Tools) GetCurrentWeather(ctx context.Context, in CoordinatesRequest) (map[string]any, error) {
	if err := checkCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}
	w := t.deps.Weather()
	if w == nil {
		return WeatherError(errors.New(errNotConfiguredSuffix)), nil
	}
	res, err := w.CurrentConditions(ctx, in.Latitude, in.Longitude)
	if err != nil {
		return WeatherError(err), nil
	}
	return res, nil
}

func (t *Tools) GetWeatherForecast(ctx context.Context, in ForecastRequest) (map[string]any, error) {
	if err := checkCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}
	days, err := positiveOr(in.Days, DefaultForecastDays, "days")
	if err != nil {
		return nil, err
	}
	w := t.deps.Weather()
	if w == nil {
		return WeatherError(errors.New(errNotConfiguredSuffix)), nil
	}
	res, err := w.Forecast(ctx, in.Latitude, in.Longitude, days)
	if err != nil {
		return WeatherError(err), nil
	}
	return res, nil
}

func (t *Tools) GetCurrentLocation(ctx context.Context) (map[string]any, error) {
	l := t.deps.Locator()
	if l == nil {
		return ErrorRecord("Could not get current location: %s", errNotConfiguredSuffix), nil
	}
	res, err := l.Current(ctx)
	if err != nil {
		return ErrorRecord("Could not get current location: %s", err.Error()), nil
	}
	return res, nil
}

func (t *Tools) GetCurrentDateTime(ctx context.Context) (string, error) {
	return t.now().Format(time.RFC3339), nil
}

func (t *Tools) SearchWeb(ctx context.Context, in SearchRequest) ([]map[string]any, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, itools.InvalidInputf("query is empty")
	}
	n, err := positiveOr(in.NumResults, DefaultSearchResults, "num_results")
	if err != nil {
		return nil, err
	}
	s := t.deps.WebSearch()
	if s == nil {
		return []map[string]any{SearchError(errors.New(errNotConfiguredSuffix))}, nil
	}
	resp, err := s.Search(ctx, in.Query, n)
	if err != nil {
		return []map[string]any{SearchError(err)}, nil
	}
	out, err := Records(resp.Results)
	if err != nil {
		return []map[string]any{SearchError(err)}, nil
	}
	return out, nil
}

func (t *Tools) ValidateAddress(ctx context.Context, in ValidateAddressRequest) (map[string]any, error) {
	lines := make([]string, 0, len(in.Addresses))
	for _, a := range in.Addresses {
		if a = strings.TrimSpace(a); a != "" {
			lines = append(lines, a)
		}
	}
	if len(lines) == 0 {
		return nil, itools.InvalidInputf("addresses is empty")
	}
	region := strings.TrimSpace(in.RegionCode)
	if region == "" {
		region = DefaultRegionCode
	}
	a := t.deps.AddressValidator()
	if a == nil {
		return ErrorRecord("Address validation error: %s", errNotConfiguredSuffix), nil
	}
	res, err := a.Validate(ctx, lines, region)
	if err != nil {
		return ErrorRecord("Address validation error: %s", err.Error()), nil
	}
	return res, nil
}

func (t *Tools) FindPlaces(ctx context.Context, in FindPlacesRequest) ([]map[string]any, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, itools.InvalidInputf("query is empty")
	}
	radius, err := positiveOr(in.Radius, DefaultPlacesRadius, "radius")
	if err != nil {
		return nil, err
	}
	var near *maps.LatLng
	if in.Location != nil && strings.TrimSpace(*in.Location) != "" {
		ll, err := googlemaps.ParseLatLng(*in.Location)
		if err != nil {
			return nil, errors.Wrap(itools.ErrInvalidInput, err.Error())
		}
		near = ll
	}
	m := t.deps.Maps()
	if m == nil {
		return mapsError(errors.New(errNotConfiguredSuffix)), nil
	}
	res, err := m.TextSearch(ctx, in.Query, near, uint(radius))
	if err != nil {
		return mapsError(err), nil
	}
	return recordsOrError(res), nil
}

// WeatherError formats a weather provider failure. HTTP failures carry only
// the status code.
func WeatherError(err error) map[string]any {
	var se *providers.StatusError
	if errors.As(err, &se) {
		return ErrorRecord("Weather API error: %d", se.StatusCode)
	}
	return ErrorRecord("Weather API error: %s", err.Error())
}

func SearchError(err error) map[string]any {
	return ErrorRecord("Web search error: %s", err.Error())
}

func MapsError(err error) map[string]any {
	return ErrorRecord("Google Maps error: %s", err.Error())
}

func mapsError(err error) []map[string]any {
	return []map[string]any{MapsError(err)}
}

func recordsOrError(v any) []map[string]any {
	out, err := Records(v)
	if err != nil {
		return mapsError(err)
	}
	return out
}

func positiveOr(v *int, def int, name string) (int, error) {
	if v == nil {
		return def, nil
	}
	if *v <= 0 {
		return 0, itools.InvalidInputf("%s must be positive, got %d", name, *v)
	}
	return *v, nil
}

func checkCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return itools.InvalidInputf("coordinates %v,%v are out of range", lat, lng)
	}
	return nil
}
