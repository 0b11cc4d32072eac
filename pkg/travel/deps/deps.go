// Package deps bundles the service clients shared by the travel agents and tools.
package deps

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"googlemaps.github.io/maps"

	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
	"github.com/go-go-golems/itinerant/pkg/travel/providers"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/addressvalidation"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/googlemaps"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/location"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/weather"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/websearch"
)

// Maps is the mapping service used for geocoding, directions and places.
type Maps interface {
	Geocode(ctx context.Context, address string) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) ([]maps.GeocodingResult, error)
	Directions(ctx context.Context, origin, destination string, mode maps.Mode) ([]maps.Route, error)
	TextSearch(ctx context.Context, query string, near *maps.LatLng, radius uint) ([]maps.PlacesSearchResult, error)
}

type WebSearch interface {
	Search(ctx context.Context, query string, maxResults int) (*websearch.Response, error)
}

type Weather interface {
	CurrentConditions(ctx context.Context, lat, lng float64) (map[string]any, error)
	Forecast(ctx context.Context, lat, lng float64, days int) (map[string]any, error)
}

type Locator interface {
	Current(ctx context.Context) (map[string]any, error)
}

type AddressValidator interface {
	Validate(ctx context.Context, lines []string, regionCode string) (map[string]any, error)
}

// Dependencies is built once and shared read-only by every agent and tool of
// a run. All clients are safe for concurrent use.
type Dependencies struct {
	maps      Maps
	search    WebSearch
	weather   Weather
	locator   Locator
	addresses AddressValidator
}

type Option func(*Dependencies)

func WithMaps(m Maps) Option { return func(d *Dependencies) { d.maps = m } }
func WithWebSearch(s WebSearch) Option { return func(d *Dependencies) { d.search = s } }
func WithWeather(w Weather) Option { return func(d *Dependencies) { d.weather = w } }
func WithLocator(l Locator) Option { return func(d *Dependencies) { d.locator = l } }
func WithAddressValidator(a AddressValidator) Option { return func(d *Dependencies) { d.addresses = a } }

// New assembles a bundle from explicit clients. Missing clients stay nil; the
// tools using them report an error result.
func New(opts ...Option) *Dependencies {
	d := &Dependencies{}
	for _, o := range opts {
		o(d)
	}
	return d
}

// FromSettings builds the clients from API settings. It fails when the mapping
// or web-search credentials are missing.
func FromSettings(s *settings.StepSettings) (*Dependencies, error) {
	if s == nil || s.API == nil {
		return nil, errors.New("no API settings")
	}
	httpClient := httpClientFor(s)

	m, err := googlemaps.NewClient(s.API.APIKey(settings.KeyGoogleMaps), googlemaps.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "create mapping client")
	}
	ws, err := websearch.NewClient(s.API.APIKey(settings.KeyTavily),
		websearch.WithBaseURL(s.API.BaseURL(settings.KeyTavily)),
		websearch.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "create web search client")
	}

	return New(append(keyless(s, httpClient), WithMaps(m), WithWebSearch(ws))...), nil
}

// Available builds every client whose credentials are configured. Clients
// that cannot be created stay nil.
func Available(s *settings.StepSettings) *Dependencies {
	if s == nil || s.API == nil {
		return New()
	}
	httpClient := httpClientFor(s)
	opts := keyless(s, httpClient)
	if m, err := googlemaps.NewClient(s.API.APIKey(settings.KeyGoogleMaps), googlemaps.WithHTTPClient(httpClient)); err == nil {
		opts = append(opts, WithMaps(m))
	}
	if ws, err := websearch.NewClient(s.API.APIKey(settings.KeyTavily),
		websearch.WithBaseURL(s.API.BaseURL(settings.KeyTavily)),
		websearch.WithHTTPClient(httpClient)); err == nil {
		opts = append(opts, WithWebSearch(ws))
	}
	return New(opts...)
}

func httpClientFor(s *settings.StepSettings) *http.Client {
	timeout := providers.DefaultTimeout
	if s.Client != nil && s.Client.Timeout > 0 {
		timeout = s.Client.Timeout
	}
	return providers.NewHTTPClient(timeout)
}

// keyless returns the clients that can be created without a credential check.
func keyless(s *settings.StepSettings, httpClient *http.Client) []Option {
	return []Option{
		WithWeather(weather.NewClient(s.API.APIKey(settings.KeyGoogle),
			weather.WithBaseURL(s.API.BaseURL(settings.KeyWeather)),
			weather.WithHTTPClient(httpClient))),
		WithLocator(location.NewClient(
			location.WithBaseURL(s.API.BaseURL(settings.KeyIPInfo)),
			location.WithToken(s.API.APIKey(settings.KeyIPInfo)),
			location.WithHTTPClient(httpClient))),
		WithAddressValidator(addressvalidation.NewClient(s.API.APIKey(settings.KeyGoogle),
			addressvalidation.WithBaseURL(s.API.BaseURL(settings.KeyAddressValidation)),
			addressvalidation.WithHTTPClient(httpClient))),
	}
}

func (d *Dependencies) Maps() Maps { return d.maps }
func (d *Dependencies) WebSearch() WebSearch { return d.search }
func (d *Dependencies) Weather() Weather { return d.weather }
func (d *Dependencies) Locator() Locator { return d.locator }
func (d *Dependencies) AddressValidator() AddressValidator { return d.addresses }
