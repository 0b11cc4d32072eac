// Package depstest provides in-memory service fakes for tests.
package depstest

import (
	"context"
	"sync"

	"googlemaps.github.io/maps"

	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/websearch"
)

// Maps answers geocoding requests from a fixed table and records every call.
type Maps struct {
	mu        sync.Mutex
	Locations map[string]maps.LatLng
	Places    []maps.PlacesSearchResult
	Routes    []maps.Route
	Err       error

	Queries  []string
	Geocoded []string
	Routed   []string
}

func (m *Maps) Geocode(ctx context.Context, address string) ([]maps.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Geocoded = append(m.Geocoded, address)
	if m.Err != nil {
		return nil, m.Err
	}
	ll, ok := m.Locations[address]
	if !ok {
		return []maps.GeocodingResult{}, nil
	}
	return []maps.GeocodingResult{{
		FormattedAddress: address,
		Geometry:         maps.AddressGeometry{Location: ll},
	}}, nil
}

func (m *Maps) ReverseGeocode(ctx context.Context, lat, lng float64) ([]maps.GeocodingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for name, ll := range m.Locations {
		if ll.Lat == lat && ll.Lng == lng {
			return []maps.GeocodingResult{{FormattedAddress: name, Geometry: maps.AddressGeometry{Location: ll}}}, nil
		}
	}
	return []maps.GeocodingResult{}, nil
}

func (m *Maps) Directions(ctx context.Context, origin, destination string, mode maps.Mode) ([]maps.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Routed = append(m.Routed, origin+"->"+destination+":"+string(mode))
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Routes, nil
}

func (m *Maps) TextSearch(ctx context.Context, query string, near *maps.LatLng, radius uint) ([]maps.PlacesSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Places, nil
}

// Search returns canned results and records the queries and limits it saw.
type Search struct {
	mu      sync.Mutex
	Results []websearch.Result
	Err     error

	Queries []string
	Limits  []int
}

func (s *Search) Search(ctx context.Context, query string, maxResults int) (*websearch.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, query)
	s.Limits = append(s.Limits, maxResults)
	if s.Err != nil {
		return nil, s.Err
	}
	res := s.Results
	if len(res) > maxResults {
		res = res[:maxResults]
	}
	return &websearch.Response{Query: query, Results: append([]websearch.Result{}, res...)}, nil
}

type Weather struct {
	Current     map[string]any
	ForecastDay map[string]any
	Err         error
}

func (w *Weather) CurrentConditions(ctx context.Context, lat, lng float64) (map[string]any, error) {
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Current, nil
}

func (w *Weather) Forecast(ctx context.Context, lat, lng float64, days int) (map[string]any, error) {
	if w.Err != nil {
		return nil, w.Err
	}
	return w.ForecastDay, nil
}

type Locator struct {
	Record map[string]any
	Err    error
}

func (l *Locator) Current(ctx context.Context) (map[string]any, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Record, nil
}

type AddressValidator struct {
	Record map[string]any
	Err    error
}

func (a *AddressValidator) Validate(ctx context.Context, lines []string, regionCode string) (map[string]any, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	return a.Record, nil
}

// Paris returns a bundle whose fakes know Paris and return two hotels.
func Paris() (*deps.Dependencies, *Maps, *Search) {
	m := &Maps{
		Locations: map[string]maps.LatLng{"Paris": {Lat: 48.8566, Lng: 2.3522}},
		Places: []maps.PlacesSearchResult{
			{Name: "Hotel Lutetia", Rating: 4.6, FormattedAddress: "45 Bd Raspail, Paris"},
			{Name: "Le Meurice", Rating: 4.7, FormattedAddress: "228 Rue de Rivoli, Paris"},
		},
	}
	s := &Search{Results: []websearch.Result{
		{Title: "Best hotels in Paris", URL: "https://example.com/paris-hotels"},
	}}
	d := deps.New(
		deps.WithMaps(m),
		deps.WithWebSearch(s),
		deps.WithWeather(&Weather{
			Current:     map[string]any{"temperature": map[string]any{"degrees": 21.0}},
			ForecastDay: map[string]any{"forecastDays": []any{}},
		}),
		deps.WithLocator(&Locator{Record: map[string]any{"city": "Paris", "loc": "48.8566,2.3522"}}),
		deps.WithAddressValidator(&AddressValidator{Record: map[string]any{"result": map[string]any{}}}),
	)
	return d, m, s
}
