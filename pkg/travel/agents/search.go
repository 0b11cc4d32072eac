package agents

import (
	"context"

	"github.com/rs/zerolog/log"
	"googlemaps.github.io/maps"

	"github.com/go-go-golems/itinerant/pkg/travel/deps"
	"github.com/go-go-golems/itinerant/pkg/travel/providers/googlemaps"
	traveltools "github.com/go-go-golems/itinerant/pkg/travel/tools"
)

const (
	lodgingRadius    = 5000
	attractionRadius = 8000
)

// locate geocodes location, returning false when it cannot be resolved.
func locate(ctx context.Context, d *deps.Dependencies, location string) (*maps.LatLng, bool) {
	m := d.Maps()
	if m == nil {
		return nil, false
	}
	res, err := m.Geocode(ctx, location)
	if err != nil {
		log.Debug().Err(err).Str("location", location).Msg("geocoding failed")
		return nil, false
	}
	ll, ok := googlemaps.FirstLocation(res)
	if !ok {
		return nil, false
	}
	return &ll, true
}

// places runs a text search around near. Failures yield an empty list.
func places(ctx context.Context, d *deps.Dependencies, query string, near *maps.LatLng, radius uint) []map[string]any {
	empty := []map[string]any{}
	m := d.Maps()
	if m == nil || near == nil {
		return empty
	}
	res, err := m.TextSearch(ctx, query, near, radius)
	if err != nil {
		log.Debug().Err(err).Str("query", query).Msg("places search failed")
		return empty
	}
	out, err := traveltools.Records(res)
	if err != nil {
		return empty
	}
	return out
}

// webSearch returns the search response as a record, or an error record.
func webSearch(ctx context.Context, d *deps.Dependencies, query string, maxResults int) map[string]any {
	s := d.WebSearch()
	if s == nil {
		return traveltools.ErrorRecord("Web search error: client not configured")
	}
	resp, err := s.Search(ctx, query, maxResults)
	if err != nil {
		return traveltools.SearchError(err)
	}
	out, err := traveltools.Record(resp)
	if err != nil {
		return traveltools.SearchError(err)
	}
	return out
}
