// Package googlemaps wraps the Google Maps client with the lookups used by the
// travel tools: geocoding, directions and places text search.
package googlemaps

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"googlemaps.github.io/maps"

	"github.com/go-go-golems/itinerant/pkg/travel/providers"
)

type Client struct {
	maps *maps.Client
}

type options struct {
	baseURL string
	http    *http.Client
}

type Option func(*options)

// WithBaseURL points the client at another Maps API host.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(o *options) {
		o.http = h
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("google maps: API key is required")
	}
	o := &options{http: providers.NewHTTPClient(providers.DefaultTimeout)}
	for _, opt := range opts {
		opt(o)
	}
	mapsOpts := []maps.ClientOption{maps.WithAPIKey(apiKey), maps.WithHTTPClient(o.http)}
	if o.baseURL != "" {
		mapsOpts = append(mapsOpts, maps.WithBaseURL(o.baseURL))
	}
	c, err := maps.NewClient(mapsOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "google maps")
	}
	return &Client{maps: c}, nil
}

func (c *Client) Geocode(ctx context.Context, address string) ([]maps.GeocodingResult, error) {
	return c.maps.Geocode(ctx, &maps.GeocodingRequest{Address: address})
}

func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) ([]maps.GeocodingResult, error) {
	return c.maps.ReverseGeocode(ctx, &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: lat, Lng: lng}})
}

// Directions returns routes from origin to destination, departing now.
func (c *Client) Directions(ctx context.Context, origin, destination string, mode maps.Mode) ([]maps.Route, error) {
	routes, _, err := c.maps.Directions(ctx, &maps.DirectionsRequest{
		Origin:        origin,
		Destination:   destination,
		Mode:          mode,
		DepartureTime: "now",
	})
	return routes, err
}

// TextSearch runs a places text search, optionally biased to radius meters around near.
func (c *Client) TextSearch(ctx context.Context, query string, near *maps.LatLng, radius uint) ([]maps.PlacesSearchResult, error) {
	req := &maps.TextSearchRequest{Query: query}
	if near != nil {
		req.Location = near
		req.Radius = radius
	}
	resp, err := c.maps.TextSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ParseMode validates a travel mode name.
func ParseMode(s string) (maps.Mode, error) {
	switch m := maps.Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return maps.TravelModeDriving, nil
	case maps.TravelModeDriving, maps.TravelModeWalking, maps.TravelModeBicycling, maps.TravelModeTransit:
		return m, nil
	default:
		return "", errors.Errorf("unknown travel mode %q (expected driving, walking, bicycling or transit)", s)
	}
}

// ParseLatLng parses a "lat,lng" string. Whitespace around both numbers is allowed.
func ParseLatLng(s string) (*maps.LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, errors.Errorf("location %q is not of the form \"lat,lng\"", s)
	}
	ll, err := maps.ParseLatLng(strings.TrimSpace(parts[0]) + "," + strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errors.Wrapf(err, "location %q is not of the form \"lat,lng\"", s)
	}
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.Abs(ll.Lat) > 90 || math.Abs(ll.Lng) > 180 {
		return nil, errors.Errorf("location %q is out of range", s)
	}
	return &ll, nil
}

// FirstLocation returns the coordinates of the first geocoding result.
func FirstLocation(results []maps.GeocodingResult) (maps.LatLng, bool) {
	if len(results) == 0 {
		return maps.LatLng{}, false
	}
	return results[0].Geometry.Location, true
}
