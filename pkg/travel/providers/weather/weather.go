// Package weather is a client for the Google Weather REST API.
package weather

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/itinerant/pkg/travel/providers"
)

const DefaultBaseURL = "https://weather.googleapis.com"

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    providers.NewHTTPClient(providers.DefaultTimeout),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CurrentConditions returns the decoded body of currentConditions:lookup.
// Non-200 responses are returned as *providers.StatusError.
func (c *Client) CurrentConditions(ctx context.Context, lat, lng float64) (map[string]any, error) {
	return c.lookup(ctx, "/v1/currentConditions:lookup", lat, lng, nil)
}

// Forecast returns the decoded body of forecast/days:lookup for the next days.
func (c *Client) Forecast(ctx context.Context, lat, lng float64, days int) (map[string]any, error) {
	if days <= 0 {
		return nil, errors.Errorf("days must be positive, got %d", days)
	}
	return c.lookup(ctx, "/v1/forecast/days:lookup", lat, lng, map[string]string{"days": strconv.Itoa(days)})
}

func (c *Client) lookup(ctx context.Context, path string, lat, lng float64, extra map[string]string) (map[string]any, error) {
	q := map[string]string{
		"key":                c.apiKey,
		"location.latitude":  strconv.FormatFloat(lat, 'f', -1, 64),
		"location.longitude": strconv.FormatFloat(lng, 'f', -1, 64),
	}
	for k, v := range extra {
		q[k] = v
	}
	out := map[string]any{}
	if err := providers.DoJSON(ctx, c.http, providers.Request{
		URL:          c.baseURL + path,
		Query:        q,
		ExpectStatus: http.StatusOK,
	}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
