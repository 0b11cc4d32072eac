// Package location resolves the caller's approximate position from its IP address.
package location

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-go-golems/itinerant/pkg/travel/providers"
)

const DefaultBaseURL = "https://ipinfo.io"

type Client struct {
	baseURL string
	token   string
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

// WithToken sets the optional ipinfo access token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    providers.NewHTTPClient(providers.DefaultTimeout),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Current returns the ipinfo record (ip, city, region, country, loc, timezone...).
func (c *Client) Current(ctx context.Context) (map[string]any, error) {
	req := providers.Request{URL: c.baseURL + "/json"}
	if c.token != "" {
		req.Query = map[string]string{"token": c.token}
	}
	out := map[string]any{}
	if err := providers.DoJSON(ctx, c.http, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
