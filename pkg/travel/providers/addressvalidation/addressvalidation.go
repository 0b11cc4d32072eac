// Package addressvalidation is a client for the Google Address Validation API.
package addressvalidation

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/itinerant/pkg/travel/providers"
)

const DefaultBaseURL = "https://addressvalidation.googleapis.com"

type postalAddress struct {
	RegionCode   string   `json:"regionCode,omitempty"`
	AddressLines []string `json:"addressLines"`
}

type validateRequest struct {
	Address postalAddress `json:"address"`
}

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

// Validate checks one postal address given as address lines.
func (c *Client) Validate(ctx context.Context, lines []string, regionCode string) (map[string]any, error) {
	if len(lines) == 0 {
		return nil, errors.New("no address lines")
	}
	out := map[string]any{}
	err := providers.DoJSON(ctx, c.http, providers.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/v1:validateAddress",
		Query:  map[string]string{"key": c.apiKey},
		Body:   validateRequest{Address: postalAddress{RegionCode: regionCode, AddressLines: lines}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
