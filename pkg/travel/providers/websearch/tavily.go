// Package websearch is a client for the Tavily search API.
package websearch

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/itinerant/pkg/travel/providers"
)

const DefaultBaseURL = "https://api.tavily.com"

type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

type Response struct {
	Query        string   `json:"query"`
	Answer       string   `json:"answer,omitempty"`
	Results      []Result `json:"results"`
	ResponseTime float64  `json:"response_time,omitempty"`
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
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

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("tavily: API key is required")
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    providers.NewHTTPClient(providers.DefaultTimeout),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Search runs query and returns at most maxResults results.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("tavily: empty query")
	}
	if maxResults <= 0 {
		return nil, errors.Errorf("tavily: max_results must be positive, got %d", maxResults)
	}
	out := &Response{}
	err := providers.DoJSON(ctx, c.http, providers.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/search",
		Body:   searchRequest{APIKey: c.apiKey, Query: query, MaxResults: maxResults},
	}, out)
	if err != nil {
		return nil, err
	}
	if len(out.Results) > maxResults {
		out.Results = out.Results[:maxResults]
	}
	if out.Results == nil {
		out.Results = []Result{}
	}
	return out, nil
}
