// Package providers holds the HTTP plumbing shared by the travel service clients.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns a pooled client with the given request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	c := cleanhttp.DefaultPooledClient()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.Timeout = timeout
	return c
}

// StatusError is returned for responses with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Request describes one JSON call.
type Request struct {
	Method    string
	URL       string
	Query     map[string]string
	Body      any
	UserAgent string

	// ExpectStatus, when set, is the only accepted status. Otherwise any 2xx is.
	ExpectStatus int
}

// DoJSON sends req and decodes the JSON response into out. Unexpected statuses
// are returned as *StatusError.
func DoJSON(ctx context.Context, c *http.Client, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(b)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}

	start := time.Now()
	resp, err := c.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	log.Debug().
		Str("method", method).
		Str("host", httpReq.URL.Host).
		Str("path", httpReq.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("provider request")

	if !req.accepts(resp.StatusCode) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func (r Request) accepts(status int) bool {
	if r.ExpectStatus != 0 {
		return status == r.ExpectStatus
	}
	return status >= 200 && status <= 299
}
