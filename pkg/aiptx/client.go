// Package aiptx is a Go client for the AIPTX penetration testing API.
//
// The package covers the one-shot REST surface (projects, sessions,
// findings, tools, scan submission and polling). Live consumption of a
// running scan is handled by the session package, which builds on the
// stream endpoint exposed here.
package aiptx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the address of a locally running server.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds every one-shot request.
	DefaultTimeout = 30 * time.Second
)

// Client talks to one AIPTX server. It holds no job state and is safe for
// concurrent use; per-session state lives in the session package.
type Client struct {
	baseURL string
	httpc   *resty.Client
	// streamc has no client-wide timeout: the push channel stays open for
	// the lifetime of a scan and is bounded by its context instead.
	streamc *resty.Client
}

// NewClient creates a client for the given server. An empty baseURL falls
// back to DefaultBaseURL; an empty apiKey sends no Authorization header.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		httpc:   resty.New().SetBaseURL(baseURL).SetTimeout(DefaultTimeout),
		streamc: resty.New().SetBaseURL(baseURL).SetDoNotParseResponse(true),
	}
	c.httpc.SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.httpc.SetAuthToken(apiKey)
		c.streamc.SetAuthToken(apiKey)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption adjusts client construction.
type ClientOption func(*Client)

// WithTimeout overrides the one-shot request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpc.SetTimeout(d)
	}
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// send issues a one-shot request and returns the raw response body.
// Non-2xx responses become *ApiError, network failures *NetworkError.
// The transport never retries; retry policy belongs to callers.
func (c *Client) send(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	req := c.httpc.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, NewNetworkError(err)
	}

	if resp.StatusCode() >= 400 {
		return nil, NewApiError(resp.StatusCode(), string(resp.Body()))
	}
	return resp.Body(), nil
}

// get issues a GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	body, err := c.send(ctx, resty.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.decode(path, body, out)
}

func (c *Client) decode(path string, body []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return NewDecodeError(path, err)
	}
	return nil
}

// OpenScanStream connects to the push channel for one job and returns the
// raw event stream. The caller owns the ReadCloser and must close it; the
// stream ends when the server sends a terminal event, the connection drops,
// or ctx is cancelled.
func (c *Client) OpenScanStream(ctx context.Context, jobID string) (io.ReadCloser, error) {
	resp, err := c.streamc.R().
		SetContext(ctx).
		SetHeader("Accept", "text/event-stream").
		Get(fmt.Sprintf("/scans/%s/stream", jobID))
	if err != nil {
		return nil, NewNetworkError(err)
	}

	if resp.StatusCode() >= 400 {
		raw := resp.RawBody()
		body, _ := io.ReadAll(io.LimitReader(raw, 4096))
		raw.Close()
		return nil, NewApiError(resp.StatusCode(), string(body))
	}
	return resp.RawBody(), nil
}
