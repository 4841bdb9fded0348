package apifootball

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	headerKey  = "X-RapidAPI-Key"
	headerHost = "X-RapidAPI-Host"

	// maxErrorBody caps how much of a failed response is kept in the error
	maxErrorBody = 512
)

// Envelope is the API-Football response wrapper.
// Every resource returns its records under "response".
type Envelope struct {
	Get      string            `json:"get"`
	Errors   json.RawMessage   `json:"errors"`
	Results  int               `json:"results"`
	Response []json.RawMessage `json:"response"`
}

// Client handles API-Football requests
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiHost    string
}

// New creates a new API-Football client from upstream configuration
func New(cfg config.UpstreamConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		apiHost: cfg.APIHostHeader(),
	}
}

// URL returns the literal upstream URL for an endpoint path
func (c *Client) URL(endpoint string) string {
	return c.baseURL + endpoint
}

// Fetch makes a GET request for endpoint and returns the decoded envelope.
// Any failure is returned as *UpstreamError.
func (c *Client) Fetch(ctx context.Context, endpoint string) (*Envelope, error) {
	resource := resourceName(endpoint)
	started := time.Now()

	env, err := c.fetch(ctx, endpoint)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.Observer.ObserveUpstream(resource, outcome, time.Since(started).Seconds())

	log.Debug().
		Str("endpoint", endpoint).
		Str("outcome", outcome).
		Dur("took", time.Since(started)).
		Msg("upstream request")

	return env, err
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*Envelope, error) {
	url := c.URL(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set(headerKey, c.apiKey)
	req.Header.Set(headerHost, c.apiHost)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("making request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncate(body, maxErrorBody),
			Err:        ErrBadStatus,
		}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       truncate(body, maxErrorBody),
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}

	// API-Football reports key and quota problems with a 200 and a populated "errors" member
	if hasErrors(env.Errors) {
		return nil, &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(env.Errors),
			Err:        ErrAPIErrors,
		}
	}

	return &env, nil
}

// hasErrors reports whether the envelope's errors member is a non-empty array or object
func hasErrors(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}

	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return true
	}

	switch val := v.(type) {
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	case string:
		return val != ""
	default:
		return false
	}
}

// resourceName extracts the metric label from an endpoint, e.g. "/leagues?country=x" -> "leagues"
func resourceName(endpoint string) string {
	path := endpoint
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return "unknown"
	}
	return path
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
