// Package search is a small client for the Tavily web search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint   = "https://api.tavily.com/search"
	DefaultMaxResults = 5
	defaultDepth      = "basic"
	maxErrorBody      = 512 // bytes of a failed response kept for the error
)

// ErrEmptyQuery is returned when the query is blank.
var ErrEmptyQuery = errors.New("search: empty query")

// ErrMissingKey is returned when no API key is supplied.
var ErrMissingKey = errors.New("search: missing api key")

// Result is one search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// APIError is a non-2xx response from the search endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search: http %d", e.Status)
	}
	return fmt.Sprintf("search: http %d: %s", e.Status, e.Body)
}

// Client performs Tavily searches. The zero value is not usable; use New.
type Client struct {
	Endpoint   string
	MaxResults int
	HTTPClient *http.Client

	limiter *rate.Limiter
}

type Option func(*Client)

func WithEndpoint(u string) Option { return func(c *Client) { c.Endpoint = u } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTPClient = h } }

func WithMaxResults(n int) Option { return func(c *Client) { c.MaxResults = n } }

// WithRateLimit paces outbound searches to rps requests per second with the
// given burst. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		Endpoint:   DefaultEndpoint,
		MaxResults: DefaultMaxResults,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type request struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type response struct {
	Results []Result `json:"results"`
}

// Search runs one query and returns the results in the provider's order.
// It makes exactly one HTTP request and never retries.
func (c *Client) Search(ctx context.Context, query, apiKey string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search: rate limit wait: %w", err)
	}

	body, err := json.Marshal(request{
		APIKey:      apiKey,
		Query:       query,
		SearchDepth: defaultDepth,
		MaxResults:  c.MaxResults,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	return out.Results, nil
}

// Flatten renders results as one text blob, one line per result.
func Flatten(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Content)
		if text == "" {
			text = strings.TrimSpace(r.Title)
		}
		lines = append(lines, fmt.Sprintf("%s [Source: %s]", text, r.URL))
	}
	return strings.Join(lines, "\n")
}
