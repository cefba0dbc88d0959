package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the public Overpass API interpreter endpoint.
	DefaultEndpoint = "http://overpass-api.de/api/interpreter"

	// DefaultUserAgent identifies this client to the API operators.
	DefaultUserAgent = "osmextract/0.1.0"

	// DefaultCacheSize is the number of query responses kept in memory.
	DefaultCacheSize = 32
)

// Client dispatches Overpass QL queries over HTTP. Requests are rate
// limited and responses are memoized in an LRU cache keyed by query string,
// so repeated extractions of the same area do not hit the API twice.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	limiter    *rate.Limiter
	cache      *lru.Cache[string, *Response]
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the Overpass API endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithUserAgent overrides the User-Agent string sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit sets the request rate limit in requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCacheSize sets the LRU response cache capacity. A size of 0 disables
// caching.
func WithCacheSize(size int) Option {
	return func(c *Client) {
		c.cache = nil
		if size > 0 {
			c.cache, _ = lru.New[string, *Response](size)
		}
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates an Overpass API client with pooled connections and
// default rate limiting of one request per second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		endpoint:  DefaultEndpoint,
		userAgent: DefaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		logger:    slog.Default(),
	}
	c.cache, _ = lru.New[string, *Response](DefaultCacheSize)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query sends an Overpass QL query and returns the decoded response.
//
// The query travels as the "data" URL parameter of a single GET request.
// Recognized error statuses (302, 400, 429, 504) are returned as their
// sentinel APIError before any body decoding; any other status, 200
// included, is decoded and returned as-is.
func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(query); ok {
			c.logger.Debug("overpass cache hit", "query", query)
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.endpoint + "?data=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("sending overpass query", "endpoint", c.endpoint, "query", query)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if apiErr := statusError(resp.StatusCode); apiErr != nil {
		c.logger.Error("overpass returned error status",
			"status", resp.StatusCode,
			"endpoint", c.endpoint,
		)
		return nil, apiErr
	}

	var decoded Response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	c.logger.Debug("overpass query complete",
		"status", resp.StatusCode,
		"elements", len(decoded.Elements),
	)

	if c.cache != nil {
		c.cache.Add(query, &decoded)
	}
	return &decoded, nil
}
