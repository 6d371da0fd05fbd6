package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/arpablo/henni-repo/internal/infrastructure/resilience"
)

// APIPrefix is the path under which the server mounts the repository.
const APIPrefix = "/api/repo/v1"

// Client talks to a henni-repo server. It wraps resty with rate limiting,
// retries for idempotent reads and a circuit breaker.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	Mu      sync.RWMutex
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
	UserAgent  string
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
		UserAgent:  "henni-repo-client/1.0",
	}
}

// New creates a client for the server at baseURL with default settings.
func New(baseURL string) *Client {
	return NewWithConfig(DefaultConfig(baseURL))
}

// NewWithConfig creates a client from cfg.
func NewWithConfig(cfg Config) *Client {
	// Pooled transport with sane timeouts
	transport := retryablehttp.NewClient().HTTPClient.Transport

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.MinWait).
		SetRetryMaxWaitTime(cfg.MaxWait).
		SetHeader("User-Agent", cfg.UserAgent).
		AddRetryCondition(shouldRetry)

	breaker := resilience.New("henni-repo", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
		},
		// A 4xx answer means the server is healthy
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || (errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError)
		},
	})

	return &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0), // Unlimited by default
		Breaker: breaker,
	}
}

// shouldRetry retries reads when retryablehttp's policy considers the
// failure transient. Writes are never retried because request bodies are
// streamed.
func shouldRetry(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil {
		return false
	}
	switch resp.Request.Method {
	case http.MethodGet, http.MethodHead:
	default:
		return false
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(resp.Request.Context(), resp.RawResponse, err)
	return retry
}

// SetHeader adds default header
func (c *Client) SetHeader(key, value string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetTimeout configures request timeout
func (c *Client) SetTimeout(duration time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetTimeout(duration)
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, minWait, maxWait time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetRetryCount(maxRetries).
		SetRetryWaitTime(minWait).
		SetRetryMaxWaitTime(maxWait)
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// SetBearerAuth configures bearer token authentication
func (c *Client) SetBearerAuth(token string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetAuthToken(token)
}

// Request creates new request with rate limiting and circuit breaker protection
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	// Check circuit breaker state first
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	// Wait for rate limiter
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}

// execute sends the request through the breaker and turns error statuses
// into *APIError.
func (c *Client) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	var body errorBody
	req.SetError(&body)

	resp, err := resilience.Do(c.Breaker, func() (*resty.Response, error) {
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, newAPIError(resp.StatusCode(), body.Error)
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("repository unavailable: %w", err)
	}
	return resp, err
}

// resourcePath builds the URL path of a repository path, escaping each
// segment.
func resourcePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return APIPrefix + "/" + strings.Join(segments, "/")
}
