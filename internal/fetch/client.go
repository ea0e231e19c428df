package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a response is read into memory.
const maxBodySize = 8 << 20

// Config holds fetch client configuration.
type Config struct {
	Timeout   time.Duration
	Delay     time.Duration
	UserAgent string
}

type Response struct {
	StatusCode int
	Body       []byte
	URL        string
}

// Getter is the transport sources depend on.
type Getter interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Client performs polite GET requests. Consecutive requests to the same
// host are spaced by at least the configured delay.
type Client struct {
	httpClient *http.Client
	userAgent  string
	delay      time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: cfg.UserAgent,
		delay:     cfg.Delay,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Limit overrides the politeness delay for one host.
func (c *Client) Limit(host string, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limiters[strings.ToLower(host)] = newLimiter(delay)
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func (c *Client) limiter(host string) *rate.Limiter {
	host = strings.ToLower(host)
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = newLimiter(c.delay)
		c.limiters[host] = l
	}
	return l
}

// Get fetches rawURL. Non-2xx responses are returned as *StatusError.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for %s: %w", u.Host, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml,application/json;q=0.9,*/*;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
	}, nil
}
