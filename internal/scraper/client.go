package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	browser "github.com/eddycjy/fake-useragent"
	"golang.org/x/time/rate"
)

// FetchError is a transport or HTTP failure that survived every retry.
// It terminates the current page fetch; callers keep whatever pages they
// already collected.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the failure was below HTTP
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClientConfig tunes one adapter's fetch discipline. Each adapter carries
// its own conservative defaults; stricter sites get lower throughput.
type ClientConfig struct {
	RequestsPerMinute int
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
}

// Client is a rate-limited, retrying HTTP client owned by a single adapter
// instance. The throttle only ever delays a request, it never fails one.
// The connection pool must be opened before first use and closed when the
// scraping session ends.
type Client struct {
	cfg       ClientConfig
	limiter   *rate.Limiter
	transport *http.Transport
	http      *http.Client
	userAgent string
	randomUA  func() string // swapped out in tests
}

// NewClient builds a client with its own rate budget. Nothing is shared
// across adapters or across runs.
func NewClient(cfg ClientConfig) *Client {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Client{
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		randomUA: browser.Random,
	}
}

// Open initializes the connection pool and picks the session user agent.
func (c *Client) Open(ctx context.Context) error {
	if c.http != nil {
		return nil
	}
	c.transport = &http.Transport{
		MaxIdleConns:    10,
		MaxConnsPerHost: 5,
		IdleConnTimeout: 90 * time.Second,
	}
	c.http = &http.Client{
		Transport: c.transport,
		Timeout:   c.cfg.Timeout,
	}
	c.userAgent = c.randomUA()
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	c.http = nil
	c.transport = nil
}

// Fetch performs a throttled GET and returns the response body. Transport
// errors and HTTP >= 400 are retried up to MaxRetries with exponential
// backoff (RetryDelay * 2^attempt); a 429 instead waits the Retry-After
// hint (falling back to RetryDelay) but still consumes an attempt. Every
// attempt after a failure rotates the user agent. When the budget is
// exhausted a *FetchError carrying the last condition is returned.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	if c.http == nil {
		if err := c.Open(ctx); err != nil {
			return "", err
		}
	}

	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		if attempt > 0 {
			c.userAgent = c.randomUA()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", &FetchError{URL: url, Err: err}
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			lastStatus = 0
			if attempt < c.cfg.MaxRetries {
				log.Printf("[client] %s: %v, retrying", url, err)
				if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			break
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp, c.cfg.RetryDelay)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = errors.New("rate limited by server")
			lastStatus = resp.StatusCode
			if attempt < c.cfg.MaxRetries {
				log.Printf("[client] %s: rate limited, waiting %v", url, wait)
				if err := sleepCtx(ctx, wait); err != nil {
					return "", err
				}
				continue
			}
			break
		}

		if resp.StatusCode >= 400 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			lastStatus = resp.StatusCode
			if attempt < c.cfg.MaxRetries {
				log.Printf("[client] %s: HTTP %d, retrying", url, resp.StatusCode)
				if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			break
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			lastStatus = 0
			if attempt < c.cfg.MaxRetries {
				if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			break
		}
		return string(body), nil
	}

	return "", &FetchError{URL: url, StatusCode: lastStatus, Err: lastErr}
}

func (c *Client) backoff(attempt int) time.Duration {
	return c.cfg.RetryDelay * time.Duration(1<<attempt)
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
