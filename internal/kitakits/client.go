// Package kitakits implements the HTTP client for the KitaKits analytics
// backend: endpoint discovery over an ordered candidate list, the final
// filtered fetch, and parsing of the two payload formats the backend has
// shipped. All methods are context-aware, respect the shared rate limiter,
// and bound every request by the configured per-request timeout.
package kitakits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// AnalyticsPath is the well-known sub-path probed on every candidate.
const AnalyticsPath = "/analytics"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

var (
	// ErrStatus marks a response with a non-2xx status code.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrMalformedBody marks a 2xx response whose body is not a JSON object.
	ErrMalformedBody = errors.New("malformed response body")
)

// Client is the KitaKits API HTTP client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	userAgent  string
}

// NewClient creates a Client whose requests are each bounded by timeout and
// collectively paced at ratePerSec.
func NewClient(timeout time.Duration, ratePerSec float64, userAgent string) *Client {
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	if userAgent == "" {
		userAgent = "kitadash/1.0"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), burst),
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Fetch performs the final analytics fetch against a resolved endpoint,
// appending filters as query parameters. It returns the raw body of a 2xx
// response.
func (c *Client) Fetch(ctx context.Context, endpoint string, filters url.Values) ([]byte, error) {
	status, body, err := c.get(ctx, AnalyticsURL(endpoint, filters))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	if !isSuccess(status) {
		return nil, fmt.Errorf("fetching %s: %w: HTTP %d", endpoint, ErrStatus, status)
	}
	slog.Debug("kitakits fetch", "endpoint", endpoint, "filters", filters.Encode(), "bytes", len(body))
	return body, nil
}

// AnalyticsURL joins a base URL with the analytics path and optional query.
func AnalyticsURL(base string, filters url.Values) string {
	u := strings.TrimRight(base, "/") + AnalyticsPath
	if len(filters) > 0 {
		u += "?" + filters.Encode()
	}
	return u
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// get performs one bounded GET. It never retries; the caller decides what a
// failure means. The returned status is zero when no response arrived.
// Waiting for the rate limiter is bounded by ctx only, not by the request
// timeout.
func (c *Client) get(ctx context.Context, reqURL string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
