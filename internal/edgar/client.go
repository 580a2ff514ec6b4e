// Package edgar implements the ingestion-side SEC EDGAR surface: the
// rate-limited fetch layer, the daily-index parsers, per-filing document
// discovery, fiscal metadata extraction, and the company submissions API.
package edgar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/edgarvault/internal/logger"
)

// FatalReason classifies conditions that must stop the whole crawl rather
// than skip one item. Rate limiting and forbidden responses mean the crawl
// has run afoul of the SEC's access policy; retrying would risk a ban.
type FatalReason string

const (
	ReasonRateLimited FatalReason = "rate_limited" // HTTP 429
	ReasonForbidden   FatalReason = "forbidden"    // HTTP 403
	ReasonConnection  FatalReason = "connection"   // transport-level failure
	ReasonInterrupted FatalReason = "interrupted"  // user cancellation
)

// FatalError aborts the entire run. Everything else the fetch layer reports
// is per-item and the batch continues.
type FatalError struct {
	Reason FatalReason
	URL    string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal fetch failure (%s) for %s: %v", e.Reason, e.URL, e.Err)
	}
	return fmt.Sprintf("fatal fetch failure (%s) for %s", e.Reason, e.URL)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// StatusTimeout is the synthetic status returned for a request that timed
// out; callers treat it like any other non-200 and skip the item.
const StatusTimeout = http.StatusRequestTimeout

// Response is the fetch layer's view of an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carries a usable payload.
func (r *Response) OK() bool { return r.StatusCode == http.StatusOK }

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// ClientConfig holds fetch-layer settings.
type ClientConfig struct {
	UserAgent         string
	Timeout           time.Duration
	RateLimitCapacity int
	RateLimitRefill   float64
}

// Client wraps every outbound request with the shared rate limiter, the
// SEC-mandated identification headers, and the fail-fast status policy.
type Client struct {
	http    *resty.Client
	limiter *RateLimiter
}

// NewClient creates a fetch client.
// Parameters:
//   - cfg: fetch-layer settings; Timeout defaults to 30s.
// Returns:
//   - *Client: initialized client.
//   - error: non-nil if the rate limiter configuration is invalid.
func NewClient(cfg *ClientConfig) (*Client, error) {
	limiter, err := NewRateLimiter(cfg.RateLimitCapacity, cfg.RateLimitRefill)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept-Encoding", "gzip, deflate")
	client.SetHeader("Accept", "application/json, text/html, */*")

	return &Client{http: client, limiter: limiter}, nil
}

// Get fetches a URL under the rate limit and applies the status policy:
// 429/403 and connection failures return a *FatalError, a timeout returns a
// synthetic 408 response, everything else (including 404 and 5xx) is handed
// back for the caller to judge.
// Parameters:
//   - ctx: context; cancellation is treated as a user interrupt.
//   - rawURL: absolute URL to fetch.
// Returns:
//   - *Response: response payload, possibly synthetic on timeout.
//   - error: *FatalError for run-ending conditions.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, &FatalError{Reason: ReasonInterrupted, URL: rawURL, Err: err}
	}

	fileName := urlFileName(rawURL)

	resp, err := c.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.CtxWarn(ctx, "[STOP] interrupted by user")
			return nil, &FatalError{Reason: ReasonInterrupted, URL: rawURL, Err: err}
		}
		var uerr *url.Error
		if (errors.As(err, &uerr) && uerr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			logger.CtxWarn(ctx, "[TIMEOUT] skipping %s", fileName)
			return &Response{StatusCode: StatusTimeout}, nil
		}
		logger.CtxError(ctx, "[STOP] connection error, stopping run: %s", rawURL)
		return nil, &FatalError{Reason: ReasonConnection, URL: rawURL, Err: err}
	}

	code := resp.StatusCode()

	switch {
	case code == http.StatusTooManyRequests:
		logger.CtxError(ctx, "[STOP] rate limited (429), stopping run: %s", rawURL)
		return nil, &FatalError{Reason: ReasonRateLimited, URL: rawURL}
	case code == http.StatusForbidden:
		logger.CtxError(ctx, "[STOP] access forbidden (403), stopping run: %s", rawURL)
		return nil, &FatalError{Reason: ReasonForbidden, URL: rawURL}
	case code == http.StatusNotFound:
		logger.CtxDebug(ctx, "[404] %s not found", fileName)
	case code >= 400:
		logger.CtxWarn(ctx, "[HTTP %d] for %s", code, fileName)
	}

	return &Response{StatusCode: code, Body: resp.Body()}, nil
}

func urlFileName(rawURL string) string {
	if idx := strings.LastIndex(rawURL, "/"); idx != -1 {
		return rawURL[idx+1:]
	}
	return rawURL
}
