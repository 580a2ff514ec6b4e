package edgar

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by every outbound request. The bucket
// starts full with `capacity` tokens and refills at `refill` tokens per
// second; Acquire blocks the caller until a token is available, so a burst
// of N > capacity acquisitions takes at least (N-capacity)/refill seconds.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter.
// Parameters:
//   - capacity: bucket size; must be >= 1.
//   - refill: refill rate in tokens per second; must be > 0.
// Returns:
//   - *RateLimiter: limiter with a full bucket.
//   - error: non-nil on invalid configuration.
func NewRateLimiter(capacity int, refill float64) (*RateLimiter, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("rate limiter capacity must be >= 1, got %d", capacity)
	}
	if refill <= 0 {
		return nil, fmt.Errorf("rate limiter refill must be > 0, got %v", refill)
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(refill), capacity)}, nil
}

// Acquire consumes one token, blocking until the bucket refills if empty.
// Parameters:
//   - ctx: context; cancellation unblocks a waiting caller.
// Returns:
//   - error: non-nil only when ctx is cancelled while waiting.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
