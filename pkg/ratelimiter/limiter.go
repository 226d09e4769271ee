// Kunhua Huang 2026

package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidRequest    = errors.New("invalid request for rate limiter")
)

// RateLimiter gates accepted connections before their exchange runs.
type RateLimiter interface {
	Allow(ctx context.Context) bool
	AllowN(ctx context.Context, n int) bool
	Wait(ctx context.Context) error
	Name() string
}

const (
	TypeTokenBucket   = "token_bucket"
	TypeSlidingWindow = "sliding_window"
)

// New builds a limiter by name. For a token bucket rate is tokens per second
// and burst the bucket size; for a sliding window rate is the number of
// connections allowed per window.
func New(kind string, rate, burst int64, window time.Duration) (RateLimiter, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: rate must be positive, got %d", ErrInvalidRequest, rate)
	}

	switch kind {
	case TypeTokenBucket, "":
		if burst <= 0 {
			burst = rate
		}
		return NewTokenBucketLimiter(rate, burst), nil
	case TypeSlidingWindow:
		if window <= 0 {
			window = time.Second
		}
		return NewSlidingWindowLimiter(rate, window), nil
	default:
		return nil, fmt.Errorf("unknown rate limiter %q", kind)
	}
}
