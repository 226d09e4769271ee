// Kunhua Huang 2026

package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type SlidingWindowLimiter struct {
	limit  int64
	window time.Duration

	// admission times, oldest first
	admitted []time.Time
	mu       sync.Mutex
	now      func() time.Time
}

func NewSlidingWindowLimiter(limit int64, window time.Duration) RateLimiter {
	return &SlidingWindowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (swl *SlidingWindowLimiter) Allow(ctx context.Context) bool {
	return swl.AllowN(ctx, 1)
}

func (swl *SlidingWindowLimiter) AllowN(ctx context.Context, n int) bool {
	if n <= 0 {
		return true
	}

	swl.mu.Lock()
	defer swl.mu.Unlock()

	now := swl.now()
	windowStart := now.Add(-swl.window)

	expired := 0
	for expired < len(swl.admitted) && !swl.admitted[expired].After(windowStart) {
		expired++
	}
	swl.admitted = swl.admitted[expired:]

	if int64(len(swl.admitted))+int64(n) > swl.limit {
		return false
	}

	for i := 0; i < n; i++ {
		swl.admitted = append(swl.admitted, now)
	}

	return true
}

func (swl *SlidingWindowLimiter) Wait(ctx context.Context) error {
	for {
		if swl.Allow(ctx) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (swl *SlidingWindowLimiter) Name() string {
	return "sliding-window"
}
