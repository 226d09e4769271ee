// Kunhua Huang 2026

package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type TokenBucketLimiter struct {
	capacity int64
	rate     int64

	tokens     int64
	lastUpdate time.Time

	nsRemainder int64 // carried between refills so slow rates still accrue
	mu          sync.Mutex
	now         func() time.Time
}

func NewTokenBucketLimiter(rate, capacity int64) RateLimiter {
	return &TokenBucketLimiter{
		capacity:   capacity,
		rate:       rate,
		tokens:     capacity,
		lastUpdate: time.Now(),
		now:        time.Now,
	}
}

func (tb *TokenBucketLimiter) Allow(ctx context.Context) bool {
	return tb.AllowN(ctx, 1)
}

func (tb *TokenBucketLimiter) AllowN(ctx context.Context, n int) bool {
	if n <= 0 {
		return true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.now())

	if tb.tokens < int64(n) {
		return false
	}
	tb.tokens -= int64(n)
	return true
}

func (tb *TokenBucketLimiter) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill(tb.now())
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		wait := tb.nsPerToken() - tb.nsRemainder
		tb.mu.Unlock()

		if wait < int64(time.Microsecond) {
			wait = int64(time.Microsecond)
		}

		timer := time.NewTimer(time.Duration(wait))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (tb *TokenBucketLimiter) nsPerToken() int64 {
	return int64(time.Second) / tb.rate
}

func (tb *TokenBucketLimiter) refill(now time.Time) {
	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}
	tb.lastUpdate = now

	perToken := tb.nsPerToken()
	if perToken <= 0 {
		tb.tokens = tb.capacity
		tb.nsRemainder = 0
		return
	}

	total := tb.nsRemainder + int64(elapsed)
	tb.tokens += total / perToken
	tb.nsRemainder = total % perToken
	if tb.tokens >= tb.capacity {
		tb.tokens = tb.capacity
		tb.nsRemainder = 0
	}
}

func (tb *TokenBucketLimiter) Name() string {
	return "token-bucket"
}
