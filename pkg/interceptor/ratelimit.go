//Kunhua Huang 2026

package interceptor

import (
	"context"

	"github.com/ecstasoy/tcpecho/pkg/echo"
	"github.com/ecstasoy/tcpecho/pkg/ratelimiter"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

// RateLimit skips the exchange when the limiter says no. The transport still
// closes the connection.
func RateLimit(limiter ratelimiter.RateLimiter) Interceptor {
	return func(ctx context.Context, conn transport.Connection, invoker Invoker) (echo.Result, error) {
		if !limiter.Allow(ctx) {
			return echo.Result{}, ratelimiter.ErrRateLimitExceeded
		}

		return invoker(ctx, conn)
	}
}
