// Kunhua Huang 2026

package interceptor

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecstasoy/tcpecho/pkg/echo"
	"github.com/ecstasoy/tcpecho/pkg/ratelimiter"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

const (
	StatusEchoed   = "echoed"
	StatusEmpty    = "empty"
	StatusError    = "error"
	StatusRejected = "rejected"
)

var (
	connectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echo_connections_total",
			Help: "Total number of handled connections by outcome",
		},
		[]string{"status"},
	)
	bytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echo_bytes_total",
			Help: "Bytes read from and written back to clients",
		},
		[]string{"direction"},
	)
	exchangeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "echo_exchange_duration_seconds",
			Help:    "Duration of one read and echo in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(connectionsTotal)
	prometheus.MustRegister(bytesTotal)
	prometheus.MustRegister(exchangeDuration)
}

func Metrics() Interceptor {
	return func(ctx context.Context, conn transport.Connection, invoker Invoker) (echo.Result, error) {
		start := time.Now()

		res, err := invoker(ctx, conn)

		exchangeDuration.Observe(time.Since(start).Seconds())
		bytesTotal.WithLabelValues("in").Add(float64(res.Read))
		bytesTotal.WithLabelValues("out").Add(float64(res.Written))
		connectionsTotal.WithLabelValues(status(res, err)).Inc()

		return res, err
	}
}

func status(res echo.Result, err error) string {
	switch {
	case errors.Is(err, ratelimiter.ErrRateLimitExceeded):
		return StatusRejected
	case err != nil:
		return StatusError
	case res.Read == 0:
		return StatusEmpty
	default:
		return StatusEchoed
	}
}
