// Kunhua Huang 2026

package interceptor

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/ecstasoy/tcpecho/pkg/echo"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type defaultLogger struct{}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	glog.Infof(format, args...)
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	glog.Errorf(format, args...)
}

// DefaultLogger logs through glog.
func DefaultLogger() Logger {
	return &defaultLogger{}
}

func Logging(logger Logger) Interceptor {
	if logger == nil {
		logger = &defaultLogger{}
	}

	return func(ctx context.Context, conn transport.Connection, invoker Invoker) (echo.Result, error) {
		start := time.Now()
		peer := conn.RemoteAddr()

		logger.Infof("→ exchange with [%v]", peer)

		res, err := invoker(ctx, conn)

		duration := time.Since(start)

		if err != nil {
			logger.Errorf("✗ exchange with [%v] failed in %v: %v", peer, duration, err)
		} else {
			logger.Infof("✓ exchange with [%v]: %d bytes echoed in %v", peer, res.Written, duration)
		}

		return res, err
	}
}
