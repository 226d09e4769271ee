// Kunhua Huang 2026

package server

import (
	"time"

	"github.com/ecstasoy/tcpecho/pkg/interceptor"
	"github.com/ecstasoy/tcpecho/pkg/registry"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

type serverOptions struct {
	address      string
	backlog      int
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       interceptor.Logger

	registry          registry.Registry
	service           string
	heartbeatInterval time.Duration

	metricsAddress string
	metricsPath    string
}

func defaultServerOptions() *serverOptions {
	return &serverOptions{
		address:           "0.0.0.0:41415",
		backlog:           transport.DefaultBacklog,
		logger:            interceptor.DefaultLogger(),
		service:           registry.DefaultService,
		heartbeatInterval: 5 * time.Second,
		metricsPath:       "/metrics",
	}
}

type Option func(*serverOptions)

func WithAddress(addr string) Option {
	return func(o *serverOptions) {
		o.address = addr
	}
}

func WithBacklog(backlog int) Option {
	return func(o *serverOptions) {
		o.backlog = backlog
	}
}

// WithTimeout sets per-connection deadlines. Zero keeps the exchange
// blocking.
func WithTimeout(read, write time.Duration) Option {
	return func(o *serverOptions) {
		o.readTimeout = read
		o.writeTimeout = write
	}
}

func WithLogger(logger interceptor.Logger) Option {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry announces the bound address under service while serving.
func WithRegistry(r registry.Registry, service string, heartbeat time.Duration) Option {
	return func(o *serverOptions) {
		o.registry = r
		if service != "" {
			o.service = service
		}
		if heartbeat > 0 {
			o.heartbeatInterval = heartbeat
		}
	}
}

// WithMetrics exposes prometheus metrics over HTTP on addr.
func WithMetrics(addr, path string) Option {
	return func(o *serverOptions) {
		o.metricsAddress = addr
		if path != "" {
			o.metricsPath = path
		}
	}
}
