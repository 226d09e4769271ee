// Kunhua Huang 2026

package main

import (
	"fmt"

	"github.com/ecstasoy/tcpecho/pkg/config"
	"github.com/ecstasoy/tcpecho/pkg/interceptor"
	"github.com/ecstasoy/tcpecho/pkg/ratelimiter"
	"github.com/ecstasoy/tcpecho/pkg/registry"
	"github.com/ecstasoy/tcpecho/pkg/registry/etcd"
	"github.com/ecstasoy/tcpecho/pkg/registry/memory"
	"github.com/ecstasoy/tcpecho/pkg/server"
)

// newServer wires a server from cfg. cleanup releases the registry client and
// is safe to call more than once.
func newServer(cfg *config.Config) (*server.Server, func(), error) {
	opts := []server.Option{
		server.WithAddress(cfg.Server.Address),
		server.WithBacklog(cfg.Server.Backlog),
		server.WithTimeout(cfg.Server.ReadTimeout.Duration, cfg.Server.WriteTimeout.Duration),
	}

	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(cfg.Metrics.Address, cfg.Metrics.Path))
	}

	reg, err := newRegistry(cfg.Registry)
	if err != nil {
		return nil, nil, err
	}
	closed := false
	cleanup := func() {
		if reg != nil && !closed {
			closed = true
			reg.Close()
		}
	}
	if reg != nil {
		opts = append(opts, server.WithRegistry(reg, cfg.Registry.Service, cfg.Registry.HeartbeatInterval.Duration))
	}

	srv := server.NewServer(opts...)

	if cfg.Server.Interceptors.Recovery {
		srv.Use(interceptor.Recovery())
	}
	if cfg.Server.Interceptors.Logging {
		srv.Use(interceptor.Logging(nil))
	}
	if cfg.Metrics.Enabled {
		srv.Use(interceptor.Metrics())
	}
	if cfg.RateLimit.Enabled {
		limiter, err := ratelimiter.New(cfg.RateLimit.Type, cfg.RateLimit.Rate, cfg.RateLimit.Burst, cfg.RateLimit.Window.Duration)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}
		srv.Use(interceptor.RateLimit(limiter))
	}

	return srv, cleanup, nil
}

func newRegistry(cfg config.RegistryConfig) (registry.Registry, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.NewRegistry(), nil
	case "etcd":
		reg, err := etcd.NewEtcdRegistry(&etcd.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: cfg.Etcd.DialTimeout.Duration,
			KeyPrefix:   cfg.Etcd.KeyPrefix,
			LeaseTTL:    cfg.Etcd.LeaseTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("etcd registry: %w", err)
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unknown registry type %q", cfg.Type)
	}
}
