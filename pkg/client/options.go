package client

import (
	"time"

	"github.com/ecstasoy/tcpecho/pkg/loadbalancer"
	"github.com/ecstasoy/tcpecho/pkg/registry"
)

type clientOptions struct {
	dialTimeout time.Duration
	callTimeout time.Duration
	maxRetries  int

	discovery    registry.Discovery
	loadBalancer loadbalancer.LoadBalancer
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		dialTimeout: 5 * time.Second,
		callTimeout: 5 * time.Second,

		loadBalancer: loadbalancer.NewRoundRobin(),
	}
}

type Option func(*clientOptions)

func WithTimeout(dial, call time.Duration) Option {
	return func(o *clientOptions) {
		o.dialTimeout = dial
		o.callTimeout = call
	}
}

func WithRetries(n int) Option {
	return func(o *clientOptions) {
		o.maxRetries = n
	}
}

func WithDiscovery(discovery registry.Discovery) Option {
	return func(o *clientOptions) {
		o.discovery = discovery
	}
}

func WithLoadBalancer(lb loadbalancer.LoadBalancer) Option {
	return func(o *clientOptions) {
		o.loadBalancer = lb
	}
}
