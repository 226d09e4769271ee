// Kunhua Huang 2026

package loadbalancer

import (
	"context"
	"sync/atomic"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

type RoundRobinBalancer struct {
	next uint64
}

func NewRoundRobin() LoadBalancer {
	return &RoundRobinBalancer{}
}

func (rb *RoundRobinBalancer) Pick(ctx context.Context, instances []*registry.ServiceInstance) (*registry.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	idx := (atomic.AddUint64(&rb.next, 1) - 1) % uint64(len(instances))
	return instances[idx], nil
}

func (rb *RoundRobinBalancer) Name() string {
	return "round-robin"
}
