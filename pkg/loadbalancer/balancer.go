// Kunhua Huang 2026

package loadbalancer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

var (
	ErrNoInstances      = errors.New("no available instances")
	ErrInvalidAlgorithm = errors.New("invalid algorithm")
)

// LoadBalancer picks which echo server a probe connects to.
type LoadBalancer interface {
	Pick(ctx context.Context, instances []*registry.ServiceInstance) (*registry.ServiceInstance, error)
	Name() string
}

func New(name string) (LoadBalancer, error) {
	switch name {
	case "", "round-robin":
		return NewRoundRobin(), nil
	case "random":
		return NewRandom(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAlgorithm, name)
	}
}
