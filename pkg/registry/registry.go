// Kunhua Huang 2026

package registry

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("service not found")
	ErrNotConnected = errors.New("not connected to registry")
)

// DefaultService is the name echo servers announce themselves under.
const DefaultService = "tcpecho"

type Registry interface {
	Register(ctx context.Context, instance *ServiceInstance) error
	Deregister(ctx context.Context, service, instanceID string) error
	Heartbeat(ctx context.Context, service, instanceID string) error
	Close() error
}

type Discovery interface {
	GetInstances(ctx context.Context, service string) ([]*ServiceInstance, error)
	Close() error
}

type RegistryDiscovery interface {
	Registry
	Discovery
}
