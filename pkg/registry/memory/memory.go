// Kunhua Huang 2026
// In-memory implementation of service registry and discovery
// Used for testing and development purposes

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

type Registry struct {
	instances map[string]*registry.ServiceInstance
	mu        sync.RWMutex
}

var _ registry.RegistryDiscovery = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]*registry.ServiceInstance),
	}
}

func (r *Registry) Register(ctx context.Context, instance *registry.ServiceInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.instances[instance.ID] = instance.Clone()
	return nil
}

func (r *Registry) Deregister(ctx context.Context, service, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, exists := r.instances[instanceID]
	if !exists || instance.Service != service {
		return registry.ErrNotFound
	}

	delete(r.instances, instanceID)
	return nil
}

func (r *Registry) Heartbeat(ctx context.Context, service, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, exists := r.instances[instanceID]
	if !exists || instance.Service != service {
		return registry.ErrNotFound
	}

	instance.UpdateTime = time.Now()
	return nil
}

// GetInstances returns copies of live instances ordered by registration
// time, then ID.
func (r *Registry) GetInstances(ctx context.Context, service string) ([]*registry.ServiceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*registry.ServiceInstance
	for _, instance := range r.instances {
		if instance.Service == service && instance.Status == registry.StatusUp {
			result = append(result, instance.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RegisterTime.Equal(result[j].RegisterTime) {
			return result[i].RegisterTime.Before(result[j].RegisterTime)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *Registry) GetInstanceByID(ctx context.Context, instanceID string) (*registry.ServiceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.instances[instanceID]
	if !exists {
		return nil, registry.ErrNotFound
	}

	return instance.Clone(), nil
}

func (r *Registry) Close() error {
	return nil
}
