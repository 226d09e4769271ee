// Kunhua Huang 2026

package loadbalancer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

type Random struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandom() LoadBalancer {
	return &Random{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Random) Pick(ctx context.Context, instances []*registry.ServiceInstance) (*registry.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	r.mu.Lock()
	idx := r.rnd.Intn(len(instances))
	r.mu.Unlock()
	return instances[idx], nil
}

func (r *Random) Name() string {
	return "random"
}
