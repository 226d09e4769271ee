// Kunhua Huang 2026

package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

// EtcdRegistry attaches every registered instance to one lease, so a server
// that dies without deregistering disappears after LeaseTTL seconds.
type EtcdRegistry struct {
	*EtcdClient
	leaseID clientv3.LeaseID

	keepAliveCh <-chan *clientv3.LeaseKeepAliveResponse
	stopCh      chan struct{}

	closeOnce sync.Once
	closeErr  error
}

var _ registry.Registry = (*EtcdRegistry)(nil)

func NewEtcdRegistry(config *Config) (*EtcdRegistry, error) {
	client, err := NewEtcdClient(config)
	if err != nil {
		return nil, err
	}

	er := &EtcdRegistry{
		EtcdClient: client,
		stopCh:     make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), client.config.DialTimeout)
	defer cancel()
	if err := er.createLease(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("create lease: %w", err)
	}

	return er, nil
}

func (er *EtcdRegistry) createLease(ctx context.Context) error {
	grant, err := er.client.Grant(ctx, er.config.LeaseTTL)
	if err != nil {
		return fmt.Errorf("grant lease: %w", err)
	}

	er.leaseID = grant.ID

	keepAliveCh, err := er.client.KeepAlive(context.Background(), er.leaseID)
	if err != nil {
		return fmt.Errorf("keep alive lease: %w", err)
	}

	er.keepAliveCh = keepAliveCh

	go er.drainKeepAlive()

	return nil
}

// drainKeepAlive consumes lease responses; clientv3 warns when the channel
// fills up.
func (er *EtcdRegistry) drainKeepAlive() {
	for {
		select {
		case <-er.stopCh:
			return
		case resp, ok := <-er.keepAliveCh:
			if !ok || resp == nil {
				return
			}
		}
	}
}

func (er *EtcdRegistry) Register(ctx context.Context, instance *registry.ServiceInstance) error {
	key := serviceKey(er.config.KeyPrefix, instance.Service, instance.ID)

	value, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}

	_, err = er.client.Put(ctx, key, string(value), clientv3.WithLease(er.leaseID))
	if err != nil {
		return fmt.Errorf("put to etcd: %w", err)
	}

	return nil
}

func (er *EtcdRegistry) Deregister(ctx context.Context, service, instanceID string) error {
	key := serviceKey(er.config.KeyPrefix, service, instanceID)

	resp, err := er.client.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("delete instance %s from etcd: %w", instanceID, err)
	}
	if resp.Deleted == 0 {
		return registry.ErrNotFound
	}

	return nil
}

func (er *EtcdRegistry) Heartbeat(ctx context.Context, service, instanceID string) error {
	_, err := er.client.KeepAliveOnce(ctx, er.leaseID)
	if err != nil {
		return fmt.Errorf("keepalive once: %w", err)
	}
	return nil
}

// Close revokes the lease, which drops every key registered through er.
// Later calls return the first call's result.
func (er *EtcdRegistry) Close() error {
	er.closeOnce.Do(func() {
		close(er.stopCh)

		if er.leaseID != 0 {
			ctx, cancel := context.WithTimeout(context.Background(), er.config.DialTimeout)
			er.client.Revoke(ctx, er.leaseID)
			cancel()
		}

		er.closeErr = er.EtcdClient.Close()
	})
	return er.closeErr
}
