// Kunhua Huang 2026

package etcd

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

type EtcdDiscovery struct {
	*EtcdClient
}

var _ registry.Discovery = (*EtcdDiscovery)(nil)

func NewEtcdDiscovery(config *Config) (*EtcdDiscovery, error) {
	client, err := NewEtcdClient(config)
	if err != nil {
		return nil, err
	}

	return &EtcdDiscovery{
		EtcdClient: client,
	}, nil
}

func (ed *EtcdDiscovery) GetInstances(ctx context.Context, service string) ([]*registry.ServiceInstance, error) {
	prefix := servicePrefix(ed.config.KeyPrefix, service)

	resp, err := ed.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByCreateRevision, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("get instances: %w", err)
	}

	return decodeInstances(resp.Kvs), nil
}
