// Kunhua Huang 2026

package etcd

import (
	"encoding/json"

	"github.com/golang/glog"
	"go.etcd.io/etcd/api/v3/mvccpb"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

// decodeInstances skips entries that do not parse or are not up.
func decodeInstances(kvs []*mvccpb.KeyValue) []*registry.ServiceInstance {
	var instances []*registry.ServiceInstance
	for _, kv := range kvs {
		var instance registry.ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			glog.Warningf("skipping service instance %s: %v", kv.Key, err)
			continue
		}
		if instance.Status == registry.StatusUp {
			instances = append(instances, &instance)
		}
	}
	return instances
}
