// Kunhua Huang 2026

package registry

import (
	"fmt"
	"maps"
	"net"
	"os"
	"strconv"
	"time"
)

type ServiceInstance struct {
	ID       string            `json:"id"`
	Service  string            `json:"service"`
	Address  string            `json:"address"`
	Port     int               `json:"port"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Status   InstanceStatus    `json:"status"`

	RegisterTime time.Time `json:"register_time"`
	UpdateTime   time.Time `json:"update_time"`
}

type InstanceStatus int

const (
	StatusUnknown InstanceStatus = iota
	StatusUp
	StatusDown
)

func (s InstanceStatus) String() string {
	switch s {
	case StatusUp:
		return "UP"
	case StatusDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

func NewServiceInstance(service, address string, port int) *ServiceInstance {
	now := time.Now()
	return &ServiceInstance{
		ID:           fmt.Sprintf("%s-%s:%d-%d", service, address, port, now.Unix()),
		Service:      service,
		Address:      address,
		Port:         port,
		Metadata:     make(map[string]string),
		Status:       StatusUp,
		RegisterTime: now,
		UpdateTime:   now,
	}
}

// InstanceFromAddr describes a bound listener. An unspecified host is
// replaced by the machine's hostname so peers can reach it.
func InstanceFromAddr(service string, addr net.Addr) (*ServiceInstance, error) {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, fmt.Errorf("split listener address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse port %q: %w", portStr, err)
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		if name, err := os.Hostname(); err == nil {
			host = name
		}
	}

	return NewServiceInstance(service, host, port), nil
}

func (si *ServiceInstance) Endpoint() string {
	return net.JoinHostPort(si.Address, strconv.Itoa(si.Port))
}

// Clone returns a copy that shares no mutable state with si.
func (si *ServiceInstance) Clone() *ServiceInstance {
	c := *si
	c.Metadata = maps.Clone(si.Metadata)
	return &c
}
