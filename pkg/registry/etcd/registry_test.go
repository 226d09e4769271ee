// Kunhua Huang 2026

package etcd

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
	"time"

	"go.etcd.io/etcd/server/v3/embed"

	"github.com/ecstasoy/tcpecho/pkg/registry"
)

func freeURL(t *testing.T) url.URL {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return url.URL{Scheme: "http", Host: l.Addr().String()}
}

// startEtcd runs a single-member etcd in a temp dir and returns its client
// endpoint.
func startEtcd(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("starts an embedded etcd")
	}

	cfg := embed.NewConfig()
	cfg.Dir = t.TempDir()
	cfg.LogLevel = "error"

	clientURL, peerURL := freeURL(t), freeURL(t)
	cfg.ListenClientUrls = []url.URL{clientURL}
	cfg.AdvertiseClientUrls = []url.URL{clientURL}
	cfg.ListenPeerUrls = []url.URL{peerURL}
	cfg.AdvertisePeerUrls = []url.URL{peerURL}
	cfg.InitialCluster = cfg.InitialClusterFromName(cfg.Name)

	e, err := embed.StartEtcd(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(10 * time.Second):
		t.Fatal("embedded etcd not ready")
	}

	return clientURL.String()
}

func testConfig(endpoint string) *Config {
	return &Config{
		Endpoints:   []string{endpoint},
		DialTimeout: 5 * time.Second,
		KeyPrefix:   "/tcpecho-test/services",
		LeaseTTL:    5,
	}
}

func TestRegistryLifecycle(t *testing.T) {
	endpoint := startEtcd(t)
	ctx := context.Background()

	reg, err := NewEtcdRegistry(testConfig(endpoint))
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	disc, err := NewEtcdDiscovery(testConfig(endpoint))
	if err != nil {
		t.Fatal(err)
	}
	defer disc.Close()

	inst := registry.NewServiceInstance("tcpecho", "10.0.0.7", 41415)
	if err := reg.Register(ctx, inst); err != nil {
		t.Fatal(err)
	}

	got, err := disc.GetInstances(ctx, "tcpecho")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != inst.ID || got[0].Endpoint() != "10.0.0.7:41415" {
		t.Fatalf("discovered %v", got)
	}

	if got, _ := disc.GetInstances(ctx, "other"); len(got) != 0 {
		t.Fatalf("other service sees %v", got)
	}

	if err := reg.Heartbeat(ctx, inst.Service, inst.ID); err != nil {
		t.Fatal(err)
	}

	if err := reg.Deregister(ctx, inst.Service, inst.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := disc.GetInstances(ctx, "tcpecho"); len(got) != 0 {
		t.Fatalf("still discovered after deregister: %v", got)
	}
	if err := reg.Deregister(ctx, inst.Service, inst.ID); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCloseRevokesLease(t *testing.T) {
	endpoint := startEtcd(t)
	ctx := context.Background()

	reg, err := NewEtcdRegistry(testConfig(endpoint))
	if err != nil {
		t.Fatal(err)
	}
	disc, err := NewEtcdDiscovery(testConfig(endpoint))
	if err != nil {
		t.Fatal(err)
	}
	defer disc.Close()

	for _, port := range []int{41415, 41416} {
		if err := reg.Register(ctx, registry.NewServiceInstance("tcpecho", "10.0.0.7", port)); err != nil {
			t.Fatal(err)
		}
	}
	if got, _ := disc.GetInstances(ctx, "tcpecho"); len(got) != 2 {
		t.Fatalf("expected two instances, got %v", got)
	}

	if err := reg.Close(); err != nil {
		t.Fatal(err)
	}
	if got, _ := disc.GetInstances(ctx, "tcpecho"); len(got) != 0 {
		t.Fatalf("keys survived lease revoke: %v", got)
	}

	// a second Close must not panic on the stop channel
	if err := reg.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
