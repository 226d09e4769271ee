package client

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"

	"github.com/ecstasoy/tcpecho/pkg/loadbalancer"
	"github.com/ecstasoy/tcpecho/pkg/registry"
	"github.com/ecstasoy/tcpecho/pkg/registry/memory"
	"github.com/ecstasoy/tcpecho/pkg/transport/tcp"
)

func startEcho(t *testing.T) *tcp.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := tcp.NewServer()
	if err := s.Listen(ctx, "127.0.0.1:0"); err != nil {
		cancel()
		t.Fatal(err)
	}
	go s.Serve(ctx, nil)
	t.Cleanup(func() {
		cancel()
		s.Close()
	})
	return s
}

func register(t *testing.T, reg *memory.Registry, s *tcp.Server) {
	t.Helper()
	host, portStr, _ := net.SplitHostPort(s.Addr().String())
	port, _ := strconv.Atoi(portStr)
	reg.Register(context.Background(), registry.NewServiceInstance("echo", host, port))
}

func TestFixedClient(t *testing.T) {
	s := startEcho(t)
	c := NewClient(s.Addr().String())
	defer c.Close()

	got, err := c.Echo(context.Background(), []byte("fixed"))
	if err != nil || string(got) != "fixed" {
		t.Fatalf("got %q %v", got, err)
	}
}

func TestDiscoveryClientSpreadsCalls(t *testing.T) {
	reg := memory.NewRegistry()
	a, b := startEcho(t), startEcho(t)
	register(t, reg, a)
	register(t, reg, b)

	c, err := NewDiscoveryClient("echo", WithDiscovery(reg), WithLoadBalancer(loadbalancer.NewRoundRobin()))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		got, err := c.Echo(context.Background(), []byte("via registry"))
		if err != nil || string(got) != "via registry" {
			t.Fatalf("call %d: %q %v", i, got, err)
		}
	}

	if a.Stats().TotalConnections != 2 || b.Stats().TotalConnections != 2 {
		t.Fatalf("uneven spread: %d / %d", a.Stats().TotalConnections, b.Stats().TotalConnections)
	}
}

func TestDiscoveryClientNoInstances(t *testing.T) {
	c, err := NewDiscoveryClient("echo", WithDiscovery(memory.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Echo(context.Background(), []byte("x")); !errors.Is(err, loadbalancer.ErrNoInstances) {
		t.Fatalf("expected ErrNoInstances, got %v", err)
	}
}

func TestDiscoveryClientRequiresDiscovery(t *testing.T) {
	if _, err := NewDiscoveryClient("echo"); err == nil {
		t.Fatal("expected error without discovery")
	}
}
