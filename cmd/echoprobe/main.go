// Kunhua Huang 2026

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecstasoy/tcpecho/pkg/client"
	"github.com/ecstasoy/tcpecho/pkg/loadbalancer"
	"github.com/ecstasoy/tcpecho/pkg/registry"
	"github.com/ecstasoy/tcpecho/pkg/registry/etcd"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:41415", "Echo server address")
	service := flag.String("service", "", "Resolve the server from etcd under this service name instead of -addr")
	endpoints := flag.String("etcd", "localhost:2379", "Comma separated etcd endpoints for -service")
	prefix := flag.String("prefix", etcd.DefaultConfig().KeyPrefix, "etcd key prefix for -service")
	balancer := flag.String("lb", "round-robin", "Instance selection: round-robin or random")
	data := flag.String("data", "", "Payload to send (stdin when empty)")
	timeout := flag.Duration("timeout", 5*time.Second, "Dial and exchange timeout")
	flag.Set("logtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	payload := []byte(*data)
	if *data == "" {
		var err error
		payload, err = io.ReadAll(os.Stdin)
		if err != nil {
			glog.Fatalf("Failed to read stdin: %v", err)
		}
	}

	var c *client.Client
	if *service == "" {
		c = client.NewClient(*addr, client.WithTimeout(*timeout, *timeout))
	} else {
		lb, err := loadbalancer.New(*balancer)
		if err != nil {
			glog.Fatalf("Invalid -lb: %v", err)
		}
		cfg := etcd.DefaultConfig()
		cfg.Endpoints = strings.Split(*endpoints, ",")
		cfg.DialTimeout = *timeout
		cfg.KeyPrefix = *prefix
		d, err := etcd.NewEtcdDiscovery(cfg)
		if err != nil {
			glog.Fatalf("Failed to connect to etcd: %v", err)
		}
		var discovery registry.Discovery = d
		c, err = client.NewDiscoveryClient(*service,
			client.WithDiscovery(discovery),
			client.WithLoadBalancer(lb),
			client.WithTimeout(*timeout, *timeout),
		)
		if err != nil {
			glog.Fatalf("Failed to create client: %v", err)
		}
	}
	defer c.Close()

	resp, err := c.Echo(context.Background(), payload)
	if err != nil {
		glog.Errorf("Echo failed: %v", err)
	}
	os.Stdout.Write(resp)
	if err != nil {
		glog.Flush()
		os.Exit(1)
	}
}
