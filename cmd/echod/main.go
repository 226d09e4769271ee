// Kunhua Huang 2026

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/ecstasoy/tcpecho/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (built-in defaults when empty)")
	addr := flag.String("addr", "", "Listen address, overrides server.address")
	metricsAddr := flag.String("metrics", "", "Serve prometheus metrics on this address")
	// glog writes to files under /tmp unless told otherwise
	flag.Set("logtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			glog.Fatalf("Failed to load config: %v", err)
		}
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = *metricsAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := newServer(cfg)
	if err != nil {
		glog.Fatalf("Failed to set up server: %v", err)
	}
	defer cleanup()

	if err := srv.Start(ctx); err != nil {
		glog.Errorf("Echo server exited: %v", err)
		cleanup()
		glog.Flush()
		os.Exit(1)
	}
}
