// Kunhua Huang 2026

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecstasoy/tcpecho/pkg/interceptor"
	"github.com/ecstasoy/tcpecho/pkg/registry"
	"github.com/ecstasoy/tcpecho/pkg/transport"
	"github.com/ecstasoy/tcpecho/pkg/transport/tcp"
)

// Server owns the listening socket for the life of the process: Listen
// creates it, Serve runs the echo loop on it, Stop closes it.
type Server struct {
	opts         *serverOptions
	transport    *tcp.Server
	interceptors []interceptor.Interceptor

	mu         sync.Mutex
	instance   *registry.ServiceInstance
	metricsSrv *http.Server
	metricsLn  net.Listener
}

func NewServer(opts ...Option) *Server {
	options := defaultServerOptions()
	for _, o := range opts {
		o(options)
	}

	return &Server{
		opts: options,
		transport: tcp.NewServer(
			transport.WithBacklog(options.backlog),
			transport.WithServerTimeout(options.readTimeout, options.writeTimeout),
		),
	}
}

// Use adds interceptors to the server's interceptor chain.
// usage:
// srv.Use(
//
//		interceptor.Recovery(),
//		interceptor.Logging(nil),
//		interceptor.Metrics(),
//	)
//
// The interceptors will be executed in the order they are added.
func (s *Server) Use(interceptors ...interceptor.Interceptor) {
	s.interceptors = append(s.interceptors, interceptors...)
}

// Start listens and serves until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) Listen(ctx context.Context) error {
	if err := s.transport.Listen(ctx, s.opts.address); err != nil {
		return fmt.Errorf("failed to listen tcp transport: %w", err)
	}
	s.opts.logger.Infof("listening on %s (backlog %d)", s.Addr(), s.opts.backlog)

	if s.opts.metricsAddress != "" {
		if err := s.listenMetrics(ctx); err != nil {
			s.transport.Close()
			return err
		}
	}

	return nil
}

func (s *Server) Serve(ctx context.Context) error {
	if s.opts.registry != nil {
		if err := s.register(ctx); err != nil {
			s.transport.Close()
			s.closeMetrics()
			return err
		}
		defer s.deregister()

		hbCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.heartbeat(hbCtx)
	}

	if s.MetricsAddr() != "" {
		go s.serveMetrics()
		defer s.closeMetrics()
	}

	chain := interceptor.NewChain(s.interceptors...)
	err := s.transport.Serve(ctx, chain.Handler())
	if errors.Is(err, context.Canceled) {
		s.opts.logger.Infof("echo loop stopped: %v", err)
		return nil
	}
	return err
}

func (s *Server) register(ctx context.Context) error {
	instance, err := registry.InstanceFromAddr(s.opts.service, s.transport.Addr())
	if err != nil {
		return err
	}
	if err := s.opts.registry.Register(ctx, instance); err != nil {
		return fmt.Errorf("register %s: %w", instance.Endpoint(), err)
	}

	s.mu.Lock()
	s.instance = instance
	s.mu.Unlock()

	s.opts.logger.Infof("registered %s as %s", instance.Endpoint(), instance.ID)
	return nil
}

func (s *Server) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.opts.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			instance := s.Instance()
			if instance == nil {
				return
			}
			if err := s.opts.registry.Heartbeat(ctx, instance.Service, instance.ID); err != nil {
				s.opts.logger.Errorf("heartbeat for %s failed: %v", instance.ID, err)
			}
		}
	}
}

func (s *Server) deregister() {
	s.mu.Lock()
	instance := s.instance
	s.instance = nil
	s.mu.Unlock()

	if instance == nil {
		return
	}

	// the serve context is usually cancelled by now
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.opts.registry.Deregister(ctx, instance.Service, instance.ID); err != nil {
		s.opts.logger.Errorf("deregister %s failed: %v", instance.ID, err)
	}
}

func (s *Server) listenMetrics(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.metricsAddress)
	if err != nil {
		return fmt.Errorf("failed to listen metrics on %s: %w", s.opts.metricsAddress, err)
	}

	mux := http.NewServeMux()
	mux.Handle(s.opts.metricsPath, promhttp.Handler())

	s.mu.Lock()
	s.metricsLn = ln
	s.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.mu.Unlock()
	return nil
}

func (s *Server) serveMetrics() {
	s.mu.Lock()
	srv, ln := s.metricsSrv, s.metricsLn
	s.mu.Unlock()
	if srv == nil {
		return
	}

	s.opts.logger.Infof("serving metrics on http://%s%s", ln.Addr(), s.opts.metricsPath)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.opts.logger.Errorf("metrics server failed: %v", err)
	}
}

// closeMetrics releases the metrics listener whether or not Serve got to
// serve on it.
func (s *Server) closeMetrics() {
	s.mu.Lock()
	srv, ln := s.metricsSrv, s.metricsLn
	s.metricsSrv, s.metricsLn = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	// Shutdown only closes listeners handed to srv.Serve
	ln.Close()
}

// Stop closes both listeners and interrupts the connection being served.
func (s *Server) Stop() error {
	s.closeMetrics()
	return s.transport.Close()
}

func (s *Server) Addr() string {
	if s.transport.Addr() != nil {
		return s.transport.Addr().String()
	}
	return ""
}

// MetricsAddr is empty unless metrics are enabled, Listen succeeded and the
// server has not stopped.
func (s *Server) MetricsAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metricsLn != nil {
		return s.metricsLn.Addr().String()
	}
	return ""
}

func (s *Server) Instance() *registry.ServiceInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance
}

func (s *Server) Stats() tcp.ServerStats {
	return s.transport.Stats()
}
