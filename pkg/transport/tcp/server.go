// Kunhua Huang 2026

package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecstasoy/tcpecho/pkg/echo"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

var ErrServerClosed = errors.New("tcp: server closed")

// Server accepts one connection at a time and runs the handler on it before
// accepting the next.
type Server struct {
	address  string
	opts     *transport.ServerOptions
	handler  transport.Handler
	listener net.Listener
	active   net.Conn
	mu       sync.RWMutex
	serving  bool
	closed   bool
	// atomic counters
	totalConnections int64
	bytesEchoed      int64
}

var _ transport.ServerTransport = (*Server)(nil)

func NewServer(options ...transport.ServerOption) *Server {
	opts := transport.DefaultServerOptions()

	for _, o := range options {
		o(opts)
	}

	return &Server{
		opts: opts,
	}
}

func (s *Server) Listen(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}

	if s.listener != nil {
		return fmt.Errorf("already listening on %s", s.address)
	}

	listener, err := listen(ctx, addr, s.opts.Backlog)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.address = listener.Addr().String()

	return nil
}

// Serve blocks until the listener fails, the context is cancelled or Close
// is called. An accept failure is returned as is; cancellation returns
// ctx.Err() and Close returns nil.
func (s *Server) Serve(ctx context.Context, handler transport.Handler) error {
	s.mu.Lock()

	if s.listener == nil {
		s.mu.Unlock()
		return fmt.Errorf("not listening")
	}

	if s.serving {
		s.mu.Unlock()
		return fmt.Errorf("already serving on %s", s.address)
	}

	if handler == nil {
		handler = transport.EchoHandler
	}

	s.serving = true
	s.handler = handler
	listener := s.listener
	s.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			s.mu.RLock()
			closed := s.closed
			s.mu.RUnlock()
			if closed {
				return nil
			}

			return fmt.Errorf("accept connection failed: %w", err)
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}

		atomic.AddInt64(&s.totalConnections, 1)
		s.handleConnection(ctx, conn)
		s.track(nil)
	}
}

// track records the in-flight connection so Close can interrupt it. It
// reports false once the server is closed.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn != nil && s.closed {
		return false
	}
	s.active = conn
	return true
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer echo.Shutdown(conn)

	if s.opts.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			return
		}
	}
	if s.opts.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			return
		}
	}

	res, _ := s.handler(ctx, conn)
	atomic.AddInt64(&s.bytesEchoed, int64(res.Written))
}

func (s *Server) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	listener := s.listener
	active := s.active
	s.mu.Unlock()

	if active != nil {
		active.Close()
	}

	if listener != nil {
		err := listener.Close()
		if err != nil {
			return fmt.Errorf("close listener failed: %w", err)
		}
	}

	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

func (s *Server) Stats() ServerStats {
	s.mu.RLock()
	busy := s.active != nil
	address := s.address
	s.mu.RUnlock()

	return ServerStats{
		Busy:             busy,
		TotalConnections: atomic.LoadInt64(&s.totalConnections),
		BytesEchoed:      atomic.LoadInt64(&s.bytesEchoed),
		Address:          address,
	}
}

type ServerStats struct {
	Busy             bool
	TotalConnections int64
	BytesEchoed      int64
	Address          string
}
