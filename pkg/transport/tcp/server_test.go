// Kunhua Huang 2026

package tcp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecstasoy/tcpecho/pkg/echo"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

func startServer(t *testing.T, handler transport.Handler, opts ...transport.ServerOption) (*Server, string, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := NewServer(opts...)
	if err := s.Listen(ctx, "127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, handler)
	}()
	t.Cleanup(func() { s.Close() })

	return s, s.Addr().String(), errCh
}

func roundTrip(addr string, payload []byte) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if len(payload) > 0 {
		if _, err := conn.Write(payload); err != nil {
			return nil, err
		}
	}
	conn.(*net.TCPConn).CloseWrite()
	return io.ReadAll(conn)
}

func TestEchoSmall(t *testing.T) {
	_, addr, _ := startServer(t, nil)

	for _, payload := range [][]byte{
		[]byte("a"),
		[]byte("hello, world\n"),
		{0, 1, 2, 255, 0},
		bytes.Repeat([]byte{'z'}, echo.BufferSize),
	} {
		got, err := roundTrip(addr, payload)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("sent %d bytes, got %d back", len(payload), len(got))
		}
	}
}

func TestEchoEmpty(t *testing.T) {
	_, addr, _ := startServer(t, nil)

	got, err := roundTrip(addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no bytes, got %q", got)
	}
}

func TestEchoOversized(t *testing.T) {
	_, addr, _ := startServer(t, nil)

	payload := make([]byte, 3*echo.BufferSize)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	// The unread remainder may make the kernel reset the connection, so a
	// clean read must carry exactly one buffer and a reset at most that.
	got, err := roundTrip(addr, payload)
	if err == nil && len(got) != echo.BufferSize {
		t.Fatalf("echoed %d bytes, want %d", len(got), echo.BufferSize)
	}
	if len(got) > echo.BufferSize {
		t.Fatalf("echoed %d bytes, more than one buffer", len(got))
	}
	if !bytes.Equal(got, payload[:len(got)]) {
		t.Fatal("echo is not a prefix of the payload")
	}
}

func TestServerClosesAfterOneExchange(t *testing.T) {
	_, addr, _ := startServer(t, nil)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	// no half-close: the server has to hang up on its own
	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(conn)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ping" {
		t.Fatalf("got %q", got)
	}
}

func TestSequentialConnections(t *testing.T) {
	s, addr, _ := startServer(t, nil)

	for i := 0; i < 20; i++ {
		payload := []byte{byte(i), 'x'}
		got, err := roundTrip(addr, payload)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("round %d: got %v", i, got)
		}
	}

	stats := s.Stats()
	if stats.TotalConnections != 20 {
		t.Fatalf("total connections %d", stats.TotalConnections)
	}
	if stats.BytesEchoed != 40 {
		t.Fatalf("bytes echoed %d", stats.BytesEchoed)
	}
}

func TestOneConnectionAtATime(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	handler := func(ctx context.Context, conn transport.Connection) (echo.Result, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&peak) {
			atomic.StoreInt32(&peak, n)
		}
		<-release
		defer atomic.AddInt32(&inFlight, -1)
		return transport.EchoHandler(ctx, conn)
	}
	_, addr, _ := startServer(t, handler)

	results := make(chan []byte, 3)
	for i := 0; i < 3; i++ {
		go func(b byte) {
			got, _ := roundTrip(addr, []byte{b})
			results <- got
		}(byte('a' + i))
	}

	for i := 0; i < 3; i++ {
		release <- struct{}{}
	}
	for i := 0; i < 3; i++ {
		if got := <-results; len(got) != 1 {
			t.Fatalf("got %q", got)
		}
	}
	if atomic.LoadInt32(&peak) != 1 {
		t.Fatalf("handled %d connections at once", peak)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer()
	if err := s.Listen(ctx, "127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	addr := s.Addr().String()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, nil) }()

	// park a connection in the exchange so cancel has to interrupt it
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if _, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		t.Fatal("listener still accepting after cancel")
	}
}

func TestServeReturnsNilOnClose(t *testing.T) {
	s, _, errCh := startServer(t, nil)
	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestListenTwice(t *testing.T) {
	s := NewServer()
	defer s.Close()
	if err := s.Listen(context.Background(), "127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	if err := s.Listen(context.Background(), "127.0.0.1:0"); err == nil {
		t.Fatal("second Listen should fail")
	}
}

func TestListenAddressInUse(t *testing.T) {
	s, addr, _ := startServer(t, nil)
	_ = s

	other := NewServer()
	defer other.Close()
	if err := other.Listen(context.Background(), addr); err == nil {
		t.Fatal("bind on a busy port should fail")
	}
}

func TestServeWithoutListen(t *testing.T) {
	if err := NewServer().Serve(context.Background(), nil); err == nil {
		t.Fatal("Serve before Listen should fail")
	}
}

func TestClientEcho(t *testing.T) {
	_, addr, _ := startServer(t, nil)

	c := NewClient(addr, transport.WithReadTimeout(2*time.Second))
	for _, msg := range []string{"first", "second"} {
		got, err := c.Echo(context.Background(), []byte(msg))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != msg {
			t.Fatalf("got %q want %q", got, msg)
		}
		if c.IsConnected() {
			t.Fatal("client should drop the connection after an exchange")
		}
	}
}

func TestClientDialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	c := NewClient(addr, transport.WithDialTimeout(time.Second), transport.WithRetry(1, 10*time.Millisecond))
	if _, err := c.EchoWithRetry(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestStatsWhileListening(t *testing.T) {
	s := NewServer()
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.Stats()
		}
	}()

	if err := s.Listen(context.Background(), "127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	<-done

	if got := s.Stats().Address; got != s.Addr().String() {
		t.Fatalf("stats address %q, listening on %s", got, s.Addr())
	}
}
