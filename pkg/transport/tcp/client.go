//Kunhua Huang 2026

package tcp

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ecstasoy/tcpecho/pkg/transport"
)

// Client talks to an echo server. The server closes after one exchange, so
// every Echo consumes the current connection and the next one redials.
type Client struct {
	address   string
	opts      *transport.ClientOptions
	conn      net.Conn
	connected bool
	mu        sync.RWMutex // protects connected and conn
	sendMu    sync.Mutex   // protects send operations
}

var _ transport.ClientTransport = (*Client)(nil)

func NewClient(address string, options ...transport.ClientOption) *Client {
	opts := transport.DefaultClientOptions()

	for _, o := range options {
		o(opts)
	}

	return &Client{
		address: address,
		opts:    opts,
	}
}

func (c *Client) Dial(ctx context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return fmt.Errorf("already connected to: %s", c.conn.RemoteAddr().String())
	}

	addr := address
	if addr == "" {
		addr = c.address
	}

	dialer := &net.Dialer{
		Timeout:   c.opts.DialTimeout,
		KeepAlive: c.opts.KeepAlivePeriod,
	}
	if !c.opts.KeepAlive {
		dialer.KeepAlive = -1
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial tcp %s failed: %w", addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return fmt.Errorf("set no delay failed: %w", err)
		}
	}

	c.conn = conn
	c.connected = true
	c.address = addr

	return nil
}

// Echo writes data, half-closes and reads until the server hangs up. Whatever
// was read is returned even when err is non-nil; a server that drops bytes
// past its buffer may reset the connection.
func (c *Client) Echo(ctx context.Context, data []byte) ([]byte, error) {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()

	if !connected {
		if err := c.Dial(ctx, ""); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set deadline failed: %w", err)
		}
	} else {
		if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return nil, fmt.Errorf("set write deadline failed: %w", err)
		}
		if err := conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
			return nil, fmt.Errorf("set read deadline failed: %w", err)
		}
	}

	writeErr := writeFull(conn, data)
	if tcpConn, ok := conn.(*net.TCPConn); ok && writeErr == nil {
		_ = tcpConn.CloseWrite()
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return resp, fmt.Errorf("read echo failed: %w", err)
	}
	if writeErr != nil {
		return resp, fmt.Errorf("write to connection failed: %w", writeErr)
	}

	return resp, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("close connection failed: %w", err)
		}
		c.conn = nil
	}

	c.connected = false

	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) LocalAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn != nil {
		return c.conn.LocalAddr()
	}

	return nil
}

func (c *Client) RemoteAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn != nil {
		return c.conn.RemoteAddr()
	}

	return nil
}

func (c *Client) EchoWithRetry(ctx context.Context, data []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := c.Echo(ctx, data)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if attempt == c.opts.MaxRetries {
			break
		}

		select {
		case <-time.After(c.opts.RetryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("echo failed after %d retries: %w", c.opts.MaxRetries, lastErr)
}

func writeFull(w net.Conn, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
