// Kunhua Huang 2025

package transport

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/ecstasoy/tcpecho/pkg/echo"
)

// ClientTransport Thank God Golang has context to manage timeouts and cancellations
type ClientTransport interface {
	Dial(ctx context.Context, addr string) error
	Echo(ctx context.Context, data []byte) ([]byte, error)
	Close() error
	IsConnected() bool
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

type ServerTransport interface {
	Listen(ctx context.Context, addr string) error
	Serve(ctx context.Context, handler Handler) error
	Close() error
	Addr() net.Addr
}

// Handler runs one exchange on an accepted connection. The transport owns the
// connection and closes it after the handler returns.
type Handler func(ctx context.Context, conn Connection) (echo.Result, error)

// Connection embeds io.ReadWriter and io.Closer to use std interfaces for network connections
type Connection interface {
	io.ReadWriter
	io.Closer

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// EchoHandler is the plain exchange with no interceptors.
func EchoHandler(ctx context.Context, conn Connection) (echo.Result, error) {
	res := echo.Exchange(conn)
	return res, res.Err()
}
