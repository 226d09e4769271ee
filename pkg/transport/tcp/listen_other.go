// Kunhua Huang 2026

//go:build !linux

package tcp

import (
	"context"
	"net"
)

// listen falls back to the OS default backlog.
func listen(ctx context.Context, addr string, _ int) (net.Listener, error) {
	lc := net.ListenConfig{}
	return lc.Listen(ctx, "tcp", addr)
}
