// Kunhua Huang 2026

package interceptor

import (
	"context"

	"github.com/ecstasoy/tcpecho/pkg/echo"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

type Invoker func(ctx context.Context, conn transport.Connection) (echo.Result, error)

type Interceptor func(ctx context.Context, conn transport.Connection, invoker Invoker) (echo.Result, error)

type Chain struct {
	interceptors []Interceptor
}

func NewChain(interceptor ...Interceptor) *Chain {
	return &Chain{interceptors: interceptor}
}

func (ic *Chain) Intercept(ctx context.Context, conn transport.Connection, invoker Invoker) (echo.Result, error) {
	if len(ic.interceptors) == 0 {
		return invoker(ctx, conn)
	}

	return ic.buildChain(invoker)(ctx, conn)
}

// Handler wraps the plain exchange so the transport can run it.
func (ic *Chain) Handler() transport.Handler {
	invoker := ic.buildChain(Invoker(transport.EchoHandler))
	return transport.Handler(invoker)
}

func (ic *Chain) buildChain(invoker Invoker) Invoker {
	for i := len(ic.interceptors) - 1; i >= 0; i-- {
		next := invoker
		interceptor := ic.interceptors[i]

		invoker = func(ctx context.Context, conn transport.Connection) (echo.Result, error) {
			return interceptor(ctx, conn, next)
		}
	}

	return invoker
}
