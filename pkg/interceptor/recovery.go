// Kunhua Huang 2026

package interceptor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ecstasoy/tcpecho/pkg/echo"
	"github.com/ecstasoy/tcpecho/pkg/transport"
)

// Recovery keeps a panicking exchange from taking the accept loop down.
func Recovery() Interceptor {
	return func(ctx context.Context, conn transport.Connection, invoker Invoker) (res echo.Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered: %v\nstack:\n%s", r, debug.Stack())
			}
		}()

		return invoker(ctx, conn)
	}
}
