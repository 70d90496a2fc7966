package transport

import (
	"context"
	"fmt"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/platform"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to 500 responses. The panic value is logged, never sent
// to the caller.
func Recovery() Middleware {
	return func(next platform.Handler) platform.Handler {
		return platform.HandlerFunc(func(ctx context.Context, inv *platform.Invocation, req platform.Request) (resp *platform.Response) {
			defer func() {
				if r := recover(); r != nil {
					resp = fail(ctx, inv, api.NewInternalServerError(fmt.Sprintf("panic: %v", r)))
				}
			}()
			resp = next.Handle(ctx, inv, req)
			if resp == nil {
				resp = fail(ctx, inv, api.NewInternalServerError("handler returned no response"))
			}
			return resp
		})
	}
}
