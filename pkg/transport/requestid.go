package transport

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rhuss/gqlfunc/pkg/platform"
)

// RequestID returns middleware that makes sure every invocation has an ID.
// An ID assigned by the host is kept; otherwise a random UUID is used. The
// ID is stored in the context (RequestIDFromContext) and attached to the
// invocation logger.
func RequestID() Middleware {
	return func(next platform.Handler) platform.Handler {
		return platform.HandlerFunc(func(ctx context.Context, inv *platform.Invocation, req platform.Request) *platform.Response {
			var scoped platform.Invocation
			if inv != nil {
				scoped = *inv
			}
			if scoped.ID == "" {
				scoped.ID = RequestIDFromContext(ctx)
			}
			if scoped.ID == "" {
				scoped.ID = uuid.NewString()
			}
			scoped.Logger = scoped.Log().With(slog.String("invocation_id", scoped.ID))
			ctx = ContextWithRequestID(ctx, scoped.ID)
			return next.Handle(ctx, &scoped, req)
		})
	}
}
