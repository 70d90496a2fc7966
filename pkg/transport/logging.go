package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/gqlfunc/pkg/platform"
)

// Logging returns middleware that emits one structured log entry per
// invocation with the method, status, duration and whether the body is
// streamed. When logger is nil the invocation logger is used.
//
// For chunked responses the duration covers the time until the stream is
// handed to the host, not until it is drained.
func Logging(logger *slog.Logger) Middleware {
	return func(next platform.Handler) platform.Handler {
		return platform.HandlerFunc(func(ctx context.Context, inv *platform.Invocation, req platform.Request) *platform.Response {
			start := time.Now()
			resp := next.Handle(ctx, inv, req)

			l := logger
			if l == nil {
				l = inv.Log()
			}

			method := ""
			if req != nil {
				method = req.Method()
			}
			attrs := []slog.Attr{
				slog.String("invocation_id", invocationID(inv)),
				slog.String("method", method),
				slog.Duration("duration", time.Since(start)),
			}
			level := slog.LevelInfo
			if resp != nil {
				attrs = append(attrs,
					slog.Int("status", resp.Status),
					slog.Bool("streamed", resp.Streaming()),
				)
				if resp.Status >= 500 {
					level = slog.LevelWarn
				}
			}
			l.LogAttrs(ctx, level, "invocation completed", attrs...)
			return resp
		})
	}
}
