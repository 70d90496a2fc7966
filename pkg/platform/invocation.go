package platform

import (
	"context"
	"log/slog"
)

// Invocation carries the host context of one function invocation.
type Invocation struct {
	// ID identifies the invocation, e.g. the host invocation ID or the
	// X-Request-ID header.
	ID string

	// FunctionName is the name of the triggered function.
	FunctionName string

	// Logger is the per-invocation logger supplied by the host.
	Logger *slog.Logger
}

// Log returns the invocation logger, falling back to slog.Default.
func (inv *Invocation) Log() *slog.Logger {
	if inv == nil || inv.Logger == nil {
		return slog.Default()
	}
	return inv.Logger
}

// Handler serves one function invocation. Implementations must always
// return a well-formed response and never panic into the host.
type Handler interface {
	Handle(ctx context.Context, inv *Invocation, req Request) *Response
}

// HandlerFunc is an adapter that allows using an ordinary function as a
// Handler.
type HandlerFunc func(ctx context.Context, inv *Invocation, req Request) *Response

// Handle calls f(ctx, inv, req).
func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation, req Request) *Response {
	return f(ctx, inv, req)
}
