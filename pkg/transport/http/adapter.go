package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/rhuss/gqlfunc/pkg/debug"
	"github.com/rhuss/gqlfunc/pkg/platform"
	"github.com/rhuss/gqlfunc/pkg/transport"
)

// Adapter serves a platform.Handler over HTTP on a single route.
type Adapter struct {
	handler  platform.Handler
	inflight *transport.InFlightRegistry
	mux      *http.ServeMux
	config   Config
	logger   *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	// Route is the mux pattern the function is served on. Any method is
	// accepted; the engine decides which ones it supports.
	Route string

	// FunctionName is reported to the handler in the invocation.
	FunctionName string

	// MaxBodySize limits request bodies. Zero disables the limit.
	MaxBodySize int64

	Logger *slog.Logger
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Route:        "/api/graphql",
		FunctionName: "graphql",
		MaxBodySize:  10 << 20, // 10 MB
	}
}

// NewAdapter creates an HTTP adapter for handler. Empty Route and
// FunctionName fall back to DefaultConfig.
func NewAdapter(handler platform.Handler, cfg Config) *Adapter {
	def := DefaultConfig()
	if cfg.Route == "" {
		cfg.Route = def.Route
	}
	if cfg.FunctionName == "" {
		cfg.FunctionName = def.FunctionName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapter{
		handler:  handler,
		inflight: transport.NewInFlightRegistry(),
		mux:      http.NewServeMux(),
		config:   cfg,
		logger:   logger,
	}
	a.mux.HandleFunc(cfg.Route, a.serveInvocation)
	return a
}

// Handler returns the http.Handler for this adapter. The returned handler
// propagates X-Request-ID.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// InFlight returns the registry of chunked responses still being written.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// httpRequestIDMiddleware takes the request ID from X-Request-ID or
// generates one, stores it in the context and echoes it in the response.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

func (a *Adapter) serveInvocation(w http.ResponseWriter, r *http.Request) {
	if a.config.MaxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	}

	id := transport.RequestIDFromContext(r.Context())
	inv := &platform.Invocation{
		ID:           id,
		FunctionName: a.config.FunctionName,
		Logger:       a.logger.With(slog.String("invocation_id", id)),
	}

	debug.Log(a.logger, "transport", "request received",
		"invocation_id", id, "method", r.Method, "path", r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	resp := a.handler.Handle(ctx, inv, newRequest(r))
	if resp == nil {
		resp = transport.ErrorResponse(nil)
	}

	if !resp.Streaming() {
		writeComplete(w, resp)
		return
	}

	remove := a.inflight.Register(id, cancel)
	defer remove()
	writeChunked(ctx, w, inv, resp)
}
