package transport

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/platform"
)

const tracerName = "github.com/rhuss/gqlfunc/pkg/transport"

// ContextArgument is handed to a ContextFunc when the engine asks for a
// resolver context.
type ContextArgument struct {
	// Invocation is the host invocation context.
	Invocation *platform.Invocation

	// Request is an unconsumed duplicate of the platform request, or nil
	// when the host request cannot be cloned.
	Request platform.Request

	// Body is the parsed request body, as seen by the engine.
	Body any
}

// ContextFunc derives the resolver context for one request. Returning an
// *api.HTTPError lets the function choose the status sent to the caller.
type ContextFunc func(ctx context.Context, arg ContextArgument) (context.Context, error)

// Options configures NewHandler. The zero value is valid.
type Options struct {
	// Context builds the resolver context. Defaults to returning the
	// invocation context unchanged.
	Context ContextFunc

	// Middleware wraps the handler, first entry outermost. Recovery is
	// always applied outside of these.
	Middleware []Middleware

	// TracerProvider used for execution spans. Defaults to the global
	// provider.
	TracerProvider trace.TracerProvider
}

func emptyContext(ctx context.Context, _ ContextArgument) (context.Context, error) {
	return ctx, nil
}

// dispatcher is the platform.Handler that drives one engine.
type dispatcher struct {
	engine     Engine
	newContext ContextFunc
	tracer     trace.Tracer
}

// NewHandler starts engine in the background and returns a handler that
// serves GraphQL requests with it.
func NewHandler(engine Engine, opts Options) platform.Handler {
	engine.StartInBackground()

	newContext := opts.Context
	if newContext == nil {
		newContext = emptyContext
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	d := &dispatcher{
		engine:     engine,
		newContext: newContext,
		tracer:     tp.Tracer(tracerName),
	}

	middlewares := append([]Middleware{Recovery()}, opts.Middleware...)
	return Chain(middlewares...)(d)
}

// Handle implements platform.Handler.
func (d *dispatcher) Handle(ctx context.Context, inv *platform.Invocation, req platform.Request) *platform.Response {
	if inv == nil {
		inv = &platform.Invocation{}
	}
	resp, err := d.serve(ctx, inv, req)
	if err != nil {
		return fail(ctx, inv, err)
	}
	return resp
}

func (d *dispatcher) serve(ctx context.Context, inv *platform.Invocation, req platform.Request) (*platform.Response, error) {
	// The duplicate must be taken before Normalize consumes the body.
	var duplicate platform.Request
	if c, ok := req.(platform.Cloner); ok {
		dup, err := c.Clone()
		if err != nil {
			var httpErr *api.HTTPError
			if errors.As(err, &httpErr) {
				return nil, err
			}
			return nil, api.WrapInternalServerError("cloning request", err)
		}
		duplicate = dup
	}

	canonical, err := Normalize(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, span := d.tracer.Start(ctx, "graphql.execute",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", canonical.Method),
			attribute.String("faas.invocation_id", inv.ID),
			attribute.String("faas.name", inv.FunctionName),
		),
	)
	defer span.End()

	factory := func(ctx context.Context) (context.Context, error) {
		return d.newContext(ctx, ContextArgument{
			Invocation: inv,
			Request:    duplicate,
			Body:       canonical.Body,
		})
	}

	result, err := d.engine.ExecuteRequest(ctx, canonical, factory)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp, err := Respond(result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.Status),
		attribute.Bool("gqlfunc.chunked", resp.Streaming()),
	)
	return resp, nil
}
