package transport

import (
	"context"

	"github.com/rhuss/gqlfunc/pkg/api"
)

// ContextFactory produces the resolver context for one request. The engine
// calls it lazily, at most once per execution.
type ContextFactory func(ctx context.Context) (context.Context, error)

// Engine is the GraphQL execution engine the handler delegates to. It must
// be safe for concurrent use.
type Engine interface {
	// StartInBackground begins engine initialisation without blocking.
	// Requests arriving before initialisation completes wait for it; if
	// initialisation fails, every request fails with the startup error.
	StartInBackground()

	// ExecuteRequest executes a canonical request. Errors raised inside
	// resolvers are reported in the result body, not returned here.
	ExecuteRequest(ctx context.Context, req *api.Request, newContext ContextFactory) (*api.Result, error)
}
