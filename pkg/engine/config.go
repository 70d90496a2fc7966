package engine

import "log/slog"

// Config holds configuration for the engine.
type Config struct {
	// Schema is the GraphQL schema in SDL.
	Schema string

	// Resolver is the root resolver for Schema.
	Resolver any

	// MaxDepth limits query nesting. Zero means unlimited.
	MaxDepth int

	// MaxParallelism limits concurrently executing resolvers per request.
	// Zero keeps the library default of 10.
	MaxParallelism int

	// DisableIntrospection rejects __schema and __type queries.
	DisableIntrospection bool

	// Logger receives startup events and resolver panics.
	// Defaults to slog.Default().
	Logger *slog.Logger
}
