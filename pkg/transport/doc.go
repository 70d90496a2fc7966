// Package transport adapts a GraphQL engine to a function host.
//
// The package bridges the host's HTTP trigger and the engine. It normalises
// each incoming platform request into the canonical request defined in
// pkg/api, invokes the engine, and translates the engine's result back into
// a platform response, either as a complete body or as a chunked stream.
//
// # Handler
//
// NewHandler builds a platform.Handler around an Engine. The engine is
// started in the background as soon as the handler is created. Every
// invocation is isolated: failures raised while normalising, executing or
// translating are logged through the invocation logger and turned into a
// safe response by api.Classify. Nothing escapes to the host.
//
// # Middleware
//
// Middleware wraps a platform.Handler with cross-cutting behaviour. Recovery
// is always installed outermost; RequestID and Logging are provided for
// hosts that do not assign invocation IDs or log on their own.
package transport
