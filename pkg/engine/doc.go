// Package engine executes GraphQL requests with graph-gophers/graphql-go.
// The Engine implements transport.Engine: it parses its schema once in the
// background, holds requests until the schema is ready, extracts the
// GraphQL parameters from GET query strings and JSON POST bodies, and
// answers either with a JSON document or, for subscriptions requested with
// Accept: text/event-stream, with a chunked stream of server-sent events.
package engine
