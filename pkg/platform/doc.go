// Package platform describes what gqlfunc needs from a function host: a
// request it can read once, a response shape it can hand back, and the
// per-invocation context the host provides (identifiers and a logger).
//
// Host bindings (pkg/transport/http, pkg/transport/invocation) implement
// these contracts; the dispatcher in pkg/transport consumes them.
package platform
