// Package api defines the engine-neutral request and result types that the
// gqlfunc adapter exchanges with a GraphQL engine, together with the error
// taxonomy used at the adapter boundary.
//
// Core types:
//   - [Request]: canonical request (method, headers, query string, parsed body)
//   - [HeaderMap]: ordered, case-insensitive header mapping
//   - [Result]: engine result with an optional status and a [Body]
//   - [Body]: closed union of [CompleteBody] and [ChunkedBody]
//   - [HTTPError]: tagged error carrying a status code and an expose flag
//
// The package performs no I/O.
package api
