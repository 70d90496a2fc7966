// Package invocation hosts a platform.Handler behind the Azure Functions
// custom handler protocol.
//
// The Functions host does not forward the raw HTTP request. It POSTs an
// invocation payload to /{functionName} whose Data section carries the HTTP
// trigger binding, and expects a reply whose Outputs section carries the
// HTTP output binding together with the invocation's log lines. Chunked
// responses are drained into a single body because the protocol has no way
// to stream.
package invocation
