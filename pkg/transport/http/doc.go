// Package http hosts a platform.Handler behind a plain net/http server.
//
// Each HTTP request on the configured route becomes one invocation: the
// request is wrapped as a platform.Request, an invocation is created with
// an ID taken from X-Request-ID (or a fresh UUID), and the handler's
// response is written back. Chunked responses are written and flushed one
// chunk at a time.
package http
