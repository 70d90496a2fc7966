package api

import (
	"fmt"
	"iter"
	"net/http"
)

// Result is what an engine returns for one request.
type Result struct {
	// Status is the HTTP status. Zero means the engine did not report one.
	Status int

	// Headers are the response headers set by the engine.
	Headers *HeaderMap

	// Body is either a CompleteBody or a ChunkedBody.
	Body Body
}

// Body is the closed union of result bodies.
type Body interface {
	isBody()
}

// CompleteBody is a fully materialised response body.
type CompleteBody struct {
	Text string
}

// Chunks is a lazy sequence of body fragments. It is not restartable and
// must be ranged over at most once. Breaking out of the range stops the
// producer.
type Chunks = iter.Seq2[string, error]

// ChunkedBody is an incrementally delivered response body.
type ChunkedBody struct {
	Chunks Chunks
}

func (CompleteBody) isBody() {}
func (ChunkedBody) isBody()  {}

// ChunksOf returns Chunks that yield the given fragments in order.
func ChunksOf(parts ...string) Chunks {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func validStatus(status int) bool {
	return status >= 100 && status <= 599
}

// NormalizeStatusCode returns 200 for an unreported (zero) status and the
// status itself when it lies in [100, 599]. Anything else is an internal
// server error.
func NormalizeStatusCode(status int) (int, error) {
	if status == 0 {
		return http.StatusOK, nil
	}
	if !validStatus(status) {
		return 0, NewInternalServerError(fmt.Sprintf("invalid status code %d from engine", status))
	}
	return status, nil
}
