package platform

import "iter"

// Response is what a handler returns to the host.
type Response struct {
	Status  int
	Headers map[string]string

	// Body holds a complete response body. Ignored when Stream is set.
	Body string

	// Stream yields the body incrementally for chunked responses. It is
	// consumed once by the host's writer; stopping the range stops the
	// producer.
	Stream iter.Seq2[[]byte, error]
}

// Streaming reports whether the response body is delivered in chunks.
func (r *Response) Streaming() bool {
	return r != nil && r.Stream != nil
}
