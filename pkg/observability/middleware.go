package observability

import (
	"context"
	"iter"
	"strconv"
	"time"

	"github.com/rhuss/gqlfunc/pkg/platform"
)

// Middleware wraps a platform handler to record invocation metrics.
//
// It captures:
//   - gqlfunc_invocations_total (counter): one per invocation with method and status class labels
//   - gqlfunc_invocation_duration_seconds (histogram): time until the response is returned
//   - gqlfunc_chunked_streams_active (gauge): incremented while a chunked body is being drained
func Middleware(next platform.Handler) platform.Handler {
	return platform.HandlerFunc(func(ctx context.Context, inv *platform.Invocation, req platform.Request) *platform.Response {
		start := time.Now()
		resp := next.Handle(ctx, inv, req)

		method := "UNKNOWN"
		if req != nil && req.Method() != "" {
			method = req.Method()
		}
		status := "5xx"
		if resp != nil {
			status = strconv.Itoa(resp.Status/100) + "xx"
			if resp.Streaming() {
				resp.Stream = trackStream(resp.Stream)
			}
		}

		InvocationsTotal.WithLabelValues(method, status).Inc()
		InvocationDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		return resp
	})
}

// trackStream keeps ChunkedStreamsActive raised while the host pulls from
// stream.
func trackStream(stream iter.Seq2[[]byte, error]) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		ChunkedStreamsActive.Inc()
		defer ChunkedStreamsActive.Dec()
		for chunk, err := range stream {
			if !yield(chunk, err) {
				return
			}
		}
	}
}
