package transport

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/platform"
)

// Respond translates an engine result into a platform response.
//
// Complete bodies get a content-length computed from their UTF-8 byte
// length. Chunked bodies are marked with transfer-encoding: chunked and
// encoded lazily, one write per chunk.
func Respond(result *api.Result) (*platform.Response, error) {
	if result == nil {
		return nil, api.NewInternalServerError("engine returned no result")
	}

	status, err := api.NormalizeStatusCode(result.Status)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, result.Headers.Len()+1)
	for name, value := range result.Headers.All() {
		headers[name] = value
	}

	resp := &platform.Response{Status: status, Headers: headers}

	switch body := result.Body.(type) {
	case api.ChunkedBody:
		resp.Stream = encodeChunks(body.Chunks)
	case *api.ChunkedBody:
		if body == nil {
			return nil, api.NewInternalServerError("engine returned a nil chunked body")
		}
		resp.Stream = encodeChunks(body.Chunks)
	case api.CompleteBody:
		resp.Body = body.Text
	case *api.CompleteBody:
		if body != nil {
			resp.Body = body.Text
		}
	case nil:
	default:
		return nil, api.NewInternalServerError(fmt.Sprintf("unsupported result body %T", body))
	}

	if resp.Streaming() {
		delete(headers, "content-length")
		headers["transfer-encoding"] = "chunked"
	} else {
		headers["content-length"] = strconv.Itoa(len(resp.Body))
	}
	return resp, nil
}

// encodeChunks turns string chunks into byte chunks as they are pulled.
// A panic in the producer ends the stream with an error; a panic in the
// consumer is not ours to handle and is re-raised.
func encodeChunks(chunks api.Chunks) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if chunks == nil {
			return
		}
		inYield := false
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if inYield {
				panic(r)
			}
			yield(nil, fmt.Errorf("chunk producer panicked: %v", r))
		}()

		for chunk, err := range chunks {
			if err != nil {
				inYield = true
				yield(nil, err)
				return
			}
			inYield = true
			if !yield([]byte(chunk), nil) {
				return
			}
			inYield = false
		}
	}
}
