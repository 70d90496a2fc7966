// Package platformtest provides an in-memory platform.Request for tests.
package platformtest

import (
	"context"
	"iter"
	"sort"
	"strings"

	"github.com/rhuss/gqlfunc/pkg/platform"
)

// Request is an in-memory platform.Request that also implements
// platform.Cloner.
type Request struct {
	method  string
	url     string
	headers map[string]string
	body    *platform.OnceBody
}

var (
	_ platform.Request = (*Request)(nil)
	_ platform.Cloner  = (*Request)(nil)
)

// NewRequest builds a request. Header names are yielded in sorted order.
func NewRequest(method, url string, headers map[string]string, body string) *Request {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &Request{
		method:  method,
		url:     url,
		headers: h,
		body:    platform.NewOnceBody(strings.NewReader(body)),
	}
}

// Post builds a POST request with a JSON content type.
func Post(url, body string) *Request {
	return NewRequest("POST", url, map[string]string{"Content-Type": "application/json"}, body)
}

// Get builds a GET request without headers.
func Get(url string) *Request {
	return NewRequest("GET", url, nil, "")
}

func (r *Request) Method() string { return r.method }
func (r *Request) URL() string    { return r.url }

func (r *Request) Headers() iter.Seq2[string, string] {
	names := make([]string, 0, len(r.headers))
	for k := range r.headers {
		names = append(names, k)
	}
	sort.Strings(names)
	return func(yield func(string, string) bool) {
		for _, k := range names {
			if !yield(k, r.headers[k]) {
				return
			}
		}
	}
}

func (r *Request) JSON(context.Context) (any, error) {
	data, err := r.body.ReadAll()
	if err != nil {
		return nil, err
	}
	return platform.DecodeJSON(data)
}

// Consumed reports whether the body has been read.
func (r *Request) Consumed() bool { return r.body.Consumed() }

func (r *Request) Clone() (platform.Request, error) {
	data, err := r.body.Snapshot()
	if err != nil {
		return nil, err
	}
	return NewRequest(r.method, r.url, r.headers, string(data)), nil
}

// NoClone hides the Cloner capability of req.
func NoClone(req platform.Request) platform.Request {
	return struct{ platform.Request }{req}
}

// Drain collects a streamed response into its chunks. The first stream
// error is returned alongside the chunks read before it.
func Drain(resp *platform.Response) ([]string, error) {
	if !resp.Streaming() {
		return []string{resp.Body}, nil
	}
	var chunks []string
	for chunk, err := range resp.Stream {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, string(chunk))
	}
	return chunks, nil
}
