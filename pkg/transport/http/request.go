package http

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"sort"
	"strings"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/platform"
)

// request exposes an *http.Request as a platform.Request.
type request struct {
	r    *http.Request
	body *platform.OnceBody
}

var (
	_ platform.Request = (*request)(nil)
	_ platform.Cloner  = (*request)(nil)
)

func newRequest(r *http.Request) *request {
	return &request{r: r, body: platform.NewOnceBody(r.Body)}
}

func (q *request) Method() string { return q.r.Method }

// Headers yields every header value, names in sorted order.
func (q *request) Headers() iter.Seq2[string, string] {
	names := make([]string, 0, len(q.r.Header))
	for name := range q.r.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	return func(yield func(string, string) bool) {
		for _, name := range names {
			for _, v := range q.r.Header[name] {
				if !yield(name, v) {
					return
				}
			}
		}
	}
}

// URL returns the absolute request URL. Behind a proxy the scheme comes
// from X-Forwarded-Proto.
func (q *request) URL() string {
	if q.r.URL.IsAbs() {
		return q.r.URL.String()
	}
	scheme := "http"
	if q.r.TLS != nil {
		scheme = "https"
	}
	if proto := q.r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + q.r.Host + q.r.URL.RequestURI()
}

func (q *request) JSON(context.Context) (any, error) {
	data, err := q.body.ReadAll()
	if err != nil {
		return nil, bodyError(err)
	}
	return platform.DecodeJSON(data)
}

// Clone buffers the body and returns an unconsumed copy of the request.
func (q *request) Clone() (platform.Request, error) {
	data, err := q.body.Snapshot()
	if err != nil {
		return nil, bodyError(err)
	}
	r := q.r.Clone(q.r.Context())
	return &request{r: r, body: platform.NewOnceBody(strings.NewReader(string(data)))}, nil
}

// bodyError maps an oversized body to 413; other errors pass through.
func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		e := api.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body too large (max %d bytes)", maxBytesErr.Limit))
		e.Err = err
		return e
	}
	return err
}
