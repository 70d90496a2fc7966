package invocation

import (
	"bytes"
	"context"
	"iter"
	"maps"
	"slices"

	"github.com/rhuss/gqlfunc/pkg/platform"
)

// triggerRequest exposes an HTTP trigger binding as a platform.Request.
type triggerRequest struct {
	trigger *HTTPTrigger
	body    *platform.OnceBody
}

var (
	_ platform.Request = (*triggerRequest)(nil)
	_ platform.Cloner  = (*triggerRequest)(nil)
)

func newTriggerRequest(t *HTTPTrigger) (*triggerRequest, error) {
	data, err := t.bodyBytes()
	if err != nil {
		return nil, err
	}
	return &triggerRequest{trigger: t, body: platform.NewOnceBody(bytes.NewReader(data))}, nil
}

func (q *triggerRequest) Method() string { return q.trigger.Method }
func (q *triggerRequest) URL() string    { return q.trigger.URL }

func (q *triggerRequest) Headers() iter.Seq2[string, string] {
	names := slices.Sorted(maps.Keys(q.trigger.Headers))
	return func(yield func(string, string) bool) {
		for _, name := range names {
			for _, v := range q.trigger.Headers[name] {
				if !yield(name, v) {
					return
				}
			}
		}
	}
}

func (q *triggerRequest) JSON(context.Context) (any, error) {
	data, err := q.body.ReadAll()
	if err != nil {
		return nil, err
	}
	return platform.DecodeJSON(data)
}

func (q *triggerRequest) Clone() (platform.Request, error) {
	data, err := q.body.Snapshot()
	if err != nil {
		return nil, err
	}
	return &triggerRequest{trigger: q.trigger, body: platform.NewOnceBody(bytes.NewReader(data))}, nil
}
