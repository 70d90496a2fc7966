package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rhuss/gqlfunc/pkg/api"
)

// subscribe runs a subscription and returns its payloads as server-sent
// events in the distinct connections format: one "next" event per payload
// and a final "complete" event.
func (e *Engine) subscribe(ctx context.Context, p *params) (*api.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	ch, err := e.schema.Subscribe(ctx, p.Query, p.OperationName, p.Variables)
	if err != nil {
		cancel()
		return nil, api.WrapInternalServerError("starting subscription", err)
	}

	chunks := func(yield func(string, error) bool) {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-ch:
				if !ok {
					yield(completeEvent, nil)
					return
				}
				frame, err := nextEvent(payload)
				if err != nil {
					yield("", err)
					return
				}
				if !yield(frame, nil) {
					return
				}
			}
		}
	}

	headers := api.NewHeaderMap()
	headers.Set("content-type", "text/event-stream; charset=utf-8")
	headers.Set("cache-control", "no-cache")
	return &api.Result{Status: http.StatusOK, Headers: headers, Body: api.ChunkedBody{Chunks: chunks}}, nil
}

const completeEvent = "event: complete\ndata:\n\n"

func nextEvent(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding subscription payload: %w", err)
	}
	return "event: next\ndata: " + string(data) + "\n\n", nil
}
