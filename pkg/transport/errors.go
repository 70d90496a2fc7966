package transport

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/observability"
	"github.com/rhuss/gqlfunc/pkg/platform"
)

// ErrorResponse converts a failure into the response returned to the
// host. The body only carries the error message when the error is an
// exposed api.HTTPError.
func ErrorResponse(err error) *platform.Response {
	status, body := api.Classify(err)
	return &platform.Response{
		Status: status,
		Headers: map[string]string{
			"content-type":   "text/plain; charset=utf-8",
			"content-length": strconv.Itoa(len(body)),
		},
		Body: body,
	}
}

// fail logs err through the invocation logger, counts it and returns the
// classified response.
func fail(ctx context.Context, inv *platform.Invocation, err error) *platform.Response {
	kind := api.ErrorKindOf(err)
	inv.Log().LogAttrs(ctx, slog.LevelError, "invocation failed",
		slog.String("invocation_id", invocationID(inv)),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	observability.BoundaryErrorsTotal.WithLabelValues(string(kind)).Inc()
	return ErrorResponse(err)
}

func invocationID(inv *platform.Invocation) string {
	if inv == nil {
		return ""
	}
	return inv.ID
}
