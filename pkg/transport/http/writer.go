package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rhuss/gqlfunc/pkg/platform"
)

// hopHeaders are framing headers owned by net/http.
var hopHeaders = map[string]bool{
	"content-length":    true,
	"transfer-encoding": true,
	"connection":        true,
}

func copyHeaders(w http.ResponseWriter, resp *platform.Response, keepLength bool) {
	h := w.Header()
	for name, value := range resp.Headers {
		if hopHeaders[name] && !(keepLength && name == "content-length") {
			continue
		}
		h.Set(name, value)
	}
}

func writeComplete(w http.ResponseWriter, resp *platform.Response) {
	copyHeaders(w, resp, true)
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

// writeChunked writes every chunk as soon as it is produced and flushes it.
// net/http applies chunked transfer encoding because no content length is
// set. A stream error after the headers went out aborts the connection so
// the client sees a truncated body instead of a complete one.
func writeChunked(ctx context.Context, w http.ResponseWriter, inv *platform.Invocation, resp *platform.Response) {
	copyHeaders(w, resp, false)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(resp.Status)

	rc := http.NewResponseController(w)
	flushable := true
	if err := rc.Flush(); err != nil {
		flushable = false
		inv.Log().Debug("response writer cannot flush", slog.String("error", err.Error()))
	}

	for chunk, err := range resp.Stream {
		if err != nil {
			inv.Log().LogAttrs(ctx, slog.LevelError, "chunked response failed",
				slog.String("invocation_id", inv.ID),
				slog.String("error", err.Error()),
			)
			panic(http.ErrAbortHandler)
		}
		if ctx.Err() != nil {
			inv.Log().Debug("stream cancelled", slog.String("invocation_id", inv.ID))
			return
		}
		if _, err := w.Write(chunk); err != nil {
			inv.Log().Debug("client went away", slog.String("invocation_id", inv.ID), slog.String("error", err.Error()))
			return
		}
		if flushable {
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
