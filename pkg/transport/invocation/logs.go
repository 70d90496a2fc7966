package invocation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
)

// logSink collects one line per log record.
type logSink struct {
	mu    sync.Mutex
	lines []string
}

// Write receives exactly one formatted record per call from slog's
// built-in handlers.
func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

func (s *logSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// captureHandler writes every record to the invocation's sink and forwards
// it to the process logger.
type captureHandler struct {
	capture slog.Handler
	base    slog.Handler
}

func newCaptureHandler(base slog.Handler, sink *logSink) *captureHandler {
	return &captureHandler{
		capture: slog.NewTextHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug}),
		base:    base,
	}
}

func (h *captureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.capture.Enabled(ctx, level) || h.base.Enabled(ctx, level)
}

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if h.capture.Enabled(ctx, r.Level) {
		errs = append(errs, h.capture.Handle(ctx, r.Clone()))
	}
	if h.base.Enabled(ctx, r.Level) {
		errs = append(errs, h.base.Handle(ctx, r))
	}
	return errors.Join(errs...)
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &captureHandler{capture: h.capture.WithAttrs(attrs), base: h.base.WithAttrs(attrs)}
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{capture: h.capture.WithGroup(name), base: h.base.WithGroup(name)}
}
