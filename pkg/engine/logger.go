package engine

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// panicLogger reports resolver panics recovered by graphql-go. The panic
// itself becomes a GraphQL error in the response.
type panicLogger struct {
	logger *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.logger.ErrorContext(ctx, "resolver panicked",
		slog.Any("panic", value),
		slog.String("stack", string(debug.Stack())),
	)
}
