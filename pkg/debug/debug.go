// Package debug provides category-based debug logging for gqlfunc.
//
// Categories select WHAT is logged, independently of the handler level that
// selects HOW MUCH: a category must be enabled and the logger must accept
// debug records for anything to appear.
//
//	GQLFUNC_DEBUG=engine,auth gqlfunc --log-level debug
//
// Categories: auth, engine, transport, invocation, all.
package debug

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync/atomic"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity. At trace,
// full query texts are logged instead of truncated ones.
const LevelTrace = slog.LevelDebug - 4

// EnvVar names the environment variable holding the enabled categories.
const EnvVar = "GQLFUNC_DEBUG"

var categories atomic.Pointer[map[string]bool]

func init() {
	set(parseCategories(os.Getenv(EnvVar)))
}

func set(m map[string]bool) { categories.Store(&m) }

// Init enables the categories from configuration. The environment
// variable wins when set.
func Init(configCategories string) {
	cats := os.Getenv(EnvVar)
	if cats == "" {
		cats = configCategories
	}
	set(parseCategories(cats))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	m := *categories.Load()
	return m["all"] || m[category]
}

// Log emits a debug record for category on logger, or on the default
// logger when logger is nil. Disabled categories cost one map lookup.
func Log(logger *slog.Logger, category, msg string, args ...any) {
	emit(logger, slog.LevelDebug, category, msg, args)
}

// Trace is Log at LevelTrace.
func Trace(logger *slog.Logger, category, msg string, args ...any) {
	emit(logger, LevelTrace, category, msg, args)
}

// TraceEnabled reports whether trace records for category would be written.
func TraceEnabled(logger *slog.Logger, category string) bool {
	if !Enabled(category) {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.Enabled(context.Background(), LevelTrace)
}

func emit(logger *slog.Logger, level slog.Level, category, msg string, args []any) {
	if !Enabled(category) {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), level, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level. Unknown values map
// to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	var result []string
	for k := range *categories.Load() {
		result = append(result, k)
	}
	slices.Sort(result)
	return result
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if
// truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
