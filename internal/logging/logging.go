// Package logging sets up the proxy's structured logger (spec.md §4.J).
//
// The proxy logs through the standard library's log/slog rather than a
// third-party structured-logging library: no repository in this corpus
// depends on one, and jinterlante1206-AleutianLocal's own logging package
// is itself built on log/slog, making it the corpus's de facto idiom for
// this concern.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps the proxy's CLI-facing level names to slog.Level. An
// unrecognized name falls back to info, matching the teacher's
// FileLogger defaulting behavior.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a text-handler logger writing to w at the given minimum
// level. Every caller is expected to tag records with a "component"
// attribute, e.g. log.With("component", "router").
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
