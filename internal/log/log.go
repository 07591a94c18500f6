// Package log provides category-tagged, leveled logging for go-formsync.
// Logging is off until Init is called; library code logs no-op paths (a
// missing widget, an unmatched option) at debug level instead of failing.
package log

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// Category groups related log messages.
type Category string

const (
	CatSync   Category = "sync"   // dependent-field propagation and aggregation
	CatForm   Category = "form"   // document mutations and event dispatch
	CatWidget Category = "widget" // autocomplete option lookups
	CatRules  Category = "rules"  // rule document loading
	CatSchema Category = "schema" // OpenAPI form loading
	CatRender Category = "render" // HTML/TUI rendering
	CatCLI    Category = "cli"    // command line wiring
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Init routes log output to w at or above level. Passing a nil writer turns
// logging off again.
func Init(w io.Writer, level slog.Level) {
	if w == nil {
		current.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return
	}
	current.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	emit(slog.LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	emit(slog.LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	emit(slog.LevelWarn, cat, msg, fields...)
}

// ErrorErr logs err at error level.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	emit(slog.LevelError, cat, msg, fields...)
}

func emit(level slog.Level, cat Category, msg string, fields ...any) {
	logger := current.Load()
	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	logger.Log(ctx, level, msg, append([]any{"cat", string(cat)}, fields...)...)
}
