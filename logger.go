package uibridge

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/uibridge/extract"
	"github.com/gogpu/uibridge/input"
	"github.com/gogpu/uibridge/output"
	"github.com/gogpu/uibridge/render"
	"github.com/gogpu/uibridge/textures"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for uibridge and all its sub-packages.
// By default, uibridge produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore silence.
//
// Log levels used by uibridge:
//   - [slog.LevelDebug]: per-frame diagnostics (buffer growth, skipped contexts)
//   - [slog.LevelInfo]: lifecycle events (bridge created, contexts added)
//   - [slog.LevelWarn]: transient problems (texture not resolvable, pipeline not ready)
//   - [slog.LevelError]: contract violations (unknown paint callback payloads)
//
// Example:
//
//	uibridge.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	render.SetLogger(l)
	extract.SetLogger(l)
	textures.SetLogger(l)
	input.SetLogger(l)
	output.SetLogger(l)
}

// Logger returns the current logger used by uibridge.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
