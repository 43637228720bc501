package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Shared logger for the presentation core, the Vulkan plumbing and the renderer. Library code never
// writes output unless the application installs a logger via SetLogger.

// nopHandler discards every record. Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs l as the process wide logger. Passing nil restores the silent default.
//
// Levels in use:
//   - [slog.LevelDebug]: negotiation details (format, present mode, extent, image count)
//   - [slog.LevelInfo]: lifecycle events (chain built, rebuild stall, shutdown)
//   - [slog.LevelWarn]: retryable rebuild failures
//   - [slog.LevelError]: fatal errors right before the application terminates
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// ParseLevel maps the command line spelling of a level onto slog levels. Unknown names fall back
// to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
