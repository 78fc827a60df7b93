// Package log wraps log/slog with the small amount of construction and
// context plumbing halopub needs: a configurable production logger, a
// discard logger, and a capturing handler for tests.
package log

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"log/slog"
)

// LoggerConfig is a minimal, convenient set of options.
type LoggerConfig struct {
	Version string

	// If Out is nil, stderr is used.
	Out io.Writer

	Level slog.Level
	JSON  bool // true => JSON output, false => text
}

// NewLogger creates a configured *slog.Logger.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(
			out,
			&slog.HandlerOptions{Level: cfg.Level})
	} else {
		handler = slog.NewTextHandler(
			out,
			&slog.HandlerOptions{Level: cfg.Level})
	}

	return slog.New(handler).With(
		slog.String("version", cfg.Version),
	)
}

// ParseLevel maps a textual level to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// nopHandler is a tiny no-op slog.Handler.
type nopHandler struct{}

func (n *nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (n *nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (n *nopHandler) WithAttrs(attrs []slog.Attr) slog.Handler  { return n }
func (n *nopHandler) WithGroup(name string) slog.Handler        { return n }

var _ slog.Handler = (*nopHandler)(nil)

// NewNopLogger returns a logger that discards all log events.
func NewNopLogger() *slog.Logger {
	return slog.New(&nopHandler{})
}

///////////////////////////////////////////////////////////////////////////////
// Context helpers
///////////////////////////////////////////////////////////////////////////////

type ctxKeyType struct{}

var ctxKey ctxKeyType

// ContextWithLogger stores lg on ctx.
func ContextWithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey, lg)
}

// FromContext returns the logger from ctx or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if v := ctx.Value(ctxKey); v != nil {
		if lg, ok := v.(*slog.Logger); ok && lg != nil {
			return lg
		}
	}
	return slog.Default()
}

///////////////////////////////////////////////////////////////////////////////
// Test handler (simple, thread-safe)
///////////////////////////////////////////////////////////////////////////////

type LoggedEntry struct {
	Time  time.Time
	Level slog.Level
	Msg   string
}

// TestHandler captures structured entries for assertions.
type TestHandler struct {
	mu      sync.Mutex
	Entries []LoggedEntry
}

func (h *TestHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *TestHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.Entries = append(h.Entries, LoggedEntry{
		Time:  r.Time,
		Level: r.Level,
		Msg:   r.Message,
	})
	h.mu.Unlock()
	return nil
}

func (h *TestHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *TestHandler) WithGroup(_ string) slog.Handler      { return h }

var _ slog.Handler = (*TestHandler)(nil)

// NewTestLogger returns a logger that writes to a TestHandler (and the handler).
func NewTestLogger() (*slog.Logger, *TestHandler) {
	th := &TestHandler{}
	return slog.New(th), th
}

// Find copies captured entries that match pred.
func (h *TestHandler) Find(pred func(LoggedEntry) bool) []LoggedEntry {
	h.mu.Lock()
	entries := append([]LoggedEntry(nil), h.Entries...)
	h.mu.Unlock()

	out := make([]LoggedEntry, 0)
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}
