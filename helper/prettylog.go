package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandlerOptions wraps slog.HandlerOptions for the pretty handler.
type PrettyHandlerOptions struct {
	SlogOpts slog.HandlerOptions
}

// PrettyHandler renders log records as "[HH:MM:SS.mmm] LEVEL: msg {attrs}"
// with level-colored prefixes, meant for local/dev console output.
type PrettyHandler struct {
	slog.Handler
	l    *log_
	mu   *sync.Mutex
	attr []slog.Attr
}

// log_ avoids colliding with the stdlib "log" package name while keeping
// the field name the teacher's tests assert on (handler.l).
type log_ struct {
	out io.Writer
}

// NewPrettyHandler builds a PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts PrettyHandlerOptions) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(w, &opts.SlogOpts),
		l:       &log_{out: w},
		mu:      &sync.Mutex{},
	}
}

// Handle renders one record.
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	attrs := make(map[string]any, r.NumAttrs()+len(h.attr))
	for _, a := range h.attr {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	attrJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal log attrs: %w", err)
	}

	timeStr := r.Time.Format("15:04:05.000")
	msg := color.CyanString(r.Message)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = fmt.Fprintf(h.l.out, "[%s] %s %s %s\n", timeStr, level, msg, string(attrJSON))
	return err
}

// WithAttrs returns a new handler carrying the given attrs on every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyHandler{
		Handler: h.Handler.WithAttrs(attrs),
		l:       h.l,
		mu:      h.mu,
		attr:    append(append([]slog.Attr{}, h.attr...), attrs...),
	}
}

// WithGroup is unsupported by the pretty renderer; it degrades to the
// underlying handler's grouping so slog.Logger.WithGroup still compiles.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		Handler: h.Handler.WithGroup(name),
		l:       h.l,
		mu:      h.mu,
		attr:    h.attr,
	}
}
