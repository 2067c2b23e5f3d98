// Package logging provides the compact console slog handler used by the CLI.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	purple = "\033[35m"
	cyan   = "\033[36m"
	gray   = "\033[37m"
)

// ConsoleHandler renders records as a single line: timestamp, level,
// message, then key=value attributes. Colors are optional so output piped to
// a log file stays clean.
type ConsoleHandler struct {
	level slog.Leveler
	color bool
	w     io.Writer
	mu    *sync.Mutex
	attrs []slog.Attr
}

func NewConsoleHandler(w io.Writer, level slog.Leveler, color bool) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{
		level: level,
		color: color,
		w:     w,
		mu:    &sync.Mutex{},
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !r.Time.IsZero() {
		h.paint(gray, r.Time.Format("15:04:05"))
		fmt.Fprint(h.w, " ")
	}

	h.paint(levelColor(r.Level), fmt.Sprintf("%-5s", r.Level.String()))
	fmt.Fprintf(h.w, " %s", r.Message)

	for _, a := range h.attrs {
		h.printAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.printAttr(a)
		return true
	})

	fmt.Fprintln(h.w)
	return nil
}

func (h *ConsoleHandler) printAttr(a slog.Attr) {
	fmt.Fprint(h.w, " ")
	h.paint(cyan, a.Key)
	fmt.Fprintf(h.w, "=%v", a.Value.Any())
}

func (h *ConsoleHandler) paint(color, s string) {
	if h.color {
		fmt.Fprint(h.w, color, s, reset)
	} else {
		fmt.Fprint(h.w, s)
	}
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &ConsoleHandler{
		level: h.level,
		color: h.color,
		w:     h.w,
		mu:    h.mu, // share the mutex, same output stream
		attrs: merged,
	}
}

// WithGroup is accepted but flattened; the CLI never nests groups.
func (h *ConsoleHandler) WithGroup(string) slog.Handler { return h }

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return red
	case l >= slog.LevelWarn:
		return yellow
	case l >= slog.LevelInfo:
		return green
	default:
		return purple
	}
}
