// Package logging configures the slog output used for cascade status lines:
// a console handler that renders the traversal depth as indentation, plus an
// optional rolling file sink.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rolling file defaults, lumberjack semantics
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// DepthKey is the record attribute carrying traversal depth. The console
// handler consumes it and renders two spaces of indentation per level.
const DepthKey = "depth"

// Options configures the logger
type Options struct {
	// Level is the minimum level emitted
	Level slog.Level
	// NoColor disables ANSI level colors on the console
	NoColor bool
	// FilePath, when set, adds a rolling file sink at this path
	FilePath string
	// MaxSizeMB, MaxBackups, MaxAgeDays configure file rotation
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a logger writing console lines to w and, when configured, text
// records to a rolling file.
func New(w io.Writer, opts Options) *slog.Logger {
	handlers := []slog.Handler{NewConsoleHandler(w, opts.Level, !opts.NoColor)}

	if opts.FilePath != "" {
		sink := &lj.Logger{
			Filename:   opts.FilePath,
			MaxSize:    valOr(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(opts.MaxAgeDays, DefaultMaxAgeDays),
		}
		handlers = append(handlers, slog.NewTextHandler(sink, &slog.HandlerOptions{Level: opts.Level}))
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0])
	}
	return slog.New(multiHandler(handlers))
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// ConsoleHandler renders records as human-oriented status lines: a colored
// level tag, a message indented by the depth attribute, then the remaining
// attributes as key=value pairs. It writes raw ANSI escapes, which
// slog.TextHandler would quote away.
type ConsoleHandler struct {
	w     io.Writer
	level slog.Level
	color bool
	attrs []slog.Attr

	mu *sync.Mutex
}

// NewConsoleHandler creates a ConsoleHandler writing to w
func NewConsoleHandler(w io.Writer, level slog.Level, color bool) *ConsoleHandler {
	return &ConsoleHandler{
		w:     w,
		level: level,
		color: color,
		mu:    &sync.Mutex{},
	}
}

// Enabled implements slog.Handler
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	depth := 0
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == DepthKey {
			depth = int(a.Value.Int64())
			return true
		}
		attrs = append(attrs, a)
		return true
	})

	var b strings.Builder
	if h.color {
		b.WriteString(levelColor(r.Level))
		b.WriteString(r.Level.String())
		b.WriteString("\033[0m")
	} else {
		b.WriteString(r.Level.String())
	}
	b.WriteString("  ")
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(r.Message)

	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(formatValue(a.Value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs implements slog.Handler
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &out
}

// WithGroup implements slog.Handler. Groups are flattened: this handler
// produces status lines, not structured records.
func (h *ConsoleHandler) WithGroup(_ string) slog.Handler {
	return h
}

func formatValue(v slog.Value) string {
	s := fmt.Sprintf("%v", v.Any())
	if strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m" // Red
	case level >= slog.LevelWarn:
		return "\033[33m" // Yellow
	case level >= slog.LevelInfo:
		return "\033[32m" // Green
	default:
		return "\033[36m" // Cyan
	}
}

// multiHandler fans one record out to several handlers
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
