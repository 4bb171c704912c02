package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const timeLayout = time.DateTime

const (
	ansiReset  = "\033[0m"
	ansiGray   = "\033[90m"
	ansiBlue   = "\033[34m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
)

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Level
	Output io.Writer
	// Colors enables ANSI colors; they are also enabled automatically when
	// Output is a terminal.
	Colors bool
}

// Handler renders records in the compact or pretty layout.
type Handler struct {
	format Format
	level  slog.Level
	colors bool
	attrs  []slog.Attr
	group  string

	mu  *sync.Mutex
	out io.Writer
}

// NewHandler returns a slog.Handler for opts. FormatJSON yields a
// slog.JSONHandler; the other formats yield a *Handler.
func NewHandler(opts HandlerOptions) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Format == FormatJSON {
		return slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{Level: opts.Level})
	}
	if opts.Format == "" {
		opts.Format = FormatCompact
	}

	colors := opts.Colors
	if !colors {
		if f, ok := opts.Output.(*os.File); ok {
			colors = term.IsTerminal(int(f.Fd()))
		}
	}

	return &Handler{
		format: opts.Format,
		level:  opts.Level,
		colors: colors,
		mu:     &sync.Mutex{},
		out:    opts.Output,
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler. Group names prefix attribute keys.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := append([]slog.Attr{}, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify([]slog.Attr{a})...)
		return true
	})

	var buf bytes.Buffer
	if !r.Time.IsZero() {
		buf.WriteString(h.paint(ansiGray, r.Time.Format(timeLayout)))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.paint(levelColor(r.Level), levelName(r.Level)))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	switch h.format {
	case FormatPretty:
		for _, a := range attrs {
			fmt.Fprintf(&buf, "\n  %s = %v", h.paint(ansiGray, a.Key), a.Value.Resolve().Any())
		}
	default:
		if len(attrs) > 0 {
			fields := make(map[string]any, len(attrs))
			for _, a := range attrs {
				fields[a.Key] = attrValue(a.Value)
			}
			encoded, err := json.Marshal(fields)
			if err != nil {
				encoded = []byte(fmt.Sprintf("%q", err.Error()))
			}
			buf.WriteByte(' ')
			buf.Write(encoded)
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *Handler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *Handler) paint(color, s string) string {
	if !h.colors {
		return s
	}
	return color + s + ansiReset
}

func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}

func levelName(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return ansiGray
	case level < slog.LevelInfo:
		return ansiBlue
	case level < slog.LevelWarn:
		return ansiGreen
	case level < slog.LevelError:
		return ansiYellow
	default:
		return ansiRed
	}
}
