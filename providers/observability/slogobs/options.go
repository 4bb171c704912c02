package slogobs

import (
	"io"
	"log/slog"
	"os"

	"github.com/leofalp/chatstream/providers/observability"
)

// Option configures an Observer.
type Option func(*settings)

type settings struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool
	logger *slog.Logger
	attrs  []observability.Attribute
}

// WithFormat sets the line layout. Defaults to FormatCompact.
func WithFormat(format Format) Option {
	return func(s *settings) { s.format = format }
}

// WithLevel sets the minimum level. Defaults to slog.LevelInfo.
func WithLevel(level slog.Level) Option {
	return func(s *settings) { s.level = level }
}

// WithOutput sets the destination writer. Defaults to os.Stderr.
func WithOutput(output io.Writer) Option {
	return func(s *settings) { s.output = output }
}

// WithColors forces ANSI colors for compact and pretty lines. Without it,
// colors follow whether the output is a terminal.
func WithColors(enabled bool) Option {
	return func(s *settings) { s.colors = enabled }
}

// WithLogger logs through logger, ignoring format, level, output and colors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithAttributes attaches attrs to every record, e.g. the chat id and model
// of a CLI session.
func WithAttributes(attrs ...observability.Attribute) Option {
	return func(s *settings) { s.attrs = append(s.attrs, attrs...) }
}

func newSettings(opts []Option) settings {
	s := settings{
		format: FormatCompact,
		level:  slog.LevelInfo,
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
