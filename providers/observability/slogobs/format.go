package slogobs

import (
	"log/slog"
	"strings"
)

// Format selects the log line layout.
type Format string

const (
	// FormatCompact prints one line per record with JSON encoded attributes.
	//	2026-10-14 10:40:35 DEBUG stream finalized {"stream.tool_calls":1}
	FormatCompact Format = "compact"

	// FormatPretty prints the message followed by one indented line per attribute.
	FormatPretty Format = "pretty"

	// FormatJSON delegates to slog.JSONHandler.
	FormatJSON Format = "json"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat maps a case-insensitive name to a Format, defaulting to compact.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pretty":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// ParseLevel maps a case-insensitive level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}
