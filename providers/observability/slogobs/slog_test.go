package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/leofalp/chatstream/providers/observability"
)

func newBufferedObserver(format Format, level slog.Level) (*Observer, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(WithFormat(format), WithLevel(level), WithOutput(&buf), WithColors(false)), &buf
}

// ========== Logging ==========

func TestObserver_CompactFormat(t *testing.T) {
	observer, buf := newBufferedObserver(FormatCompact, slog.LevelInfo)

	observer.Info(context.Background(), "stream finalized", observability.Int(observability.AttrStreamToolCalls, 2))

	line := buf.String()
	if !strings.Contains(line, "INFO stream finalized") {
		t.Errorf("expected level and message in %q", line)
	}
	if !strings.Contains(line, `{"stream.tool_calls":2}`) {
		t.Errorf("expected JSON attributes in %q", line)
	}
}

func TestObserver_PrettyFormat(t *testing.T) {
	observer, buf := newBufferedObserver(FormatPretty, slog.LevelInfo)

	observer.Warn(context.Background(), "retrying", observability.Int(observability.AttrConnectionAttempt, 1))

	if !strings.Contains(buf.String(), "\n  connection.attempt = 1") {
		t.Errorf("expected indented attribute, got %q", buf.String())
	}
}

func TestObserver_JSONFormat(t *testing.T) {
	observer, buf := newBufferedObserver(FormatJSON, slog.LevelInfo)

	observer.Error(context.Background(), "boom", observability.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "boom" || record["k"] != "v" {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestObserver_LevelFiltering(t *testing.T) {
	observer, buf := newBufferedObserver(FormatCompact, slog.LevelWarn)

	observer.Debug(context.Background(), "hidden")
	observer.Info(context.Background(), "hidden")
	observer.Trace(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below warn, got %q", buf.String())
	}

	observer.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn record, got %q", buf.String())
	}
}

func TestObserver_TraceLevel(t *testing.T) {
	observer, buf := newBufferedObserver(FormatCompact, LevelTrace)

	observer.Trace(context.Background(), "chunk")
	if !strings.Contains(buf.String(), "TRACE chunk") {
		t.Errorf("expected trace record, got %q", buf.String())
	}
}

func TestObserver_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	observer := New(WithLogger(logger))
	observer.Info(context.Background(), "via text handler")

	if observer.Logger() != logger {
		t.Error("expected the provided logger to be used")
	}
	if !strings.Contains(buf.String(), "via text handler") {
		t.Errorf("expected text handler output, got %q", buf.String())
	}
}

// ========== Spans ==========

func TestObserver_SpanLifecycle(t *testing.T) {
	observer, buf := newBufferedObserver(FormatCompact, slog.LevelDebug)

	ctx, span := observer.StartSpan(context.Background(), observability.SpanStreamProcess)
	if observability.SpanFromContext(ctx) != span {
		t.Fatal("expected span stored in returned context")
	}

	span.SetAttributes(observability.Int(observability.AttrStreamChunkCount, 3))
	span.AddEvent(observability.EventStreamFinalized)
	span.RecordError(errors.New("oops"))
	span.SetStatus(observability.StatusError, "failed")
	span.End()
	span.End()

	out := buf.String()
	for _, want := range []string{"span started", observability.EventStreamFinalized, "span error", "span ended"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
	if strings.Count(out, "span ended") != 1 {
		t.Errorf("expected a single span end record, got %q", out)
	}
}

// ========== Metrics ==========

func TestObserver_Metrics(t *testing.T) {
	observer, _ := newBufferedObserver(FormatCompact, slog.LevelInfo)
	ctx := context.Background()

	observer.Counter(observability.MetricStreamChunks).Add(ctx, 2)
	observer.Counter(observability.MetricStreamChunks).Add(ctx, 3)
	observer.Histogram(observability.MetricStreamDuration).Record(ctx, 1.5)

	if got := observer.CounterValue(observability.MetricStreamChunks); got != 5 {
		t.Errorf("expected counter 5, got %d", got)
	}
	if got := observer.HistogramCount(observability.MetricStreamDuration); got != 1 {
		t.Errorf("expected 1 observation, got %d", got)
	}
	if observer.CounterValue("missing") != 0 || observer.HistogramCount("missing") != 0 {
		t.Error("expected zero for unknown metrics")
	}
}

// ========== Options ==========

func TestObserver_WithAttributes(t *testing.T) {
	var buf bytes.Buffer
	observer := New(
		WithFormat(FormatJSON),
		WithOutput(&buf),
		WithAttributes(observability.String(observability.AttrChatID, "chat-1")),
	)

	observer.Info(context.Background(), "turn finished")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record[observability.AttrChatID] != "chat-1" {
		t.Errorf("expected chat id attribute, got %v", record)
	}
}

func TestObserver_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	observer := New(WithOutput(&buf), WithColors(false))

	observer.Debug(context.Background(), "hidden")
	observer.Info(context.Background(), "shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "INFO shown") {
		t.Errorf("expected only the info record, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
