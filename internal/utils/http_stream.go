package utils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/chatstream/providers/observability"
)

// HeaderOption is an extra request header. It is applied after the defaults
// and can override them (Accept, Authorization).
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPError is returned by DoPostStream for a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string // At most maxResponseBodySize bytes
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("non-2xx status %d", e.StatusCode)
	}
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// DoPostStream POSTs body as JSON and returns the response with its body left
// open for incremental reading; the caller must close it. For a non-2xx
// status the body is drained, closed and reported as *HTTPError.
func DoPostStream(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamStart,
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	start := time.Now()
	response, err := httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("send stream request: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		errorBody, _ := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		return nil, &HTTPError{StatusCode: response.StatusCode, Body: string(errorBody)}
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamOpened,
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration(observability.AttrDuration, elapsed),
		)
	}

	return response, nil
}

// CloseWithLog closes c and logs a failure instead of returning it.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close", "error", err.Error())
	}
}

// maxLineSize bounds a single SSE or NDJSON line. Tool call arguments can
// exceed the 64 KiB bufio default.
const maxLineSize = 1 << 20

// maxResponseBodySize caps how much of an error response is read.
const maxResponseBodySize int64 = 64 * 1024

func newLineScanner(reader io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// SSEEvent is one dispatched Server-Sent Event.
type SSEEvent struct {
	Event string // "event:" field, empty for the default "message" type
	ID    string
	Data  string // "data:" lines joined with "\n"
}

// SSEScanner reads Server-Sent Events. Comments and events without data are
// skipped; a "[DONE]" data payload ends the stream like EOF does.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner returns an SSEScanner reading from reader.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	return &SSEScanner{scanner: newLineScanner(reader)}
}

// Next returns the next event, or io.EOF at the end of the stream.
func (s *SSEScanner) Next() (SSEEvent, error) {
	var (
		event SSEEvent
		data  []string
	)

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if len(data) > 0 {
				event.Data = strings.Join(data, "\n")
				return event, nil
			}
			event = SSEEvent{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			if strings.TrimSpace(value) == "[DONE]" {
				return SSEEvent{}, io.EOF
			}
			data = append(data, value)
		case "event":
			event.Event = value
		case "id":
			event.ID = value
		}
	}

	if err := s.scanner.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("read SSE stream: %w", err)
	}
	if len(data) > 0 {
		event.Data = strings.Join(data, "\n")
		return event, nil
	}
	return SSEEvent{}, io.EOF
}

// NDJSONScanner reads newline-delimited JSON documents. Blank lines are skipped.
type NDJSONScanner struct {
	scanner *bufio.Scanner
}

// NewNDJSONScanner returns an NDJSONScanner reading from reader.
func NewNDJSONScanner(reader io.Reader) *NDJSONScanner {
	return &NDJSONScanner{scanner: newLineScanner(reader)}
}

// Next returns the next line, trimmed, or io.EOF at the end of the stream.
// The returned slice is only valid until the next call.
func (s *NDJSONScanner) Next() ([]byte, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) > 0 {
			return line, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read NDJSON stream: %w", err)
	}
	return nil, io.EOF
}
