package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"

	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/internal/utils"
	"github.com/leofalp/chatstream/providers/observability"
)

const (
	kindSSE    = "sse"
	kindNDJSON = "ndjson"
)

// httpAdapter POSTs the request and decodes the response body line by line.
type httpAdapter struct {
	url     string
	kind    string
	accept  string
	options options
}

// NewServerSentEvents returns an Adapter for endpoints answering with
// text/event-stream, one JSON chunk per "data:" event. A "[DONE]" payload
// ends the turn.
func NewServerSentEvents(url string, opts ...Option) Adapter {
	return &httpAdapter{url: url, kind: kindSSE, accept: "text/event-stream", options: buildOptions(opts)}
}

// NewHTTPStream returns an Adapter for endpoints answering with
// newline-delimited JSON chunks.
func NewHTTPStream(url string, opts ...Option) Adapter {
	return &httpAdapter{url: url, kind: kindNDJSON, accept: "application/x-ndjson", options: buildOptions(opts)}
}

func (a *httpAdapter) Connect(ctx context.Context, request Request) (iter.Seq2[stream.Chunk, error], error) {
	observer := a.options.observer
	ctx, span := observer.StartSpan(ctx, observability.SpanConnection,
		observability.String(observability.AttrConnectionKind, a.kind),
		observability.String(observability.AttrHTTPURL, a.url),
	)

	headers := append([]utils.HeaderOption{{Key: "Accept", Value: a.accept}}, a.options.headers...)
	response, err := utils.DoPostStream(ctx, a.options.client, a.url, a.options.apiKey, request, headers...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "connect failed")
		span.End()
		observer.Error(ctx, "connection failed",
			observability.String(observability.AttrConnectionKind, a.kind),
			observability.Error(err),
		)
		return nil, err
	}

	observer.Debug(ctx, "connection opened",
		observability.String(observability.AttrConnectionKind, a.kind),
		observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
	)

	return func(yield func(stream.Chunk, error) bool) {
		defer span.End()
		defer utils.CloseWithLog(response.Body)

		next := a.decoder(response)
		for {
			payload, err := next()
			if errors.Is(err, io.EOF) {
				span.SetStatus(observability.StatusOK, "")
				return
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				span.RecordError(err)
				yield(stream.Chunk{}, err)
				return
			}

			var chunk stream.Chunk
			if err := json.Unmarshal(payload, &chunk); err != nil {
				observer.Warn(ctx, "skipping malformed chunk",
					observability.String(observability.AttrConnectionKind, a.kind),
					observability.Error(err),
				)
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}, nil
}

func (a *httpAdapter) decoder(response *http.Response) func() ([]byte, error) {
	if a.kind == kindNDJSON {
		return utils.NewNDJSONScanner(response.Body).Next
	}
	scanner := utils.NewSSEScanner(response.Body)
	return func() ([]byte, error) {
		event, err := scanner.Next()
		if err != nil {
			return nil, err
		}
		return []byte(event.Data), nil
	}
}
