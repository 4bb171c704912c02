package middleware

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/leofalp/chatstream/core/connection"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/observability"
)

// LogLevel controls how much detail the logging middleware emits per turn.
type LogLevel int

const (
	// LogLevelMinimal logs the model, the duration and the outcome.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count, chunk count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the last message content and the streamed text,
	// truncated to 500 characters.
	//
	// WARNING: it logs raw prompt and response text. Do not use it in production.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose log output.
const truncateLen = 500

// NewLoggingMiddleware logs every connection attempt and, once the chunk
// sequence ends, a completion entry. logger must not be nil.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) connection.Middleware {
	return func(next connection.ConnectFunc) connection.ConnectFunc {
		return func(ctx context.Context, request connection.Request) (iter.Seq2[stream.Chunk, error], error) {
			logger.InfoContext(ctx, "stream connect", requestAttrs(request, level)...)

			start := time.Now()
			chunks, err := next(ctx, request)
			if err != nil {
				logger.ErrorContext(ctx, "stream connect failed",
					slog.String("model", request.Model),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			return logChunks(ctx, chunks, logger, request.Model, level, start), nil
		}
	}
}

// logChunks logs when the sequence completes, fails or is abandoned.
func logChunks(ctx context.Context, chunks iter.Seq2[stream.Chunk, error], logger *slog.Logger, model string, level LogLevel, start time.Time) iter.Seq2[stream.Chunk, error] {
	return func(yield func(stream.Chunk, error) bool) {
		var (
			count        int
			finishReason string
			text         []byte
		)

		for chunk, err := range chunks {
			if err != nil {
				logger.ErrorContext(ctx, "stream failed",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
					slog.Int("chunks", count),
					slog.String("error", err.Error()),
				)
				yield(chunk, err)
				return
			}

			count++
			switch chunk.Type {
			case stream.ChunkDone:
				finishReason = chunk.FinishReason
			case stream.ChunkText, "content":
				if level >= LogLevelVerbose && len(text) < truncateLen {
					text = append(text, chunk.Content...)
				}
			}

			if !yield(chunk, nil) {
				logger.InfoContext(ctx, "stream abandoned",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
				)
				return
			}
		}

		attrs := []any{
			slog.String("model", model),
			slog.Duration("duration", time.Since(start)),
		}
		if level >= LogLevelStandard {
			attrs = append(attrs, slog.Int("chunks", count))
			if finishReason != "" {
				attrs = append(attrs, slog.String("finish_reason", finishReason))
			}
		}
		if level >= LogLevelVerbose && len(text) > 0 {
			attrs = append(attrs, slog.String("response_content", observability.TruncateString(string(text), truncateLen)))
		}

		logger.InfoContext(ctx, "stream completed", attrs...)
	}
}

func requestAttrs(request connection.Request, level LogLevel) []any {
	attrs := []any{
		slog.String("model", request.Model),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("message_count", len(request.Messages)),
			slog.Int("tool_count", len(request.Tools)),
		)
	}

	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		last := request.Messages[len(request.Messages)-1]
		attrs = append(attrs,
			slog.String("last_message_role", string(last.Role)),
			slog.String("last_message_content", observability.TruncateString(last.Content, truncateLen)),
		)
	}

	return attrs
}
