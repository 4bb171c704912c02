package connection

import (
	"context"
	"iter"

	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/ai"
	"github.com/leofalp/chatstream/providers/observability"
)

// NewProviderAdapter returns an Adapter that runs turns on an in-process
// provider, translating its events into chunks. Usage reported before the
// done event is attached to the done chunk.
func NewProviderAdapter(provider ai.StreamProvider, model string, opts ...Option) Adapter {
	o := buildOptions(opts)

	return ConnectFunc(func(ctx context.Context, request Request) (iter.Seq2[stream.Chunk, error], error) {
		if request.Model == "" {
			request.Model = model
		}

		ctx, span := o.observer.StartSpan(ctx, observability.SpanConnection,
			observability.String(observability.AttrConnectionKind, "provider"),
			observability.String(observability.AttrLLMProvider, provider.Name()),
			observability.String(observability.AttrLLMModel, request.Model),
		)

		chatStream, err := provider.StreamMessage(ctx, ai.ChatRequest{
			Model:    request.Model,
			Messages: request.Messages,
			Tools:    request.Tools,
			Data:     request.Data,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "provider failed")
			span.End()
			return nil, err
		}

		return func(yield func(stream.Chunk, error) bool) {
			defer span.End()

			var usage *ai.Usage
			for event, err := range chatStream.Iter() {
				if err != nil {
					span.RecordError(err)
					yield(stream.Chunk{}, err)
					return
				}
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield(stream.Chunk{}, ctxErr)
					return
				}

				if event.Type == ai.StreamEventUsage {
					usage = event.Usage
					continue
				}
				chunk, ok := chunkFromEvent(event, request.Model)
				if !ok {
					continue
				}
				if chunk.Type == stream.ChunkDone && chunk.Usage == nil {
					chunk.Usage = usage
				}
				if !yield(chunk, nil) {
					return
				}
			}
		}, nil
	})
}

func chunkFromEvent(event ai.StreamEvent, model string) (stream.Chunk, bool) {
	var chunk stream.Chunk

	switch event.Type {
	case ai.StreamEventContent:
		chunk = stream.Text(event.Content)
	case ai.StreamEventReasoning:
		chunk = stream.Thinking(event.Reasoning)
	case ai.StreamEventToolCall:
		if event.ToolCall == nil {
			return stream.Chunk{}, false
		}
		delta := event.ToolCall
		chunk = stream.ToolCallDelta(delta.Index, delta.ID, delta.Name, delta.Arguments)
	case ai.StreamEventToolResult:
		chunk = stream.ToolResult(event.ToolCallID, event.Content)
	case ai.StreamEventDone:
		chunk = stream.Done(event.FinishReason)
		chunk.Usage = event.Usage
	case ai.StreamEventError:
		chunk = stream.Failure(event.Error, "")
	default:
		return stream.Chunk{}, false
	}

	chunk.Model = model
	return chunk, true
}
