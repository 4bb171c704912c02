package ai

import (
	"iter"
	"strings"
)

// StreamEventType identifies the kind of delta carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventContent carries a text delta.
	StreamEventContent StreamEventType = "content"
	// StreamEventReasoning carries a reasoning/thinking delta.
	StreamEventReasoning StreamEventType = "reasoning"
	// StreamEventToolCall carries an incremental tool call delta.
	StreamEventToolCall StreamEventType = "tool_call"
	// StreamEventToolResult carries the output of a tool executed by the backend.
	StreamEventToolResult StreamEventType = "tool_result"
	// StreamEventUsage carries token usage metadata.
	StreamEventUsage StreamEventType = "usage"
	// StreamEventDone signals that the turn has finished normally.
	StreamEventDone StreamEventType = "done"
	// StreamEventError reports a backend side error. Transport failures are
	// delivered through the iterator's error value instead.
	StreamEventError StreamEventType = "error"
)

// ToolCallDelta is an incremental update to one streamed tool call. ID and
// Name are set on the first delta of an Index; later deltas usually carry
// only Arguments fragments.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamEvent is one delta produced by a StreamProvider.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`
	Reasoning    string          `json:"reasoning,omitempty"`
	ToolCall     *ToolCallDelta  `json:"toolCall,omitempty"`
	ToolCallID   string          `json:"toolCallId,omitempty"` // StreamEventToolResult
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finishReason,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// ChatStream wraps a provider iterator. Callers must either range over Iter
// (breaking early is fine) or call Collect, otherwise resources held by the
// provider, such as an HTTP body, are never released.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream creates a ChatStream from a raw iterator. A non-nil error
// yielded by the iterator terminates the stream.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// StreamOf returns a ChatStream replaying the given events in order.
func StreamOf(events ...StreamEvent) *ChatStream {
	return NewChatStream(func(yield func(StreamEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	})
}

// Iter returns the underlying iterator for range-over-func loops.
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect drains the stream into a ChatResponse. On a mid-stream error the
// partial response is returned together with the error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	accumulated := &ChatResponse{}
	var builders []toolCallBuilder

	for event, err := range stream.iterator {
		if err != nil {
			accumulated.ToolCalls = buildToolCalls(builders)
			return accumulated, err
		}

		switch event.Type {
		case StreamEventContent:
			accumulated.Content += event.Content
		case StreamEventReasoning:
			accumulated.Reasoning += event.Reasoning
		case StreamEventToolCall:
			if event.ToolCall != nil {
				builders = appendToolCallDelta(builders, event.ToolCall)
			}
		case StreamEventUsage:
			accumulated.Usage = event.Usage
		case StreamEventDone:
			accumulated.FinishReason = event.FinishReason
		}
	}

	accumulated.ToolCalls = buildToolCalls(builders)
	return accumulated, nil
}

type toolCallBuilder struct {
	seen      bool
	id        string
	name      string
	arguments strings.Builder
}

// appendToolCallDelta grows builders so that delta.Index is addressable; the
// indices emitted by providers are dense and start at zero.
func appendToolCallDelta(builders []toolCallBuilder, delta *ToolCallDelta) []toolCallBuilder {
	if delta.Index < 0 {
		return builders
	}
	for len(builders) <= delta.Index {
		builders = append(builders, toolCallBuilder{})
	}

	builder := &builders[delta.Index]
	builder.seen = true
	if delta.ID != "" {
		builder.id = delta.ID
	}
	if delta.Name != "" {
		builder.name = delta.Name
	}
	builder.arguments.WriteString(delta.Arguments)

	return builders
}

func buildToolCalls(builders []toolCallBuilder) []ToolCall {
	var calls []ToolCall
	for i := range builders {
		if !builders[i].seen {
			continue
		}
		calls = append(calls, ToolCall{
			ID:   builders[i].id,
			Type: ToolCallTypeFunction,
			Function: ToolCallFunction{
				Name:      builders[i].name,
				Arguments: builders[i].arguments.String(),
			},
		})
	}
	return calls
}
