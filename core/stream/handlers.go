package stream

import "github.com/leofalp/chatstream/providers/ai"

// Handlers are the callbacks a Processor notifies. Every field is optional.
// Callbacks run synchronously inside ProcessChunk and FinalizeStream, in
// chunk order. They are not isolated: a panicking handler unwinds through
// the caller of the processor.
type Handlers struct {
	// OnTextUpdate receives the full accumulated text, gated by the chunk strategy.
	OnTextUpdate func(content string)

	// OnThinkingUpdate receives the full accumulated thinking text.
	OnThinkingUpdate func(content string)

	OnToolCallStart    func(index int, id, name string)
	OnToolCallDelta    func(index int, arguments string)
	OnToolCallComplete func(index int, id, name, arguments string)

	// OnToolCallStateChange fires on every lifecycle step with the raw
	// arguments so far and their best-effort parse.
	OnToolCallStateChange func(index int, id, name string, status ToolCallStatus, arguments string, parsed any)

	// OnToolResultStateChange reports tool output; errMessage is set for ToolResultError.
	OnToolResultStateChange func(toolCallID, content string, status ToolResultStatus, errMessage string)

	OnApprovalRequested  func(toolCallID, toolName string, input any, approvalID string)
	OnToolInputAvailable func(toolCallID, toolName string, input any)

	// OnStreamEnd receives the final text and the tool calls, nil when there are none.
	OnStreamEnd func(content string, toolCalls []ai.ToolCall)

	OnError func(err *ChunkError)
}

// Merge returns handlers that call h first and then other, for every callback.
func (h Handlers) Merge(other Handlers) Handlers {
	return Handlers{
		OnTextUpdate:            chain1(h.OnTextUpdate, other.OnTextUpdate),
		OnThinkingUpdate:        chain1(h.OnThinkingUpdate, other.OnThinkingUpdate),
		OnToolCallStart:         chain3(h.OnToolCallStart, other.OnToolCallStart),
		OnToolCallDelta:         chain2(h.OnToolCallDelta, other.OnToolCallDelta),
		OnToolCallComplete:      chain4(h.OnToolCallComplete, other.OnToolCallComplete),
		OnToolCallStateChange:   chainStateChange(h.OnToolCallStateChange, other.OnToolCallStateChange),
		OnToolResultStateChange: chain4(h.OnToolResultStateChange, other.OnToolResultStateChange),
		OnApprovalRequested:     chain4(h.OnApprovalRequested, other.OnApprovalRequested),
		OnToolInputAvailable:    chain3(h.OnToolInputAvailable, other.OnToolInputAvailable),
		OnStreamEnd:             chain2(h.OnStreamEnd, other.OnStreamEnd),
		OnError:                 chain1(h.OnError, other.OnError),
	}
}

func chain1[A any](first, second func(A)) func(A) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(a A) {
		first(a)
		second(a)
	}
}

func chain2[A, B any](first, second func(A, B)) func(A, B) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(a A, b B) {
		first(a, b)
		second(a, b)
	}
}

func chain3[A, B, C any](first, second func(A, B, C)) func(A, B, C) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(a A, b B, c C) {
		first(a, b, c)
		second(a, b, c)
	}
}

func chain4[A, B, C, D any](first, second func(A, B, C, D)) func(A, B, C, D) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(a A, b B, c C, d D) {
		first(a, b, c, d)
		second(a, b, c, d)
	}
}

func chainStateChange(first, second func(int, string, string, ToolCallStatus, string, any)) func(int, string, string, ToolCallStatus, string, any) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(index int, id, name string, status ToolCallStatus, arguments string, parsed any) {
		first(index, id, name, status, arguments, parsed)
		second(index, id, name, status, arguments, parsed)
	}
}
