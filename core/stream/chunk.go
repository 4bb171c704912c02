package stream

import (
	"encoding/json"

	"github.com/leofalp/chatstream/providers/ai"
)

// ChunkType discriminates the Chunk union.
type ChunkType string

const (
	ChunkText               ChunkType = "text"
	ChunkToolCallDelta      ChunkType = "tool-call-delta"
	ChunkDone               ChunkType = "done"
	ChunkThinking           ChunkType = "thinking"
	ChunkToolResult         ChunkType = "tool-result"
	ChunkError              ChunkType = "error"
	ChunkApprovalRequested  ChunkType = "approval-requested"
	ChunkToolInputAvailable ChunkType = "tool-input-available"
	ChunkToolCallEnd        ChunkType = "tool-call-end"
)

// Legacy chunk types understood by DefaultParser.
const (
	legacyContent    ChunkType = "content"
	legacyToolCall   ChunkType = "tool_call"
	legacyToolResult ChunkType = "tool_result"
)

// Chunk is one normalized stream event. Which fields are meaningful depends
// on Type:
//
//   - text: Content is the fragment to append. When Delta is set it is used
//     as the fragment instead.
//   - tool-call-delta: ToolCallIndex and a partial ToolCall whose
//     Function.Arguments is a fragment of a JSON document. A delta that also
//     sets ToolCallID is keyed: switching index does not complete the other
//     calls, a tool-call-end does.
//   - tool-call-end: ToolCallID completes that call. Input optionally
//     carries the final arguments, Result the output of a server tool.
//   - thinking: Delta is appended; otherwise Content is merged as full text.
//   - tool-result: ToolCallID and Content; Error marks a failed tool.
//   - approval-requested, tool-input-available: ToolCallID, ToolName, Input.
//   - done: optional FinishReason. Pending tool calls are completed.
//   - error: Error.
//
// Index, Name, Value and the legacy and AG-UI types only appear before a
// StreamParser has run.
type Chunk struct {
	Type          ChunkType       `json:"type"`
	Content       string          `json:"content,omitempty"`
	Delta         string          `json:"delta,omitempty"`
	ToolCallIndex int             `json:"toolCallIndex,omitempty"`
	Index         *int            `json:"index,omitempty"`
	ToolCall      *ai.ToolCall    `json:"toolCall,omitempty"`
	ToolCallID    string          `json:"toolCallId,omitempty"`
	ToolName      string          `json:"toolName,omitempty"`
	Input         json.RawMessage `json:"input,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Approval      *Approval       `json:"approval,omitempty"`
	FinishReason  string          `json:"finishReason,omitempty"`
	Error         *ChunkError     `json:"error,omitempty"`
	Model         string          `json:"model,omitempty"`
	Usage         *ai.Usage       `json:"usage,omitempty"`
	Name          string          `json:"name,omitempty"`
	Value         json.RawMessage `json:"value,omitempty"`
}

// Approval carries the approval id of a tool call that needs user consent.
type Approval struct {
	ID string `json:"id"`
}

// ChunkError is the payload of an error chunk or a failed tool result.
type ChunkError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *ChunkError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Text returns a text chunk.
func Text(content string) Chunk {
	return Chunk{Type: ChunkText, Content: content}
}

// ToolCallDelta returns a tool-call-delta chunk.
func ToolCallDelta(index int, id, name, arguments string) Chunk {
	return Chunk{
		Type:          ChunkToolCallDelta,
		ToolCallIndex: index,
		ToolCall: &ai.ToolCall{
			ID:       id,
			Type:     ai.ToolCallTypeFunction,
			Function: ai.ToolCallFunction{Name: name, Arguments: arguments},
		},
	}
}

// ToolCallEnd returns a tool-call-end chunk without input or result.
func ToolCallEnd(toolCallID, toolName string) Chunk {
	return Chunk{Type: ChunkToolCallEnd, ToolCallID: toolCallID, ToolName: toolName}
}

// Done returns a done chunk.
func Done(finishReason string) Chunk {
	return Chunk{Type: ChunkDone, FinishReason: finishReason}
}

// Thinking returns a thinking chunk carrying a delta.
func Thinking(delta string) Chunk {
	return Chunk{Type: ChunkThinking, Delta: delta}
}

// ToolResult returns a tool-result chunk.
func ToolResult(toolCallID, content string) Chunk {
	return Chunk{Type: ChunkToolResult, ToolCallID: toolCallID, Content: content}
}

// Failure returns an error chunk.
func Failure(message, code string) Chunk {
	return Chunk{Type: ChunkError, Error: &ChunkError{Message: message, Code: code}}
}

// textFragment returns the text that a text chunk appends.
func (c Chunk) textFragment() string {
	if c.Delta != "" {
		return c.Delta
	}
	return c.Content
}
