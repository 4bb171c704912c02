package stream

import "github.com/leofalp/chatstream/providers/ai"

// EventType names an entry of the processor's event log.
type EventType string

const (
	EventTextUpdate       EventType = "text-update"
	EventThinkingUpdate   EventType = "thinking-update"
	EventToolCallStart    EventType = "tool-call-start"
	EventToolCallDelta    EventType = "tool-call-delta"
	EventToolCallState    EventType = "tool-call-state"
	EventToolCallComplete EventType = "tool-call-complete"
	EventToolResult       EventType = "tool-result"
	EventApproval         EventType = "approval-requested"
	EventToolInput        EventType = "tool-input-available"
	EventError            EventType = "error"
	EventStreamEnd        EventType = "stream-end"
)

// Event is one externally visible state transition. Each handler
// notification has exactly one matching Event, appended in the same order.
type Event struct {
	Type       EventType        `json:"type"`
	Content    string           `json:"content,omitempty"`
	Index      int              `json:"index,omitempty"`
	ID         string           `json:"id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Arguments  string           `json:"arguments,omitempty"`
	Status     ToolCallStatus   `json:"status,omitempty"`
	Parsed     any              `json:"parsed,omitempty"`
	Result     ToolResultStatus `json:"result,omitempty"`
	ApprovalID string           `json:"approvalId,omitempty"`
	ToolCalls  []ai.ToolCall    `json:"toolCalls,omitempty"`
	Error      *ChunkError      `json:"error,omitempty"`
}
