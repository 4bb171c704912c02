package ai

import "encoding/json"

/* ##### WIRE INPUT ##### */

// ChatRequest is the payload sent to a backend to start one assistant turn.
type ChatRequest struct {
	Model        string            `json:"model,omitempty"`
	Messages     []Message         `json:"messages"`
	SystemPrompt string            `json:"systemPrompt,omitempty"`
	Tools        []ToolDescription `json:"tools,omitempty"`
	Data         map[string]any    `json:"data,omitempty"` // Extra body fields forwarded verbatim
}

// ToolDescription advertises a client or server tool to the model.
type ToolDescription struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"` // JSON schema of the input
}

// Message is the provider-agnostic conversation message (the "model message").
// It is derived deterministically from a finalized UI message and is the only
// shape re-submitted to a backend.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`  // For role=assistant requesting tools
	ToolCallID string     `json:"toolCallId,omitempty"` // For role=tool, links to the tool call being answered
	Name       string     `json:"name,omitempty"`
}

/* ##### WIRE OUTPUT ##### */

// Usage reports token accounting when the backend provides it.
type Usage struct {
	PromptTokens     int `json:"promptTokens,omitempty"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens,omitempty"`
}

// ChatResponse is the accumulated result of a single assistant turn.
type ChatResponse struct {
	ID           string     `json:"id,omitempty"`
	Model        string     `json:"model,omitempty"`
	Content      string     `json:"content"`
	Reasoning    string     `json:"reasoning,omitempty"`
	ToolCalls    []ToolCall `json:"toolCalls,omitempty"`
	FinishReason string     `json:"finishReason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// ToolCallTypeFunction is the only tool call type currently defined.
const ToolCallTypeFunction = "function"

// ToolCall is the canonical tool invocation shape, used both for streamed
// deltas (partial Function fields) and for the final accumulated call.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the function name and its JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"` // JSON string, possibly a fragment while streaming
}

// MessageRole is the author of a Message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Valid reports whether r is one of the known roles.
func (r MessageRole) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}
