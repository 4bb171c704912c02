package message

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/ai"
)

// Role is the author of a UIMessage. Tool results never get their own UI
// message; they are parts of an assistant message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType discriminates Part.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
	PartThinking   PartType = "thinking"
)

// Approval is attached to a tool-call part that needs user consent.
type Approval struct {
	ID            string `json:"id"`
	NeedsApproval bool   `json:"needsApproval"`
	Approved      *bool  `json:"approved,omitempty"` // nil until the user responds
}

// Part is one building block of a UIMessage. Which fields are used depends on Type:
//
//   - text, thinking: Content.
//   - tool-call: ID, Name, Arguments, State (a stream.ToolCallStatus), and
//     optionally Input, Approval and Output.
//   - tool-result: ToolCallID, Content, State (a stream.ToolResultStatus), Error.
type Part struct {
	Type    PartType `json:"type"`
	Content string   `json:"content,omitempty"`

	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Arguments string    `json:"arguments,omitempty"`
	Input     any       `json:"input,omitempty"` // Parsed preview of Arguments
	Approval  *Approval `json:"approval,omitempty"`
	Output    any       `json:"output,omitempty"` // Client tool output

	ToolCallID string `json:"toolCallId,omitempty"`
	State      string `json:"state,omitempty"`
	Error      string `json:"error,omitempty"`
}

// TextPart returns a text part.
func TextPart(content string) Part {
	return Part{Type: PartText, Content: content}
}

// ThinkingPart returns a thinking part.
func ThinkingPart(content string) Part {
	return Part{Type: PartThinking, Content: content}
}

// ToolCallPart returns a tool-call part.
func ToolCallPart(id, name, arguments string, status stream.ToolCallStatus) Part {
	return Part{Type: PartToolCall, ID: id, Name: name, Arguments: arguments, State: string(status)}
}

// ToolResultPart returns a tool-result part. errMessage is only kept when
// status is stream.ToolResultError.
func ToolResultPart(toolCallID, content string, status stream.ToolResultStatus, errMessage string) Part {
	part := Part{Type: PartToolResult, ToolCallID: toolCallID, Content: content, State: string(status)}
	if status == stream.ToolResultError {
		part.Error = errMessage
	}
	return part
}

// ToolCallStatus returns State as a tool call status.
func (p Part) ToolCallStatus() stream.ToolCallStatus {
	return stream.ToolCallStatus(p.State)
}

// ToolResultStatus returns State as a tool result status.
func (p Part) ToolResultStatus() stream.ToolResultStatus {
	return stream.ToolResultStatus(p.State)
}

// UIMessage is a conversation message as rendered by a chat UI.
type UIMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Text returns the concatenated content of all text parts.
func (m UIMessage) Text() string {
	var text string
	for _, part := range m.Parts {
		if part.Type == PartText {
			text += part.Content
		}
	}
	return text
}

// Clone returns a copy of m whose Parts slice can be mutated independently.
func (m UIMessage) Clone() UIMessage {
	out := m
	out.Parts = make([]Part, len(m.Parts))
	copy(out.Parts, m.Parts)
	for i := range out.Parts {
		if approval := out.Parts[i].Approval; approval != nil {
			copied := *approval
			out.Parts[i].Approval = &copied
		}
	}
	return out
}

// ToolCall returns the tool-call part with the given id, or nil.
func (m *UIMessage) ToolCall(id string) *Part {
	for i := range m.Parts {
		if m.Parts[i].Type == PartToolCall && m.Parts[i].ID == id {
			return &m.Parts[i]
		}
	}
	return nil
}

// ToolResult returns the tool-result part answering toolCallID, or nil.
func (m *UIMessage) ToolResult(toolCallID string) *Part {
	for i := range m.Parts {
		if m.Parts[i].Type == PartToolResult && m.Parts[i].ToolCallID == toolCallID {
			return &m.Parts[i]
		}
	}
	return nil
}

// SetToolResult records the result of a tool call: the tool-call part gets
// output, and a tool-result part is added or replaced. It reports whether a
// tool-call part with that id exists.
func (m *UIMessage) SetToolResult(toolCallID string, output any, content string, errMessage string) bool {
	call := m.ToolCall(toolCallID)
	if call == nil {
		return false
	}
	call.Output = output

	status := stream.ToolResultComplete
	if errMessage != "" {
		status = stream.ToolResultError
	}
	part := ToolResultPart(toolCallID, content, status, errMessage)
	if existing := m.ToolResult(toolCallID); existing != nil {
		*existing = part
		return true
	}
	m.Parts = append(m.Parts, part)
	return true
}

// RespondApproval records the user's decision on the approval with the given
// id. It reports whether a pending approval was found.
func (m *UIMessage) RespondApproval(approvalID string, approved bool) bool {
	for i := range m.Parts {
		part := &m.Parts[i]
		if part.Type != PartToolCall || part.Approval == nil || part.Approval.ID != approvalID {
			continue
		}
		part.Approval.Approved = &approved
		part.State = string(stream.ToolCallApprovalResponded)
		return true
	}
	return false
}

// PendingToolCalls returns the tool calls whose input is final but that
// have no output and no tool result yet, in part order.
func (m UIMessage) PendingToolCalls() []Part {
	var out []Part
	for _, part := range m.Parts {
		if part.Type != PartToolCall || part.ToolCallStatus() != stream.ToolCallInputComplete || part.Output != nil {
			continue
		}
		if m.ToolResult(part.ID) != nil {
			continue
		}
		out = append(out, part)
	}
	return out
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a message id of the form msg-<unix ms>-<7 random chars>.
func NewID() string {
	return fmt.Sprintf("msg-%d-%s", time.Now().UnixMilli(), gonanoid.MustGenerate(idAlphabet, 7))
}

// NewUserMessage returns a user message with a single text part.
func NewUserMessage(text string) UIMessage {
	return UIMessage{
		ID:        NewID(),
		Role:      RoleUser,
		Parts:     []Part{TextPart(text)},
		CreatedAt: time.Now(),
	}
}

func roleFromModel(role ai.MessageRole) Role {
	if role == ai.RoleTool {
		return RoleAssistant
	}
	return Role(role)
}
