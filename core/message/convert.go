package message

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/ai"
)

// ErrUnsupportedMessage is returned by Normalize for values that are neither
// a UIMessage nor an ai.Message.
var ErrUnsupportedMessage = errors.New("message: unsupported message type")

// ToModelMessages converts one UI message into the messages re-submitted to
// a backend. System messages produce nothing, thinking parts are dropped, and
// every finished tool result becomes its own role=tool message after the
// main message.
func ToModelMessages(m UIMessage) []ai.Message {
	if m.Role == RoleSystem {
		return nil
	}

	var (
		text        strings.Builder
		toolCalls   []ai.ToolCall
		hasToolCall bool
		results     []ai.Message
	)

	for _, part := range m.Parts {
		switch part.Type {
		case PartText:
			text.WriteString(part.Content)
		case PartToolCall:
			hasToolCall = true
			if !resubmittable(part) {
				continue
			}
			toolCalls = append(toolCalls, ai.ToolCall{
				ID:       part.ID,
				Type:     ai.ToolCallTypeFunction,
				Function: ai.ToolCallFunction{Name: part.Name, Arguments: part.Arguments},
			})
		case PartToolResult:
			status := part.ToolResultStatus()
			if status != stream.ToolResultComplete && status != stream.ToolResultError {
				continue
			}
			results = append(results, ai.Message{Role: ai.RoleTool, Content: part.Content, ToolCallID: part.ToolCallID})
		}
	}

	content := text.String()
	out := make([]ai.Message, 0, 1+len(results))

	// An assistant message whose tool calls are all still streaming and that
	// has no text is not sent at all.
	if m.Role != RoleAssistant || content != "" || !hasToolCall || len(toolCalls) > 0 {
		out = append(out, ai.Message{Role: ai.MessageRole(m.Role), Content: content, ToolCalls: toolCalls})
	}

	return append(out, results...)
}

// ToModelMessagesAll converts a whole conversation, preserving order.
func ToModelMessagesAll(messages []UIMessage) []ai.Message {
	var out []ai.Message
	for _, m := range messages {
		out = append(out, ToModelMessages(m)...)
	}
	return out
}

// resubmittable reports whether a tool call can be sent back to the model.
func resubmittable(part Part) bool {
	switch part.ToolCallStatus() {
	case stream.ToolCallInputComplete, stream.ToolCallApprovalResponded:
		return true
	}
	return part.Output != nil
}

// FromModelMessage converts a model message into a UI message with the given
// id (a new id when empty). Tool calls become input-complete tool-call parts;
// a role=tool message becomes an assistant message holding one tool-result part.
func FromModelMessage(m ai.Message, id string) UIMessage {
	if id == "" {
		id = NewID()
	}

	var parts []Part
	if m.Content != "" && m.Role != ai.RoleTool {
		parts = append(parts, TextPart(m.Content))
	}
	for _, call := range m.ToolCalls {
		parts = append(parts, ToolCallPart(call.ID, call.Function.Name, call.Function.Arguments, stream.ToolCallInputComplete))
	}
	if m.Role == ai.RoleTool && m.ToolCallID != "" {
		parts = append(parts, ToolResultPart(m.ToolCallID, m.Content, stream.ToolResultComplete, ""))
	}
	if parts == nil {
		parts = []Part{}
	}

	return UIMessage{ID: id, Role: roleFromModel(m.Role), Parts: parts}
}

// FromModelMessages converts a model conversation into UI messages. Tool
// messages are folded into the assistant message directly before them, or
// become a standalone assistant message when there is none.
func FromModelMessages(messages []ai.Message) []UIMessage {
	out := make([]UIMessage, 0, len(messages))
	assistant := -1

	for _, m := range messages {
		if m.Role == ai.RoleTool && assistant >= 0 {
			out[assistant].Parts = append(out[assistant].Parts, ToolResultPart(m.ToolCallID, m.Content, stream.ToolResultComplete, ""))
			continue
		}

		out = append(out, FromModelMessage(m, ""))
		switch m.Role {
		case ai.RoleAssistant:
			assistant = len(out) - 1
		case ai.RoleTool:
			// a standalone tool message does not collect later results
		default:
			assistant = -1
		}
	}

	return out
}

// Normalize turns a UIMessage or an ai.Message (or a pointer to either) into
// a UIMessage with an id and a creation time.
func Normalize(v any) (UIMessage, error) {
	var m UIMessage

	switch msg := v.(type) {
	case UIMessage:
		m = msg.Clone()
	case *UIMessage:
		if msg == nil {
			return UIMessage{}, fmt.Errorf("%w: nil *UIMessage", ErrUnsupportedMessage)
		}
		m = msg.Clone()
	case ai.Message:
		m = FromModelMessage(msg, "")
	case *ai.Message:
		if msg == nil {
			return UIMessage{}, fmt.Errorf("%w: nil *ai.Message", ErrUnsupportedMessage)
		}
		m = FromModelMessage(*msg, "")
	default:
		return UIMessage{}, fmt.Errorf("%w: %T", ErrUnsupportedMessage, v)
	}

	if m.ID == "" {
		m.ID = NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Parts == nil {
		m.Parts = []Part{}
	}
	return m, nil
}
