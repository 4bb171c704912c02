package message

import (
	"time"

	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/ai"
)

// Builder assembles the assistant UIMessage of one turn from processor
// callbacks. Parts keep their first-appearance order and are updated in
// place; text that follows a non-text part opens a new text part.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	message  UIMessage
	onUpdate func(UIMessage)

	// offset into the accumulated turn text where the current text part starts
	segmentStart int
	text         string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithID sets the message id. Defaults to NewID().
func WithID(id string) BuilderOption {
	return func(b *Builder) {
		if id != "" {
			b.message.ID = id
		}
	}
}

// WithOnUpdate registers a callback invoked with a copy of the message after
// every change.
func WithOnUpdate(fn func(UIMessage)) BuilderOption {
	return func(b *Builder) {
		b.onUpdate = fn
	}
}

// WithCreatedAt sets the creation time. Defaults to time.Now().
func WithCreatedAt(t time.Time) BuilderOption {
	return func(b *Builder) {
		b.message.CreatedAt = t
	}
}

// NewBuilder returns a Builder holding an empty assistant message.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		message: UIMessage{
			ID:        NewID(),
			Role:      RoleAssistant,
			Parts:     []Part{},
			CreatedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Message returns a copy of the message built so far.
func (b *Builder) Message() UIMessage {
	return b.message.Clone()
}

// Handlers returns processor callbacks that update the builder, followed by
// each of extra.
func (b *Builder) Handlers(extra ...stream.Handlers) stream.Handlers {
	h := stream.Handlers{
		OnTextUpdate:            b.TextUpdate,
		OnThinkingUpdate:        b.ThinkingUpdate,
		OnToolCallStart:         b.ToolCallStart,
		OnToolCallStateChange:   b.ToolCallStateChange,
		OnToolCallComplete:      b.ToolCallComplete,
		OnToolResultStateChange: b.ToolResultStateChange,
		OnApprovalRequested:     b.ApprovalRequested,
		OnStreamEnd:             b.StreamEnd,
	}
	for _, other := range extra {
		h = h.Merge(other)
	}
	return h
}

// TextUpdate receives the full accumulated text of the turn.
func (b *Builder) TextUpdate(content string) {
	b.text = content
	if b.segmentStart > len(content) {
		b.segmentStart = len(content)
	}
	segment := content[b.segmentStart:]

	if last := b.lastPart(); last != nil && last.Type == PartText {
		last.Content = segment
	} else {
		if segment == "" {
			return
		}
		b.message.Parts = append(b.message.Parts, TextPart(segment))
	}
	b.changed()
}

// ThinkingUpdate receives the full accumulated thinking text.
func (b *Builder) ThinkingUpdate(content string) {
	for i := range b.message.Parts {
		if b.message.Parts[i].Type == PartThinking {
			b.message.Parts[i].Content = content
			b.changed()
			return
		}
	}
	b.appendPart(ThinkingPart(content))
}

// ToolCallStart adds a tool-call part awaiting input.
func (b *Builder) ToolCallStart(_ int, id, name string) {
	if b.message.ToolCall(id) != nil {
		return
	}
	b.appendPart(ToolCallPart(id, name, "", stream.ToolCallAwaitingInput))
}

// ToolCallStateChange updates the tool-call part with the given id, adding
// it when missing.
func (b *Builder) ToolCallStateChange(_ int, id, name string, status stream.ToolCallStatus, arguments string, parsed any) {
	part := b.message.ToolCall(id)
	if part == nil {
		b.appendPart(ToolCallPart(id, name, "", status))
		part = b.message.ToolCall(id)
	}

	part.State = string(status)
	if arguments != "" {
		part.Arguments = arguments
	}
	if parsed != nil {
		part.Input = parsed
	}
	b.changed()
}

// ToolCallComplete marks the arguments of a tool call final.
func (b *Builder) ToolCallComplete(_ int, id, name, arguments string) {
	part := b.message.ToolCall(id)
	if part == nil {
		b.appendPart(ToolCallPart(id, name, arguments, stream.ToolCallInputComplete))
		return
	}
	part.Arguments = arguments
	if !part.ToolCallStatus().Final() {
		part.State = string(stream.ToolCallInputComplete)
	}
	b.changed()
}

// ToolResultStateChange adds or updates the tool-result part of a call.
func (b *Builder) ToolResultStateChange(toolCallID, content string, status stream.ToolResultStatus, errMessage string) {
	part := ToolResultPart(toolCallID, content, status, errMessage)
	if existing := b.message.ToolResult(toolCallID); existing != nil {
		*existing = part
		b.changed()
		return
	}
	b.appendPart(part)
}

// ApprovalRequested attaches approval metadata to a tool call.
func (b *Builder) ApprovalRequested(toolCallID, toolName string, input any, approvalID string) {
	part := b.message.ToolCall(toolCallID)
	if part == nil {
		b.appendPart(ToolCallPart(toolCallID, toolName, "", stream.ToolCallApprovalRequested))
		part = b.message.ToolCall(toolCallID)
	}

	part.State = string(stream.ToolCallApprovalRequested)
	part.Approval = &Approval{ID: approvalID, NeedsApproval: true}
	if input != nil {
		part.Input = input
	}
	b.changed()
}

// StreamEnd makes sure the final text is reflected in the message.
func (b *Builder) StreamEnd(content string, _ []ai.ToolCall) {
	if content != b.text {
		b.TextUpdate(content)
	}
}

func (b *Builder) lastPart() *Part {
	if len(b.message.Parts) == 0 {
		return nil
	}
	return &b.message.Parts[len(b.message.Parts)-1]
}

func (b *Builder) appendPart(part Part) {
	if part.Type != PartText {
		b.segmentStart = len(b.text)
	}
	b.message.Parts = append(b.message.Parts, part)
	b.changed()
}

func (b *Builder) changed() {
	if b.onUpdate != nil {
		b.onUpdate(b.message.Clone())
	}
}
