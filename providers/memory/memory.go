package memory

import (
	"context"

	"github.com/leofalp/chatstream/core/message"
)

// Provider stores the messages of one conversation in order.
type Provider interface {
	// AppendMessage adds message at the end of the history.
	AppendMessage(ctx context.Context, message message.UIMessage) error

	// UpsertMessage replaces the message with the same ID, or appends it.
	UpsertMessage(ctx context.Context, message message.UIMessage) error

	// AllMessages returns a copy of the history.
	AllMessages(ctx context.Context) ([]message.UIMessage, error)

	// Count returns the number of stored messages.
	Count(ctx context.Context) (int, error)

	// TruncateMessages keeps only the first n messages.
	TruncateMessages(ctx context.Context, n int) error

	// ClearMessages removes every message.
	ClearMessages(ctx context.Context) error
}
