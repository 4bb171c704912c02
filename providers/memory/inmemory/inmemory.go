package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/chatstream/core/message"
	"github.com/leofalp/chatstream/providers/memory"
	"github.com/leofalp/chatstream/providers/observability"
)

// ArrayMemory is a concurrency-safe in-memory message store.
type ArrayMemory struct {
	mu       sync.RWMutex
	messages []message.UIMessage
}

// New returns an empty ArrayMemory, optionally seeded with initial messages.
func New(initial ...message.UIMessage) *ArrayMemory {
	m := &ArrayMemory{messages: make([]message.UIMessage, 0, len(initial))}
	for _, msg := range initial {
		m.messages = append(m.messages, msg.Clone())
	}
	return m
}

var _ memory.Provider = (*ArrayMemory)(nil)

// AppendMessage stores a copy of msg. When a span is present in ctx an append
// event and the running total are recorded on it.
func (m *ArrayMemory) AppendMessage(ctx context.Context, msg message.UIMessage) error {
	m.mu.Lock()
	m.messages = append(m.messages, msg.Clone())
	total := len(m.messages)
	m.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemoryMessageRole, string(msg.Role)),
			observability.String(observability.AttrChatMessageID, msg.ID),
		)
		span.SetAttributes(observability.Int(observability.AttrMemoryTotalMessages, total))
	}
	return nil
}

// UpsertMessage replaces the last message with msg.ID, or appends msg.
func (m *ArrayMemory) UpsertMessage(ctx context.Context, msg message.UIMessage) error {
	m.mu.Lock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].ID == msg.ID {
			m.messages[i] = msg.Clone()
			m.mu.Unlock()
			return nil
		}
	}
	m.mu.Unlock()

	return m.AppendMessage(ctx, msg)
}

// AllMessages returns copies of all messages; the result is never nil.
func (m *ArrayMemory) AllMessages(_ context.Context) ([]message.UIMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]message.UIMessage, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.Clone()
	}
	return out, nil
}

// Count returns the number of stored messages.
func (m *ArrayMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	n := len(m.messages)
	m.mu.RUnlock()
	return n, nil
}

// LastMessages returns up to the last n messages. n <= 0 yields an empty slice.
func (m *ArrayMemory) LastMessages(_ context.Context, n int) ([]message.UIMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 {
		return []message.UIMessage{}, nil
	}
	if n > len(m.messages) {
		n = len(m.messages)
	}
	out := make([]message.UIMessage, 0, n)
	for _, msg := range m.messages[len(m.messages)-n:] {
		out = append(out, msg.Clone())
	}
	return out, nil
}

// TruncateMessages keeps the first n messages. A negative n clears the store;
// n beyond the length is a no-op.
func (m *ArrayMemory) TruncateMessages(ctx context.Context, n int) error {
	if n < 0 {
		n = 0
	}

	m.mu.Lock()
	if n < len(m.messages) {
		clear(m.messages[n:])
		m.messages = m.messages[:n]
	}
	total := len(m.messages)
	m.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryTruncate, observability.Int(observability.AttrMemoryTotalMessages, total))
	}
	return nil
}

// ClearMessages removes all messages, keeping the slice capacity.
func (m *ArrayMemory) ClearMessages(ctx context.Context) error {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear)
	}

	m.mu.Lock()
	clear(m.messages)
	m.messages = m.messages[:0]
	m.mu.Unlock()
	return nil
}

// FilterByRole returns copies of the messages with the given role.
func (m *ArrayMemory) FilterByRole(_ context.Context, role message.Role) ([]message.UIMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []message.UIMessage{}
	for _, msg := range m.messages {
		if msg.Role == role {
			out = append(out, msg.Clone())
		}
	}
	return out, nil
}
