// Package memory defines the Provider interface for conversation history.
// Implementations store [message.UIMessage] values for one chat session,
// including the assistant message that is replaced in place while it streams.
// Read methods return errors so that external stores can surface failures.
// The bundled implementation lives in
// [github.com/leofalp/chatstream/providers/memory/inmemory].
package memory
