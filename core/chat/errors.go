package chat

import "errors"

var (
	// ErrBusy is returned when a turn is started while another is streaming.
	ErrBusy = errors.New("chat: a response is already streaming")

	// ErrNoUserMessage is returned by Reload when the history has no user message.
	ErrNoUserMessage = errors.New("chat: no user message to reload")

	// ErrToolCallNotFound is returned when a tool result or approval names
	// an unknown tool call.
	ErrToolCallNotFound = errors.New("chat: tool call not found")

	errStopped = errors.New("chat: stopped")
)
