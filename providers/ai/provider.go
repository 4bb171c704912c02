package ai

import "context"

// StreamProvider is implemented by in-process backends that can stream an
// assistant turn. Remote backends are reached through connection adapters
// instead.
type StreamProvider interface {
	// Name identifies the backend in logs and recordings.
	Name() string

	// StreamMessage starts a turn and returns its event stream. Cancelling ctx
	// must terminate the stream promptly.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}
