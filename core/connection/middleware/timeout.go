package middleware

import (
	"context"
	"iter"
	"time"

	"github.com/leofalp/chatstream/core/connection"
	"github.com/leofalp/chatstream/core/stream"
)

// NewTimeoutMiddleware bounds a whole turn, from connecting to the last
// chunk, by timeout. The derived context is cancelled when the sequence
// ends, fails or is abandoned. A shorter deadline already on the caller's
// context still wins.
func NewTimeoutMiddleware(timeout time.Duration) connection.Middleware {
	return func(next connection.ConnectFunc) connection.ConnectFunc {
		return func(ctx context.Context, request connection.Request) (iter.Seq2[stream.Chunk, error], error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			chunks, err := next(ctx, request)
			if err != nil {
				cancel()
				return nil, err
			}

			return func(yield func(stream.Chunk, error) bool) {
				defer cancel()

				for chunk, err := range chunks {
					if !yield(chunk, err) || err != nil {
						return
					}
				}
			}, nil
		}
	}
}
