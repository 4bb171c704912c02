// Package middleware provides ready-made [connection.Middleware] values:
//
//   - [NewLoggingMiddleware] logs connection attempts and stream completion
//     through log/slog.
//   - [NewTimeoutMiddleware] bounds the whole lifetime of a turn.
//   - [NewRetryMiddleware] retries connection establishment with exponential
//     backoff. A stream that fails after its first chunk is never retried,
//     because the processor has already consumed part of the turn.
//
// Combine them with [connection.Chain]; the first middleware is the outermost:
//
//	adapter := connection.Chain(
//		connection.NewServerSentEvents(url),
//		middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//		middleware.NewRetryMiddleware(middleware.RetryConfig{}),
//		middleware.NewTimeoutMiddleware(2*time.Minute),
//	)
package middleware
