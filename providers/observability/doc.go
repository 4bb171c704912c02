// Package observability defines the tracing, metrics and logging interfaces
// used across chatstream, together with the attribute and span name
// conventions in semconv.go.
//
// Components accept an optional [Provider]. A nil provider disables
// observation entirely; [Nop] can be used where a non-nil value is required.
// Spans travel through a [context.Context] via [ContextWithSpan] and
// [SpanFromContext].
package observability
