package observability

import "context"

type spanKey struct{}

type observerKey struct{}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

// ContextWithSpan returns a copy of ctx carrying span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, span)
}

// ObserverFromContext returns the provider stored in ctx, or nil.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return nil
	}
	provider, _ := ctx.Value(observerKey{}).(Provider)
	return provider
}

// ContextWithObserver returns a copy of ctx carrying provider.
func ContextWithObserver(ctx context.Context, provider Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerKey{}, provider)
}

// AddSpanEvent records an event on the span in ctx, if any.
func AddSpanEvent(ctx context.Context, name string, attrs ...Attribute) {
	if span := SpanFromContext(ctx); span != nil {
		span.AddEvent(name, attrs...)
	}
}
