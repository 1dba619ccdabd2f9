package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceHeaders is the flat key/value form of a span context carried on outgoing messages.
type TraceHeaders map[string]string

// Tracer starts spans as children of the span carried by ctx and serialises span
// contexts for asynchronous hops. Callers own the returned span and must End it.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	StartProducer(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	Inject(ctx context.Context) TraceHeaders
}
