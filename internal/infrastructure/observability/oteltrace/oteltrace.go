package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct {
	t    trace.Tracer
	prop propagation.TextMapPropagator
}

// New returns a Tracer backed by the global tracer provider and propagator.
// Install them first (see telemetry.Setup), otherwise spans are non-recording.
func New(name string) observability.Tracer {
	if name == "" {
		name = "payment"
	}
	return NewWithProvider(otel.GetTracerProvider(), otel.GetTextMapPropagator(), name)
}

// NewWithProvider binds the tracer to an explicit provider and propagator.
func NewWithProvider(tp trace.TracerProvider, prop propagation.TextMapPropagator, name string) observability.Tracer {
	if prop == nil {
		prop = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}
	return &tracer{t: tp.Tracer(name), prop: prop}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (t *tracer) StartProducer(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attrs...),
	)
}

func (t *tracer) Inject(ctx context.Context) observability.TraceHeaders {
	carrier := propagation.MapCarrier{}
	t.prop.Inject(ctx, carrier)
	return observability.TraceHeaders(carrier)
}
