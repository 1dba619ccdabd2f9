package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracer_StartProducerAndInject(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := NewWithProvider(tp, nil, "test")

	ctx, parent := tr.Start(context.Background(), "UC.Checkout")
	ctx, span := tr.StartProducer(ctx, "queue-order", attribute.String("message_bus.destination", "orders"))
	headers := tr.Inject(ctx)
	span.End()
	parent.End()

	require.Contains(t, headers, "traceparent")
	extracted := trace.SpanContextFromContext(
		propagation.TraceContext{}.Extract(context.Background(), propagation.MapCarrier(headers)),
	)
	assert.Equal(t, span.SpanContext().SpanID(), extracted.SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), extracted.TraceID())

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "queue-order", ended[0].Name())
	assert.Equal(t, trace.SpanKindProducer, ended[0].SpanKind())
	assert.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestTracer_InjectWithoutSpan(t *testing.T) {
	tr := NewWithProvider(sdktrace.NewTracerProvider(), nil, "test")
	assert.Empty(t, tr.Inject(context.Background()))
}
