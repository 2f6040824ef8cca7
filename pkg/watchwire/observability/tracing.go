package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the watchwire tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("watchwire")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartLoadSpan starts a span for a feed load or refetch.
	StartLoadSpan(ctx context.Context, feedName, queryKey string) (context.Context, trace.Span)

	// StartFetchSpan starts a span for one source page fetch.
	// The fetch span should be a child of the load span.
	StartFetchSpan(ctx context.Context, sourceName string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartLoadSpan starts a span for a feed load.
func (m *otelSpanManager) StartLoadSpan(ctx context.Context, feedName, queryKey string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "watchwire.feed.load",
		trace.WithAttributes(
			attribute.String("feed.name", feedName),
			attribute.String("feed.query_key", queryKey),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartFetchSpan starts a span for one source page fetch.
func (m *otelSpanManager) StartFetchSpan(ctx context.Context, sourceName string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "watchwire.feed.fetch."+sourceName,
		trace.WithAttributes(
			attribute.String("source.name", sourceName),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
