package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordDispatch does nothing.
func (NoopMetrics) RecordDispatch(_ context.Context, _ string, _ time.Duration, _ int) {}

// RecordDrop does nothing.
func (NoopMetrics) RecordDrop(_ context.Context, _ string) {}

// RecordPageFetch does nothing.
func (NoopMetrics) RecordPageFetch(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordMergeSize does nothing.
func (NoopMetrics) RecordMergeSize(_ context.Context, _ string, _ int) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartLoadSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartLoadSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartFetchSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartFetchSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
