package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records watchwire metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records one dispatched event with handler latency.
	RecordDispatch(ctx context.Context, kind string, duration time.Duration, faults int)

	// RecordDrop records a dropped wire message.
	RecordDrop(ctx context.Context, reason string)

	// RecordPageFetch records a source page fetch with its duration
	// and error status.
	RecordPageFetch(ctx context.Context, source string, duration time.Duration, err error)

	// RecordMergeSize records the merged view size after a recompute.
	RecordMergeSize(ctx context.Context, feedName string, size int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches    metric.Int64Counter
	dispatchMs    metric.Float64Histogram
	handlerFaults metric.Int64Counter
	drops         metric.Int64Counter
	pageFetches   metric.Int64Counter
	fetchMs       metric.Float64Histogram
	fetchErrors   metric.Int64Counter
	mergeSize     metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the default OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("watchwire")

	dispatches, err := meter.Int64Counter("watchwire.dispatch.events",
		metric.WithDescription("Number of events dispatched"),
	)
	if err != nil {
		return nil, err
	}

	dispatchMs, err := meter.Float64Histogram("watchwire.dispatch.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlerFaults, err := meter.Int64Counter("watchwire.dispatch.handler_faults",
		metric.WithDescription("Number of handler errors and panics"),
	)
	if err != nil {
		return nil, err
	}

	drops, err := meter.Int64Counter("watchwire.dispatch.drops",
		metric.WithDescription("Number of dropped wire messages"),
	)
	if err != nil {
		return nil, err
	}

	pageFetches, err := meter.Int64Counter("watchwire.feed.page_fetches",
		metric.WithDescription("Number of source page fetches"),
	)
	if err != nil {
		return nil, err
	}

	fetchMs, err := meter.Float64Histogram("watchwire.feed.fetch_latency_ms",
		metric.WithDescription("Page fetch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter("watchwire.feed.fetch_errors",
		metric.WithDescription("Number of failed page fetches"),
	)
	if err != nil {
		return nil, err
	}

	mergeSize, err := meter.Int64Histogram("watchwire.feed.merge_size",
		metric.WithDescription("Merged view size after recompute"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:    dispatches,
		dispatchMs:    dispatchMs,
		handlerFaults: handlerFaults,
		drops:         drops,
		pageFetches:   pageFetches,
		fetchMs:       fetchMs,
		fetchErrors:   fetchErrors,
		mergeSize:     mergeSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records one dispatched event.
func (m *otelMetrics) RecordDispatch(ctx context.Context, kind string, duration time.Duration, faults int) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchMs.Record(ctx, float64(duration.Milliseconds()), attrs)
	if faults > 0 {
		m.handlerFaults.Add(ctx, int64(faults), attrs)
	}
}

// RecordDrop records a dropped wire message.
func (m *otelMetrics) RecordDrop(ctx context.Context, reason string) {
	m.drops.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordPageFetch records a source page fetch.
func (m *otelMetrics) RecordPageFetch(ctx context.Context, source string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.pageFetches.Add(ctx, 1, attrs)
	m.fetchMs.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, attrs)
	}
}

// RecordMergeSize records the merged view size.
func (m *otelMetrics) RecordMergeSize(ctx context.Context, feedName string, size int) {
	m.mergeSize.Record(ctx, int64(size),
		metric.WithAttributes(attribute.String("feed", feedName)))
}
