// Package observability provides structured logging, metrics, and
// tracing for watchwire.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds feed context to a logger.
// Returns a new logger with feed and query_key fields.
func EnrichLogger(logger *slog.Logger, feedName, queryKey string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("feed", feedName),
		slog.String("query_key", queryKey),
	)
}

// LogLoadStart logs the start of a feed load.
func LogLoadStart(logger *slog.Logger, feedName string, sourceCount int) {
	if logger == nil {
		return
	}
	logger.Info("feed load starting",
		slog.String("feed", feedName),
		slog.Int("sources", sourceCount),
	)
}

// LogLoadComplete logs successful feed load completion.
func LogLoadComplete(logger *slog.Logger, feedName string, durationMs float64, itemCount int) {
	if logger == nil {
		return
	}
	logger.Info("feed load completed",
		slog.String("feed", feedName),
		slog.Float64("duration_ms", durationMs),
		slog.Int("items", itemCount),
	)
}

// LogLoadError logs feed load failure.
func LogLoadError(logger *slog.Logger, feedName string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("feed load failed",
		slog.String("feed", feedName),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPageFetch logs a single source page fetch.
func LogPageFetch(logger *slog.Logger, sourceName, cursor string, itemCount int) {
	if logger == nil {
		return
	}
	logger.Debug("page fetched",
		slog.String("source", sourceName),
		slog.String("cursor", cursor),
		slog.Int("items", itemCount),
	)
}

// LogDispatch logs a dispatched event.
func LogDispatch(logger *slog.Logger, kind string, handlerCount int) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("kind", kind),
		slog.Int("handlers", handlerCount),
	)
}

// LogDrop logs a dropped wire message (non-fatal).
func LogDrop(logger *slog.Logger, messageType, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("message dropped",
		slog.String("type", messageType),
		slog.String("reason", reason),
	)
}

// LogHandlerFault logs a handler error or panic (non-fatal).
func LogHandlerFault(logger *slog.Logger, kind string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("handler fault",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
