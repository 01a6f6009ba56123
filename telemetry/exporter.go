package telemetry

import (
	"context"
	"encoding/hex"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogSpanExporter implements the OpenTelemetry SpanExporter interface and
// writes completed spans to a structured logger. It gives runtimes span
// visibility without standing up a collector.
//
// Export never fails: logging errors cannot break the trace pipeline.
type LogSpanExporter struct {
	logger *slog.Logger
}

// NewLogSpanExporter creates a LogSpanExporter writing to logger.
// If logger is nil, slog.Default() is used.
func NewLogSpanExporter(logger *slog.Logger) *LogSpanExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpanExporter{logger: logger}
}

// ExportSpans logs a batch of completed spans at debug level, or at warn
// level for spans that ended in error.
func (e *LogSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		sc := span.SpanContext()
		traceID := sc.TraceID()
		spanID := sc.SpanID()

		attrs := []any{
			"trace_id", hex.EncodeToString(traceID[:]),
			"span_id", hex.EncodeToString(spanID[:]),
			"duration", span.EndTime().Sub(span.StartTime()),
		}
		for _, attr := range span.Attributes() {
			attrs = append(attrs, string(attr.Key), attr.Value.Emit())
		}

		if span.Status().Code == codes.Error {
			attrs = append(attrs, "status", span.Status().Description)
			e.logger.Warn("span "+span.Name(), attrs...)
			continue
		}
		e.logger.Debug("span "+span.Name(), attrs...)
	}
	return nil
}

// Shutdown implements SpanExporter. The logger's lifecycle belongs to the
// caller, so this is a no-op.
func (e *LogSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}
