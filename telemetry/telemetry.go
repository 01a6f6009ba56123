// Package telemetry configures OpenTelemetry tracing and metrics for the SDK.
//
// Init wires a TracerProvider with a log-backed span exporter so invocation
// and validation spans are visible without an external collector. Callers
// embedding the SDK in a runtime with its own OTLP pipeline can skip Init
// and register their own provider; SDK packages pick up whatever the global
// provider is.
package telemetry

import (
	"context"
	"encoding/hex"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is the default resource service name for SDK telemetry.
const ServiceName = "modelkit-sdk"

// Init creates a TracerProvider backed by a LogSpanExporter and installs it
// as the global provider.
//
// The provider uses a SimpleSpanProcessor for immediate export without
// batching, so spans appear in the log as soon as they complete. The caller
// owns shutdown:
//
//	tp := telemetry.Init(logger)
//	defer tp.Shutdown(context.Background())
func Init(logger *slog.Logger) *sdktrace.TracerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	exporter := NewLogSpanExporter(logger)
	processor := sdktrace.NewSimpleSpanProcessor(exporter)

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
		),
	)
	if err != nil {
		logger.Warn("failed to create resource, using default", "error", err)
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp
}

// Tracer returns a tracer with the SDK's standard name from the global
// provider.
func Tracer() trace.Tracer {
	return otel.Tracer(ServiceName)
}

// ContextWithRemoteParent creates a context carrying a parent SpanContext
// decoded from hex-encoded trace and span IDs.
//
// Workflow runners pass the job run's trace identifiers to provider
// invocations so invocation spans link into the run's trace. The original
// context is returned unchanged when the IDs cannot be decoded.
func ContextWithRemoteParent(ctx context.Context, traceID, parentSpanID string) context.Context {
	if traceID == "" || parentSpanID == "" {
		return ctx
	}

	traceIDBytes, err := hex.DecodeString(traceID)
	if err != nil || len(traceIDBytes) != 16 {
		return ctx
	}

	spanIDBytes, err := hex.DecodeString(parentSpanID)
	if err != nil || len(spanIDBytes) != 8 {
		return ctx
	}

	var tid trace.TraceID
	copy(tid[:], traceIDBytes)

	var sid trace.SpanID
	copy(sid[:], spanIDBytes)

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	return trace.ContextWithSpanContext(ctx, parent)
}
