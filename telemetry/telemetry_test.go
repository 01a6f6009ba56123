package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// newCaptureLogger returns a debug-level logger writing to buf.
func newCaptureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestLogSpanExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewLogSpanExporter(newCaptureLogger(&buf))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "embedding.Invoke",
		trace.WithAttributes(attribute.String("model", "text-embedding-ada-002")))
	span.End()

	out := buf.String()
	if !strings.Contains(out, "embedding.Invoke") {
		t.Errorf("output missing span name: %s", out)
	}
	if !strings.Contains(out, "trace_id=") {
		t.Errorf("output missing trace_id: %s", out)
	}
	if !strings.Contains(out, "text-embedding-ada-002") {
		t.Errorf("output missing attribute: %s", out)
	}
}

func TestLogSpanExporterErrorSpansWarn(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewLogSpanExporter(newCaptureLogger(&buf))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	defer tp.Shutdown(context.Background())

	_, span := tp.Tracer("test").Start(context.Background(), "embedding.Invoke")
	span.SetStatus(codes.Error, "rate limited")
	span.End()

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("error span should log at warn level: %s", out)
	}
	if !strings.Contains(out, "rate limited") {
		t.Errorf("output missing status description: %s", out)
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	tp := Init(newCaptureLogger(&buf))
	defer tp.Shutdown(context.Background())

	_, span := Tracer().Start(context.Background(), "provider.Validate")
	span.End()

	if !strings.Contains(buf.String(), "provider.Validate") {
		t.Errorf("global tracer did not route to log exporter: %s", buf.String())
	}
}

func TestContextWithRemoteParent(t *testing.T) {
	traceID := "4bf92f3577b34da6a3ce929d0e0e4736"
	spanID := "00f067aa0ba902b7"

	ctx := ContextWithRemoteParent(context.Background(), traceID, spanID)
	sc := trace.SpanContextFromContext(ctx)

	if !sc.IsValid() {
		t.Fatal("expected valid span context")
	}
	if sc.TraceID().String() != traceID {
		t.Errorf("trace id = %s", sc.TraceID())
	}
	if sc.SpanID().String() != spanID {
		t.Errorf("span id = %s", sc.SpanID())
	}
	if !sc.IsRemote() {
		t.Error("parent should be marked remote")
	}
}

func TestContextWithRemoteParentInvalidIDs(t *testing.T) {
	tests := []struct {
		name    string
		traceID string
		spanID  string
	}{
		{name: "empty", traceID: "", spanID: ""},
		{name: "short trace id", traceID: "abcd", spanID: "00f067aa0ba902b7"},
		{name: "not hex", traceID: strings.Repeat("zz", 16), spanID: "00f067aa0ba902b7"},
		{name: "short span id", traceID: "4bf92f3577b34da6a3ce929d0e0e4736", spanID: "ff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRemoteParent(context.Background(), tt.traceID, tt.spanID)
			if trace.SpanContextFromContext(ctx).IsValid() {
				t.Error("invalid IDs should leave the context without a span context")
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	// Global meter is a no-op unless a provider is installed; recording
	// must still be safe.
	ctx := context.Background()
	m.RecordValidation(ctx, "azure_openai", true)
	m.RecordInvocation(ctx, "azure_openai", "text-embedding-ada-002", 42)
	m.RecordInvokeError(ctx, "azure_openai", "rate_limit")
}
