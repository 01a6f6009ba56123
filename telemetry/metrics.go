package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the SDK's instrument set: credential validations, provider
// invocations, invocation failures by error kind, and consumed tokens.
//
// Instruments come from the global MeterProvider, which is a no-op unless
// the embedding runtime installs one.
type Metrics struct {
	validations  metric.Int64Counter
	invocations  metric.Int64Counter
	invokeErrors metric.Int64Counter
	tokens       metric.Int64Counter
}

// NewMetrics creates the SDK instrument set on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(ServiceName)

	validations, err := meter.Int64Counter("sdk.credential.validations",
		metric.WithDescription("Credential form validations, by provider and outcome"))
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("sdk.provider.invocations",
		metric.WithDescription("Provider model invocations, by provider and model"))
	if err != nil {
		return nil, err
	}

	invokeErrors, err := meter.Int64Counter("sdk.provider.invoke_errors",
		metric.WithDescription("Failed provider invocations, by provider and error kind"))
	if err != nil {
		return nil, err
	}

	tokens, err := meter.Int64Counter("sdk.provider.tokens",
		metric.WithDescription("Tokens consumed by provider invocations"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		validations:  validations,
		invocations:  invocations,
		invokeErrors: invokeErrors,
		tokens:       tokens,
	}, nil
}

// RecordValidation counts one credential form validation for provider.
func (m *Metrics) RecordValidation(ctx context.Context, provider string, valid bool) {
	m.validations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("valid", valid),
	))
}

// RecordInvocation counts one provider invocation and its token usage.
func (m *Metrics) RecordInvocation(ctx context.Context, provider, model string, tokens int) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	)
	m.invocations.Add(ctx, 1, attrs)
	if tokens > 0 {
		m.tokens.Add(ctx, int64(tokens), attrs)
	}
}

// RecordInvokeError counts one failed invocation with its error kind.
func (m *Metrics) RecordInvokeError(ctx context.Context, provider, kind string) {
	m.invokeErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}
