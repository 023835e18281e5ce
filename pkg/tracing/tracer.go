// Package tracing provides OpenTelemetry tracer setup and the span sink
// consumed by the Vapi processing core.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	// TracerName identifies the instrumentation scope.
	TracerName = "moda-sdk"
	// TracerVersion is the instrumentation scope version.
	TracerVersion = "0.1.0"
)

// InitOptions configures tracer initialization.
type InitOptions struct {
	// APIKey is sent as a bearer token to the ingest endpoint.
	APIKey string
	// Insecure disables TLS for the exporter (local collectors).
	Insecure bool
	// DisableBatch exports spans synchronously. Debug use only.
	DisableBatch bool
}

// InitTracer configures the global tracer provider with an OTLP/HTTP exporter.
func InitTracer(ctx context.Context, serviceName, endpoint string, opts ...InitOptions) (*sdktrace.TracerProvider, error) {
	var o InitOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	expOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
	}
	if o.APIKey != "" {
		expOpts = append(expOpts, otlptracehttp.WithHeaders(map[string]string{
			"Authorization": "Bearer " + o.APIKey,
		}))
	}
	if o.Insecure {
		expOpts = append(expOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, expOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(TracerVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if o.DisableBatch {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	} else {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	return tp, nil
}

// Shutdown flushes and stops the tracer provider.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
