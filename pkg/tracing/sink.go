package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span is a handle on an open span. Attribute values are limited to strings,
// bools, ints, and floats; everything else is stringified.
type Span interface {
	SetAttribute(key string, value any)
	SetSuccess()
	End()
}

// Sink creates spans. The returned context carries the new span so that
// subsequently started spans attach as its children.
type Sink interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// OTelSink is a Sink backed by the global OpenTelemetry tracer provider.
type OTelSink struct {
	tracer trace.Tracer
}

// NewOTelSink creates a sink using the moda instrumentation scope.
func NewOTelSink() *OTelSink {
	return &OTelSink{
		tracer: otel.Tracer(TracerName, trace.WithInstrumentationVersion(TracerVersion)),
	}
}

// StartSpan opens an internal span under the parent recorded in ctx.
func (s *OTelSink) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(Attribute(key, value))
}

func (s *otelSpan) SetSuccess() {
	s.span.SetStatus(codes.Ok, "")
}

func (s *otelSpan) End() {
	s.span.End()
}

// Attribute converts a key and arbitrary value into an OTel attribute.
func Attribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case float32:
		return attribute.Float64(key, float64(v))
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
