package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/hookfreight/hookfreight"

// Tracer provides OpenTelemetry tracing for the capture-and-delivery pipeline.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new tracer.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(tracerName)}
}

// StartCaptureSpan starts a span for one ingest request.
func (t *Tracer) StartCaptureSpan(ctx context.Context, endpointID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "hookfreight.capture",
		trace.WithAttributes(attribute.String("hookfreight.endpoint_id", endpointID)),
	)
}

// StartDeliverySpan starts a span for one delivery attempt.
func (t *Tracer) StartDeliverySpan(ctx context.Context, eventID, endpointID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "hookfreight.delivery",
		trace.WithAttributes(
			attribute.String("hookfreight.event_id", eventID),
			attribute.String("hookfreight.endpoint_id", endpointID),
		),
	)
}

// EndDeliverySpan ends a delivery span with the attempt's result attributes.
func (t *Tracer) EndDeliverySpan(span trace.Span, statusCode, durationMs int, errMsg string) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("hookfreight.duration_ms", durationMs),
	)
	if errMsg != "" {
		span.SetAttributes(attribute.String("hookfreight.error", errMsg))
	}
	span.End()
}
