package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "keyword-engine/pipeline"

// InitTracerProvider initializes the global trace provider.
// No exporter is configured here; deployments attach one (e.g. OTLP) when
// wiring the provider for production.
func InitTracerProvider(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

// StartStageSpan opens a span covering one stage's batch run. Callers must
// End the returned span.
func StartStageSpan(ctx context.Context, stage string, batchSize int) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(tracerName)
	return tracer.Start(ctx, "pipeline."+stage,
		trace.WithAttributes(
			attribute.String("pipeline.stage", stage),
			attribute.Int("pipeline.batch_size", batchSize),
		),
	)
}

// EndStageSpan records final counts on the span before closing it.
func EndStageSpan(span trace.Span, accepted, rejected, errored int) {
	span.SetAttributes(
		attribute.Int("pipeline.accepted", accepted),
		attribute.Int("pipeline.rejected", rejected),
		attribute.Int("pipeline.errored", errored),
	)
	span.End()
}
