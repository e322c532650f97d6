package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"marketpipe/internal/infrastructure"
)

// OperationTracer wraps span creation and metric recording for a run and its steps
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer; nil arguments disable spans or metrics
func NewOperationTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *OperationTracer {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

// TraceOperationExecution starts the span for a whole run
func (ot *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string) (context.Context, trace.Span) {
	return ot.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("operation.id", operationID)),
	)
}

// TraceStageExecution starts a span for a single step
func (ot *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stageID string) (context.Context, trace.Span) {
	return ot.tracer.Start(ctx, "pipeline.step."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stageID),
		),
	)
}

// RecordStageCompletion ends a step span and records its metrics
func (ot *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, duration time.Duration, rows int, err error) {
	defer span.End()

	infrastructure.RecordStepMetrics(ctx, ot.metrics, stageID, duration, err == nil)
	infrastructure.RecordRows(ctx, ot.metrics, stageID, rows)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		infrastructure.RecordPipelineError(ctx, ot.metrics, stageID, errorLabel(err))
		return
	}
	span.SetAttributes(attribute.Int("step.rows", rows))
	span.SetStatus(codes.Ok, "")
}

// RecordOperationCompletion ends the run span
func (ot *OperationTracer) RecordOperationCompletion(span trace.Span, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
