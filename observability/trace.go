package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/kbukum/interviewscribe"

// Span names used by the transcription pipeline.
const (
	SpanUpload         = "upload"
	SpanUploadChunk    = "upload.chunk"
	SpanAssemblerRound = "assembler.round"
	SpanRun            = "orchestrator.run"
)

// Attribute keys used by the transcription pipeline.
const (
	AttrProjectID = "project.id"
	AttrOffset    = "upload.offset"
	AttrBytes     = "upload.bytes"
	AttrRound     = "assembler.round"
	AttrAccepted  = "assembler.accepted"
	AttrOutcome   = "run.outcome"
	AttrSegments  = "run.segments"
)

// StartSpan starts a span on the global tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, opts...)
}

// SetSpanAttribute sets an attribute on the span in ctx. Unsupported value
// types are ignored.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	switch v := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, v))
	case int:
		span.SetAttributes(attribute.Int(key, v))
	case int64:
		span.SetAttributes(attribute.Int64(key, v))
	case float64:
		span.SetAttributes(attribute.Float64(key, v))
	case bool:
		span.SetAttributes(attribute.Bool(key, v))
	}
}

// SetSpanError records err on the span in ctx and marks it failed.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RunTrace spans one transcription run and reports its outcome.
type RunTrace struct {
	span    trace.Span
	start   time.Time
	metrics *ScribeMetrics
}

// StartRun opens the run span for projectID. m may be nil.
func StartRun(ctx context.Context, projectID string, m *ScribeMetrics) (context.Context, *RunTrace) {
	ctx, span := StartSpan(ctx, SpanRun, trace.WithAttributes(attribute.String(AttrProjectID, projectID)))
	return ctx, &RunTrace{span: span, start: time.Now(), metrics: m}
}

// End closes the span and counts the run. err is the failure that ended
// an errored run, nil otherwise.
func (r *RunTrace) End(ctx context.Context, outcome string, segments int, err error) {
	r.span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int(AttrSegments, segments),
	)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}
	r.span.End()
	r.metrics.RunFinished(ctx, outcome, time.Since(r.start))
}
