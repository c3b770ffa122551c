package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ScribeMetrics holds the counters of the transcription pipeline.
// A nil *ScribeMetrics is valid and records nothing.
type ScribeMetrics struct {
	chunks   metric.Int64Counter
	bytes    metric.Int64Counter
	rounds   metric.Int64Counter
	segments metric.Int64Counter
	stalls   metric.Int64Counter
	runs     metric.Int64Counter
	runTime  metric.Float64Histogram
}

// NewScribeMetrics creates the pipeline counters on the given meter.
func NewScribeMetrics(meter metric.Meter) (*ScribeMetrics, error) {
	m := &ScribeMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.chunks, "upload.chunks", "Chunks accepted by the upload endpoint", ""},
		{&m.bytes, "upload.bytes", "Bytes accepted by the upload endpoint", "By"},
		{&m.rounds, "assembler.rounds", "Generation rounds issued", ""},
		{&m.segments, "assembler.segments", "Parsed segments by admission result", ""},
		{&m.stalls, "assembler.stalls", "Rounds that produced no new segment", ""},
		{&m.runs, "orchestrator.runs", "Transcription runs by outcome", ""},
	}
	for _, c := range counters {
		opts := []metric.Int64CounterOption{metric.WithDescription(c.desc)}
		if c.unit != "" {
			opts = append(opts, metric.WithUnit(c.unit))
		}
		counter, err := meter.Int64Counter(c.name, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}
	runTime, err := meter.Float64Histogram("orchestrator.run.duration",
		metric.WithDescription("Wall time of transcription runs"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator.run.duration histogram: %w", err)
	}
	m.runTime = runTime
	return m, nil
}

// DefaultScribeMetrics builds the counters on the global meter provider.
// Until Setup runs the global provider is a no-op.
func DefaultScribeMetrics() *ScribeMetrics {
	m, err := NewScribeMetrics(otel.Meter(instrumentation))
	if err != nil {
		return nil
	}
	return m
}

// ChunkUploaded records one accepted upload chunk of n bytes.
func (m *ScribeMetrics) ChunkUploaded(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.chunks.Add(ctx, 1)
	m.bytes.Add(ctx, int64(n))
}

// Round records one generation round.
func (m *ScribeMetrics) Round(ctx context.Context) {
	if m == nil {
		return
	}
	m.rounds.Add(ctx, 1)
}

// Segment records one parsed segment. reason is empty for accepted segments.
func (m *ScribeMetrics) Segment(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	result := "accepted"
	if reason != "" {
		result = "rejected"
	}
	m.segments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("reason", reason),
	))
}

// Stall records one empty round.
func (m *ScribeMetrics) Stall(ctx context.Context) {
	if m == nil {
		return
	}
	m.stalls.Add(ctx, 1)
}

// RunFinished records the terminal outcome and wall time of a run.
func (m *ScribeMetrics) RunFinished(ctx context.Context, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.runs.Add(ctx, 1, attrs)
	m.runTime.Record(ctx, took.Seconds(), attrs)
}
