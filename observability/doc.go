// Package observability wires OpenTelemetry tracing and metrics for the
// transcription pipeline.
//
// Until Setup runs with an enabled Config the global providers are no-ops,
// so spans and counters can be used unconditionally:
//
//	shutdown, err := observability.Setup(ctx, "scribe", version.Short(), "production", cfg)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanUpload)
//	defer span.End()
//
//	m := observability.DefaultScribeMetrics()
//	m.ChunkUploaded(ctx, len(chunk))
//
// A run is wrapped by StartRun, whose End records the outcome on both the
// span and the run counters.
package observability
