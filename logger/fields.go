package logger

// Field names shared across packages.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRequestID = "request_id"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldProjectID = "project_id"
	FieldState     = "state"
	FieldEvent     = "event"
	FieldRound     = "round"
	FieldCursor    = "cursor"
	FieldOffset    = "offset"
	FieldProgress  = "progress"
	FieldSegments  = "segments"
	FieldKey       = "key"
)

// Fields builds a field map from alternating key-value pairs. Non-string
// keys and a trailing key without a value are dropped.
//
//	logger.Info("done", logger.Fields(logger.FieldRound, 3, logger.FieldCursor, 61.5))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
