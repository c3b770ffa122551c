package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "scribe").WithComponent("store")
	log.Info("saved", Fields(FieldProjectID, "p1", FieldSegments, 3))

	m := decodeLine(t, &buf)
	if m["message"] != "saved" {
		t.Errorf("message = %v", m["message"])
	}
	if m[FieldComponent] != "store" || m[FieldProjectID] != "p1" {
		t.Errorf("unexpected fields: %v", m)
	}
	if m["service"] != "scribe" {
		t.Errorf("service = %v", m["service"])
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "scribe")
	log.Info("hidden")
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected warn record")
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWith(context.Background(), FieldRequestID, "req-1")
	ctx = ContextWith(ctx, FieldProjectID, "p9")
	NewWithWriter(&buf, "info", "scribe").WithContext(ctx).Info("hello")

	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-1" || m[FieldProjectID] != "p9" {
		t.Errorf("context fields missing: %v", m)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "scribe").WithError(errors.New("boom")).Error("failed")
	if m := decodeLine(t, &buf); m["error"] != "boom" {
		t.Errorf("error field = %v", m["error"])
	}
}

func TestOrGlobal(t *testing.T) {
	l := Nop()
	if OrGlobal(l) != l {
		t.Error("OrGlobal should keep a non-nil logger")
	}
	if OrGlobal(nil) == nil {
		t.Error("OrGlobal(nil) should fall back to the global logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("timestamp should default on")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
		{"upper case", Config{Level: "WARN", Format: "Pretty"}, false},
		{"fatal is not a service level", Config{Level: "fatal", Format: "json"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Errorf("Fields() = %v", m)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	SetGlobalLogger(NewWithWriter(&buf, "debug", "scribe"))
	Debug("d")
	Info("i")
	Warn("w")
	Error("e")
	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("expected 4 records, got %d", got)
	}
}

func TestNew_JSONOutputOptions(t *testing.T) {
	cfg := Config{Level: "warn", Format: FormatJSON, Caller: true}
	if cfg.console() {
		t.Fatal("json format reported as console")
	}
	l := New(&cfg, "scribe")
	if got := l.zl.GetLevel().String(); got != "warn" {
		t.Errorf("level = %s", got)
	}
	if !(&Config{Format: "PRETTY"}).console() {
		t.Error("pretty should render as console")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{"": "info", "DEBUG": "debug", "bogus": "info", "trace": "trace"}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	w := consoleWriter(&buf, true)
	l := &Logger{zl: zerolog.New(w)}
	l.Warn("slow round", Fields(FieldRound, 2))
	out := buf.String()
	if !strings.Contains(out, "[WRN]") || !strings.Contains(out, "round:") || strings.Contains(out, "\033") {
		t.Errorf("console output = %q", out)
	}
}
