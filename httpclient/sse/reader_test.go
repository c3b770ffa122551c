package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func read(t *testing.T, stream string) (*Reader, []Event) {
	t.Helper()
	r := NewReader(io.NopCloser(strings.NewReader(stream)))
	var events []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return r, events
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, ev)
	}
}

func TestReader(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []Event
	}{
		{"single", "data: hello world\n\n", []Event{{Data: "hello world"}}},
		{"two events", "data: first\n\ndata: second\n\n", []Event{{Data: "first"}, {Data: "second"}}},
		{"multi-line data", "data: a\ndata: b\ndata:c\n\n", []Event{{Data: "a\nb\nc"}}},
		{"typed with id", "event: chunk\nid: 7\ndata: {}\n\n", []Event{{Type: "chunk", ID: "7", Data: "{}"}}},
		{"id carries over", "id: 1\ndata: a\n\ndata: b\n\n", []Event{{ID: "1", Data: "a"}, {ID: "1", Data: "b"}}},
		{"comments skipped", ": keepalive\ndata: x\n\n", []Event{{Data: "x"}}},
		{"type without data dropped", "event: ping\n\ndata: y\n\n", []Event{{Data: "y"}}},
		{"crlf", "data: one\r\n\r\ndata: two\r\n\r\n", []Event{{Data: "one"}, {Data: "two"}}},
		{"bare cr", "data: one\r\rdata: two\r\r", []Event{{Data: "one"}, {Data: "two"}}},
		{"flushed at eof", "data: tail", []Event{{Data: "tail"}}},
		{"only one space stripped", "data:  indented\n\n", []Event{{Data: " indented"}}},
		{"field without colon", "data\n\n", []Event{{Data: ""}}},
		{"empty stream", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, got := read(t, tc.stream)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d events %+v, want %d", len(got), got, len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("event %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestReader_ReconnectState(t *testing.T) {
	r, _ := read(t, "retry: 1500\nid: abc\ndata: x\n\nretry: soon\n\n")
	if r.Retry() != 1500*time.Millisecond {
		t.Errorf("retry = %v", r.Retry())
	}
	if r.LastEventID() != "abc" {
		t.Errorf("last id = %q", r.LastEventID())
	}
}

func TestReader_LargeEvent(t *testing.T) {
	big := strings.Repeat("x", 200<<10)
	_, got := read(t, "data: "+big+"\n\n")
	if len(got) != 1 || len(got[0].Data) != len(big) {
		t.Fatalf("large event truncated")
	}
}

type failingBody struct{ closed bool }

func (b *failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (b *failingBody) Close() error             { b.closed = true; return nil }

func TestReader_ReadError(t *testing.T) {
	body := &failingBody{}
	r := NewReader(body)
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Errorf("err = %v, want read error", err)
	}
	if err := r.Close(); err != nil || !body.closed {
		t.Error("Close did not reach the body")
	}
}
