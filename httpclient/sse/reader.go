// Package sse decodes text/event-stream bodies.
package sse

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"
)

// maxLine bounds one field line. Generation chunks carry several
// kilobytes of JSON per event.
const maxLine = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	// Type comes from "event:". Empty means the default "message" type.
	Type string
	// Data joins every "data:" line of the event with "\n".
	Data string
	// ID is the last event ID in effect when the event was dispatched.
	ID string
}

// Reader yields events from a stream. It is not safe for concurrent use.
type Reader struct {
	body    io.ReadCloser
	lines   *bufio.Scanner
	lastID  string
	retry   time.Duration
	pending strings.Builder
}

func NewReader(body io.ReadCloser) *Reader {
	lines := bufio.NewScanner(body)
	lines.Buffer(make([]byte, 0, 64<<10), maxLine)
	lines.Split(splitLines)
	return &Reader{body: body, lines: lines}
}

// Next returns the next event, or io.EOF once the stream ends. Data left
// without a terminating blank line at EOF is still dispatched.
func (r *Reader) Next() (Event, error) {
	var (
		typ     string
		hasData bool
	)
	r.pending.Reset()
	dispatch := func() Event {
		return Event{Type: typ, Data: r.pending.String(), ID: r.lastID}
	}

	for r.lines.Scan() {
		line := r.lines.Text()
		if line == "" {
			if hasData {
				return dispatch(), nil
			}
			typ = ""
			continue
		}
		if line[0] == ':' {
			continue
		}
		name, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch name {
		case "data":
			if hasData {
				r.pending.WriteByte('\n')
			}
			r.pending.WriteString(value)
			hasData = true
		case "event":
			typ = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				r.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
	if err := r.lines.Err(); err != nil {
		return Event{}, err
	}
	if hasData {
		return dispatch(), nil
	}
	return Event{}, io.EOF
}

// LastEventID is the value to send as Last-Event-ID when reconnecting.
func (r *Reader) LastEventID() string { return r.lastID }

// Retry is the reconnection delay the server asked for, or 0.
func (r *Reader) Retry() time.Duration { return r.retry }

func (r *Reader) Close() error { return r.body.Close() }

// splitLines accepts LF, CRLF and bare CR line endings.
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
