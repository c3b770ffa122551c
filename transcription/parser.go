package transcription

import (
	"encoding/json"
	"strings"
)

// LineParser splits streamed text into lines and decodes each complete line
// as one Segment. Lines that are not a valid segment are dropped.
type LineParser struct {
	buf strings.Builder
}

// Feed appends text and returns the segments of every line it completed.
// The trailing partial line is kept for the next call.
func (p *LineParser) Feed(text string) []Segment {
	p.buf.WriteString(text)
	data := p.buf.String()
	cut := strings.LastIndexByte(data, '\n')
	if cut < 0 {
		return nil
	}
	p.buf.Reset()
	p.buf.WriteString(data[cut+1:])

	var out []Segment
	for _, line := range strings.Split(data[:cut], "\n") {
		if seg, ok := ParseLine(line); ok {
			out = append(out, seg)
		}
	}
	return out
}

// Flush parses whatever remains buffered and resets the parser.
func (p *LineParser) Flush() []Segment {
	rest := p.buf.String()
	p.buf.Reset()
	if seg, ok := ParseLine(rest); ok {
		return []Segment{seg}
	}
	return nil
}

// ParseLine decodes one JSONL record, tolerating array punctuation and
// markdown code fences around it.
func ParseLine(line string) (Segment, bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "```") {
		line = strings.TrimLeft(line[3:], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	line = strings.TrimSpace(strings.TrimSuffix(line, "```"))
	line = strings.TrimSuffix(line, ",")
	line = strings.TrimPrefix(line, "[")
	line = strings.TrimSuffix(line, "]")
	line = strings.TrimSpace(line)
	if line == "" || line[0] != '{' {
		return Segment{}, false
	}

	var raw rawSegment
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Segment{}, false
	}
	seg := raw.segment()
	if seg.Speaker == "" {
		return Segment{}, false
	}
	if strings.TrimSpace(seg.OriginalText) == "" && strings.TrimSpace(seg.EnglishText) == "" {
		return Segment{}, false
	}
	return seg, true
}
