package transcription

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Segment is one speaker turn of a bilingual transcript.
type Segment struct {
	Speaker      string `json:"speaker" yaml:"speaker"`
	OriginalText string `json:"originalText" yaml:"originalText"`
	EnglishText  string `json:"englishText" yaml:"englishText"`
	// Timestamp is the offset of the turn in seconds from the start of the recording.
	Timestamp float64 `json:"timestamp" yaml:"timestamp"`
}

// Media describes an uploaded recording to transcribe.
type Media struct {
	FileURI  string
	MimeType string
	// Duration in seconds. Zero means unknown.
	Duration float64
}

// rawSegment mirrors Segment with a lenient timestamp.
type rawSegment struct {
	Speaker      string          `json:"speaker"`
	OriginalText string          `json:"originalText"`
	EnglishText  string          `json:"englishText"`
	Timestamp    json.RawMessage `json:"timestamp"`
}

func (r rawSegment) segment() Segment {
	return Segment{
		Speaker:      strings.TrimSpace(r.Speaker),
		OriginalText: r.OriginalText,
		EnglishText:  r.EnglishText,
		Timestamp:    lenientSeconds(r.Timestamp),
	}
}

// lenientSeconds accepts a JSON number or a numeric string. Anything else,
// including NaN, infinities and negative offsets, is 0.
func lenientSeconds(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return seconds(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return seconds(v)
		}
	}
	return 0
}

func seconds(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
