package transcription

import (
	"fmt"
	"math"
	"strings"
)

const systemPrompt = "You are a professional transcriber and translator of recorded interviews."

const formatRules = `Output rules:
- Emit JSON Lines only: one JSON object per line, no surrounding array, no commentary.
- Merge consecutive sentences by the same speaker into one paragraph-sized record.
- Fields of every record:
  "speaker": a stable label for the speaker,
  "originalText": the exact words spoken, in the spoken language,
  "englishText": the English translation (repeat the text if it is already English),
  "timestamp": the start of the record in seconds from the beginning, as a number.
- Keep going through pauses and silence. Transcribe as far as possible in this response.
- Stop when the recording ends.

Example:
{"speaker": "Interviewer", "originalText": "Bonjour.", "englishText": "Hello.", "timestamp": 12.5}`

// buildPrompt renders the user prompt for one round. segments is what has
// been accepted so far and cursor is the resume point in seconds.
func buildPrompt(cfg Config, duration, cursor float64, segments []Segment) string {
	var b strings.Builder
	if duration > 0 {
		fmt.Fprintf(&b, "Recording length: %d seconds.\n", int(math.Round(duration)))
	} else {
		b.WriteString("Recording length: unknown.\n")
	}

	if len(segments) == 0 {
		b.WriteString("\nTranscribe the recording from the beginning.\n\n")
	} else {
		resume := int(math.Round(cursor))
		fmt.Fprintf(&b, "Resume from: %d seconds.\n\n", resume)
		fmt.Fprintf(&b, "This continues an earlier transcription. Start listening at %d seconds.\n", resume)
		fmt.Fprintf(&b, "The last words already transcribed were: \"...%s\"\n", contextAnchor(cfg, segments))
		b.WriteString("Do not repeat them. Transcribe only what follows.\n\n")
	}
	b.WriteString(formatRules)
	return b.String()
}

// contextAnchor joins the original text of the trailing segments and keeps
// the last ContextChars characters.
func contextAnchor(cfg Config, segments []Segment) string {
	tail := segments[max(0, len(segments)-cfg.ContextSegments):]
	texts := make([]string, 0, len(tail))
	for _, s := range tail {
		texts = append(texts, s.OriginalText)
	}
	anchor := []rune(strings.Join(texts, " ... "))
	if len(anchor) > cfg.ContextChars {
		anchor = anchor[len(anchor)-cfg.ContextChars:]
	}
	return string(anchor)
}
