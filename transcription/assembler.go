package transcription

import (
	"context"
	stderrors "errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/llm"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/observability"
)

// Generator streams a completion. *llm.Adapter implements it.
type Generator interface {
	Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error)
}

// ProgressFunc receives the overall percentage and the segment just accepted.
type ProgressFunc func(pct int, seg *Segment)

// Rejection reasons reported to metrics.
const (
	rejectDuplicate = "duplicate"
	rejectRewind    = "rewind"
)

// Assembler drives a Generator over as many rounds as a recording needs.
type Assembler struct {
	gen     Generator
	cfg     Config
	log     *logger.Logger
	metrics *observability.ScribeMetrics
}

// AssemblerOption customizes an Assembler.
type AssemblerOption func(*Assembler)

// WithMetrics records rounds, segments and stalls on m.
func WithMetrics(m *observability.ScribeMetrics) AssemblerOption {
	return func(a *Assembler) { a.metrics = m }
}

// NewAssembler creates an assembler. Zero fields of cfg take defaults.
func NewAssembler(gen Generator, cfg Config, log *logger.Logger, opts ...AssemblerOption) *Assembler {
	cfg.ApplyDefaults()
	a := &Assembler{gen: gen, cfg: cfg, log: logger.OrGlobal(log).WithComponent("assembler")}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// run is the state carried across rounds.
type run struct {
	media    Media
	segments []Segment
	cursor   float64
	stalls   int
}

// Assemble transcribes media and returns every accepted segment in
// acceptance order. onProgress is called for each accepted segment and once
// more with 100 on normal completion.
//
// Cancellation returns context.Canceled. Too many consecutive empty rounds
// return GENERATION_STALLED and too many failed rounds GENERATION_FAILED.
// In every case the segments accepted so far are returned as well.
func (a *Assembler) Assemble(ctx context.Context, media Media, onProgress ProgressFunc) ([]Segment, error) {
	if onProgress == nil {
		onProgress = func(int, *Segment) {}
	}
	r := &run{media: media}
	log := a.log.WithFields(logger.Fields("file_uri", media.FileURI))
	endMargin := a.cfg.EndMargin.Seconds()

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return r.segments, context.Canceled
		}
		if round > a.cfg.MaxRounds {
			log.Warn("round ceiling reached, finishing with partial coverage", logger.Fields(
				logger.FieldRound, round-1, logger.FieldCursor, r.cursor, logger.FieldSegments, len(r.segments)))
			break
		}
		if media.Duration > 0 && r.cursor >= media.Duration-endMargin {
			break
		}

		accepted, last, err := a.round(ctx, round, r, onProgress)
		if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
			return r.segments, context.Canceled
		}
		if accepted > 0 {
			r.cursor = last
		}

		if err != nil {
			r.stalls++
			log.Warn("generation round failed", logger.Fields(
				logger.FieldRound, round, "attempt", r.stalls, logger.FieldError, err.Error()))
			if r.stalls > a.cfg.MaxStalls {
				return r.segments, errors.GenerationFailed(r.stalls, err)
			}
			continue
		}

		if accepted == 0 {
			if a.nearEnd(r.cursor, media.Duration) {
				break
			}
			r.stalls++
			r.cursor += a.cfg.StallNudge.Seconds()
			a.metrics.Stall(ctx)
			log.Warn("round produced no new segments", logger.Fields(
				logger.FieldRound, round, logger.FieldCursor, r.cursor, "stalls", r.stalls))
			if r.stalls > a.cfg.MaxStalls {
				return r.segments, errors.GenerationStalled(r.cursor, r.stalls)
			}
			continue
		}

		r.stalls = 0
		log.Debug("round complete", logger.Fields(
			logger.FieldRound, round, logger.FieldCursor, r.cursor, "accepted", accepted))
		if media.Duration > 0 && media.Duration-last < a.cfg.TailWindow.Seconds() {
			break
		}
	}

	if n := len(r.segments); n > 0 {
		last := r.segments[n-1]
		onProgress(100, &last)
	}
	log.Info("transcription assembled", logger.Fields(logger.FieldSegments, len(r.segments), logger.FieldCursor, r.cursor))
	return r.segments, nil
}

// nearEnd reports whether an empty round at cursor means the recording is
// done. With an unknown duration any empty round ends the run.
func (a *Assembler) nearEnd(cursor, duration float64) bool {
	if duration <= 0 {
		return true
	}
	return duration-cursor < a.cfg.TailWindow.Seconds() || cursor/duration > a.cfg.CompleteRatio
}

// round issues one streaming request and admits what it yields. It returns
// the number of accepted segments and the timestamp of the last one.
func (a *Assembler) round(ctx context.Context, n int, r *run, onProgress ProgressFunc) (accepted int, last float64, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanAssemblerRound)
	defer func() {
		observability.SetSpanAttribute(ctx, observability.AttrAccepted, accepted)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		span.End()
	}()
	observability.SetSpanAttribute(ctx, observability.AttrRound, n)
	a.metrics.Round(ctx)

	continuation := len(r.segments) > 0
	req := llm.CompletionRequest{
		Model:        a.cfg.Model,
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: buildPrompt(a.cfg, r.media.Duration, r.cursor, r.segments)}},
		Attachments:  []llm.Attachment{{URI: r.media.FileURI, MimeType: r.media.MimeType}},
		MaxTokens:    a.cfg.MaxOutputTokens,
		Temperature:  a.cfg.Temperature,
	}

	admit := func(segs []Segment) {
		for _, seg := range segs {
			if reason := a.reject(seg, r, continuation); reason != "" {
				a.metrics.Segment(ctx, reason)
				continue
			}
			r.segments = append(r.segments, seg)
			accepted++
			last = seg.Timestamp
			a.metrics.Segment(ctx, "")
			onProgress(a.percent(seg.Timestamp, r.media.Duration), &seg)
		}
	}

	stream, err := a.gen.Stream(ctx, req)
	if err != nil {
		return 0, 0, err
	}
	var parser LineParser
	for {
		select {
		case <-ctx.Done():
			return accepted, last, ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				admit(parser.Flush())
				return accepted, last, nil
			}
			if chunk.Err != nil {
				admit(parser.Flush())
				return accepted, last, chunk.Err
			}
			admit(parser.Feed(chunk.Content))
			if chunk.Done {
				admit(parser.Flush())
				return accepted, last, nil
			}
		}
	}
}

// reject returns why seg is not admitted, or "" to accept it.
func (a *Assembler) reject(seg Segment, r *run, continuation bool) string {
	if continuation && seg.Timestamp < r.cursor-a.cfg.RewindTolerance.Seconds() {
		return rejectRewind
	}
	if a.duplicate(seg, r.segments) {
		return rejectDuplicate
	}
	return ""
}

// duplicate reports an exact normalized match of either text among the last
// DedupWindow segments. Segments whose texts are both short are never
// duplicates.
func (a *Assembler) duplicate(seg Segment, existing []Segment) bool {
	orig := normalize(seg.OriginalText)
	eng := normalize(seg.EnglishText)
	if utf8.RuneCountInString(orig) < a.cfg.DedupMinLength && utf8.RuneCountInString(eng) < a.cfg.DedupMinLength {
		return false
	}
	for _, e := range existing[max(0, len(existing)-a.cfg.DedupWindow):] {
		if orig != "" && normalize(e.OriginalText) == orig {
			return true
		}
		if eng != "" && normalize(e.EnglishText) == eng {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// percent maps a timestamp to progress in [0, 99]. Unknown durations report 99.
func (a *Assembler) percent(ts, duration float64) int {
	if duration <= 0 {
		return 99
	}
	p := int(math.Round(ts / duration * 100))
	return max(0, min(99, p))
}
