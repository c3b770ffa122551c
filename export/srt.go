package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/kbukum/interviewscribe/store"
)

// cue is one SubRip subtitle entry. Times are in seconds.
type cue struct {
	Index int
	Start float64
	End   float64
	Lines []string
}

// cues derives subtitle ranges from consecutive segment timestamps. A cue
// ends where the next segment starts; the last cue, and any cue whose
// successor does not start later, lasts tail seconds, capped by the
// recording duration when it is known.
func cues(p *store.Project, t *store.Transcript, o options) []cue {
	out := make([]cue, 0, len(t.Segments))
	for i, seg := range t.Segments {
		start := math.Max(seg.Timestamp, 0)
		end := start + o.cueTail
		if i+1 < len(t.Segments) && t.Segments[i+1].Timestamp > start {
			end = t.Segments[i+1].Timestamp
		} else if d := p.FileInfo.Duration; d > start && d < end {
			end = d
		}

		en, orig := texts(seg, o.variant)
		var lines []string
		if en != "" {
			lines = append(lines, speaker(seg)+": "+en)
		}
		if orig != "" {
			if en == "" {
				lines = append(lines, speaker(seg)+": "+orig)
			} else {
				lines = append(lines, orig)
			}
		}
		if len(lines) == 0 {
			continue
		}
		out = append(out, cue{Index: len(out) + 1, Start: start, End: end, Lines: lines})
	}
	return out
}

func writeSRT(w io.Writer, p *store.Project, t *store.Transcript, o options) error {
	bw := bufio.NewWriter(w)
	for i, c := range cues(p, t, o) {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "%d\n%s --> %s\n", c.Index, srtTime(c.Start), srtTime(c.End))
		for _, l := range c.Lines {
			fmt.Fprintln(bw, l)
		}
	}
	return bw.Flush()
}

// srtTime renders seconds as HH:MM:SS,mmm.
func srtTime(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, ms%3600000/60000, ms%60000/1000, ms%1000)
}
