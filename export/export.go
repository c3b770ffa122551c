package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/store"
	"github.com/kbukum/interviewscribe/transcription"
)

// Format is an output document format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatSRT      Format = "srt"
)

var formatAliases = map[string]Format{
	"text": FormatText, "txt": FormatText,
	"markdown": FormatMarkdown, "md": FormatMarkdown,
	"json": FormatJSON,
	"yaml": FormatYAML, "yml": FormatYAML,
	"srt": FormatSRT,
}

// ParseFormat resolves a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))]
	if !ok {
		return "", errors.InvalidInput("format", fmt.Sprintf("unsupported export format %q", s))
	}
	return f, nil
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return "." + string(f)
	}
}

// Variant selects which language renditions are rendered.
type Variant string

const (
	VariantCombined Variant = "combined"
	VariantEnglish  Variant = "english"
	VariantOriginal Variant = "original"
)

// ParseVariant resolves a variant name. An empty name selects VariantCombined.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantCombined, nil
	case VariantCombined, VariantEnglish, VariantOriginal:
		return v, nil
	default:
		return "", errors.InvalidInput("variant", fmt.Sprintf("unsupported variant %q", s))
	}
}

func (v Variant) title() string {
	switch v {
	case VariantEnglish:
		return "English"
	case VariantOriginal:
		return "Original Language"
	default:
		return "Bilingual"
	}
}

// DefaultCueTail is the length of the last SRT cue in seconds.
const DefaultCueTail = 5.0

type options struct {
	variant Variant
	cueTail float64
}

// Option configures Write.
type Option func(*options)

// WithVariant selects the language renditions for text, Markdown and SRT output.
func WithVariant(v Variant) Option {
	return func(o *options) { o.variant = v }
}

// WithCueTail sets the length in seconds of the last SRT cue, and of any cue
// whose successor does not start later.
func WithCueTail(seconds float64) Option {
	return func(o *options) {
		if seconds > 0 {
			o.cueTail = seconds
		}
	}
}

// Document is the JSON and YAML export shape.
type Document struct {
	Project    *store.Project    `json:"project" yaml:"project"`
	Transcript *store.Transcript `json:"transcript" yaml:"transcript"`
}

// Write renders the transcript of p to w. A nil transcript renders as empty.
func Write(w io.Writer, p *store.Project, t *store.Transcript, f Format, opts ...Option) error {
	if p == nil {
		return errors.MissingField("project")
	}
	o := options{variant: VariantCombined, cueTail: DefaultCueTail}
	for _, opt := range opts {
		opt(&o)
	}
	if t == nil {
		t = &store.Transcript{ProjectID: p.ID, Segments: []transcription.Segment{}}
	}

	var err error
	switch f {
	case FormatText:
		err = writeText(w, p, t, o)
	case FormatMarkdown:
		err = writeMarkdown(w, p, t, o)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(Document{Project: p, Transcript: t})
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(Document{Project: p, Transcript: t}); err == nil {
			err = enc.Close()
		}
	case FormatSRT:
		err = writeSRT(w, p, t, o)
	default:
		return errors.InvalidInput("format", fmt.Sprintf("unsupported export format %q", f))
	}
	if err != nil {
		return fmt.Errorf("export: write %s: %w", f, err)
	}
	return nil
}

// FormatTimestamp renders seconds as HH:MM:SS, or MM:SS under an hour.
// Negative values render as zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// texts returns the renditions of seg to print for v. The original text is
// dropped in combined mode when it repeats the English.
func texts(seg transcription.Segment, v Variant) (english, original string) {
	en, orig := strings.TrimSpace(seg.EnglishText), strings.TrimSpace(seg.OriginalText)
	switch v {
	case VariantEnglish:
		if en == "" {
			en = orig
		}
		return en, ""
	case VariantOriginal:
		if orig == "" {
			orig = en
		}
		return "", orig
	default:
		if orig == en {
			orig = ""
		}
		return en, orig
	}
}

func speaker(seg transcription.Segment) string {
	if s := strings.TrimSpace(seg.Speaker); s != "" {
		return s
	}
	return "Unknown"
}

type metaField struct {
	label string
	value string
}

func metadata(p *store.Project) []metaField {
	var out []metaField
	add := func(label string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			out = append(out, metaField{label, *v})
		}
	}
	add("Interviewee", p.Interviewee)
	add("Interviewer", p.Interviewer)
	add("Participants", p.Participants)
	add("Date", p.InterviewDate)
	add("Language", p.OriginalLanguage)
	add("Location", p.Location)
	if p.FileInfo.Name != "" {
		rec := p.FileInfo.Name
		if p.FileInfo.Duration > 0 {
			rec += " (" + FormatTimestamp(p.FileInfo.Duration) + ")"
		}
		out = append(out, metaField{"Recording", rec})
	}
	return out
}
