package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kbukum/interviewscribe/store"
)

func writeText(w io.Writer, p *store.Project, t *store.Transcript, o options) error {
	bw := bufio.NewWriter(w)
	title := "Interview Transcript - " + o.variant.title()
	fmt.Fprintf(bw, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	fmt.Fprintf(bw, "Project: %s\n", p.Name)
	for _, m := range metadata(p) {
		fmt.Fprintf(bw, "%s: %s\n", m.label, m.value)
	}
	if !t.Complete() {
		fmt.Fprintln(bw, "Status: partial transcript")
	}

	for _, seg := range t.Segments {
		fmt.Fprintf(bw, "\n[%s] %s\n", FormatTimestamp(seg.Timestamp), speaker(seg))
		en, orig := texts(seg, o.variant)
		switch {
		case o.variant == VariantCombined && orig != "":
			fmt.Fprintf(bw, "English: %s\nOriginal: %s\n", en, orig)
		case o.variant == VariantCombined:
			fmt.Fprintf(bw, "English: %s\n", en)
		case en != "":
			fmt.Fprintln(bw, en)
		default:
			fmt.Fprintln(bw, orig)
		}
	}
	return bw.Flush()
}

func writeMarkdown(w io.Writer, p *store.Project, t *store.Transcript, o options) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n\n_Interview Transcript - %s_\n", mdEscape(p.Name), o.variant.title())

	if meta := metadata(p); len(meta) > 0 {
		fmt.Fprint(bw, "\n| Field | Value |\n| --- | --- |\n")
		for _, m := range meta {
			fmt.Fprintf(bw, "| %s | %s |\n", m.label, mdCell(m.value))
		}
	}
	if !t.Complete() {
		fmt.Fprint(bw, "\n> **Partial transcript.** The run did not finish.\n")
	}

	for _, seg := range t.Segments {
		fmt.Fprintf(bw, "\n## [%s] %s\n\n", FormatTimestamp(seg.Timestamp), mdEscape(speaker(seg)))
		en, orig := texts(seg, o.variant)
		if en != "" {
			fmt.Fprintln(bw, en)
		}
		if orig != "" {
			if en != "" {
				fmt.Fprintln(bw)
				fmt.Fprintf(bw, "> %s\n", strings.ReplaceAll(orig, "\n", "\n> "))
			} else {
				fmt.Fprintln(bw, orig)
			}
		}
	}
	return bw.Flush()
}

var mdEscaper = strings.NewReplacer("#", `\#`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`)

func mdEscape(s string) string { return mdEscaper.Replace(s) }

func mdCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
