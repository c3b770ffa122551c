// Package export renders a project's transcript to a shareable document.
//
// Supported formats are plain text, Markdown, JSON, YAML and SubRip (SRT).
// Text and Markdown output follow the chosen Variant: English only, original
// language only, or both, with the original omitted when it matches the
// English rendition.
//
//	f, _ := export.ParseFormat("markdown")
//	err := export.Write(os.Stdout, project, transcript, f, export.WithVariant(export.VariantCombined))
package export
