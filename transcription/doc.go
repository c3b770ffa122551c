// Package transcription turns an uploaded recording into a bilingual,
// speaker-attributed transcript by driving a streaming generation endpoint
// over as many rounds as the recording needs.
//
// Each round streams JSON Lines through a tolerant LineParser. Parsed
// segments are admitted only if they are not duplicates of recent output and
// do not rewind behind the cursor. The cursor then advances to the last
// accepted timestamp and the next round resumes from there:
//
//	asm := transcription.NewAssembler(adapter, transcription.DefaultConfig(), log)
//	segs, err := asm.Assemble(ctx, media, func(pct int, seg *transcription.Segment) { ... })
//
// *llm.Adapter satisfies Generator.
package transcription
