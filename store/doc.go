// Package store persists projects and transcripts as JSON records on a
// byte-oriented key/value Backend.
//
// Reads never fail: a missing, undecodable or invalid record reads as nil
// and corrupt records are removed. Writes never raise: they report a
// WriteResult describing quota or availability failures.
//
// Checkpoints go through DebouncedWrite, which coalesces writes per key
// behind a single quiet-period timer. Flush writes everything pending and
// is called by Close, so every shutdown path persists the last checkpoint.
//
//	s := store.New(store.NewMemoryBackend(), log)
//	report := s.Initialize(ctx)
//	p, res := s.CreateProject(ctx, "interview.mp3", store.FileInfo{Name: "interview.mp3"})
package store
