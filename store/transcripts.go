package store

import (
	"context"
	"time"

	"github.com/kbukum/interviewscribe/transcription"
	"github.com/kbukum/interviewscribe/validation"
)

// Transcript is the persisted transcript of a project. A nil CompletedAt
// marks a partial transcript.
type Transcript struct {
	ProjectID   string                  `json:"projectId" validate:"required" yaml:"projectId"`
	Segments    []transcription.Segment `json:"segments" yaml:"segments"`
	CompletedAt *time.Time              `json:"completedAt" yaml:"completedAt"`
	FileURI     string                  `json:"fileUri,omitempty" yaml:"fileUri,omitempty"`
}

// Complete reports whether the transcript finished normally.
func (t Transcript) Complete() bool { return t.CompletedAt != nil }

func validateTranscript(t *Transcript) error {
	if err := validation.Validate(t); err != nil {
		return err
	}
	if t.Segments == nil {
		t.Segments = []transcription.Segment{}
	}
	return nil
}

// GetTranscript returns the transcript of a project, or nil.
func (s *Store) GetTranscript(ctx context.Context, projectID string) *Transcript {
	t := Read(ctx, s, TranscriptKey(projectID), validateTranscript)
	if t != nil && t.ProjectID != projectID {
		s.discard(ctx, TranscriptKey(projectID), errMismatchedOwner)
		return nil
	}
	return t
}

// SaveTranscript writes t and re-syncs the owning project's segment count
// with the same immediacy. An immediate save supersedes a pending
// checkpoint for the same transcript.
func (s *Store) SaveTranscript(ctx context.Context, t Transcript, immediate bool) WriteResult {
	if t.Segments == nil {
		t.Segments = []transcription.Segment{}
	}
	key := TranscriptKey(t.ProjectID)

	var res WriteResult
	if immediate {
		s.CancelPending(key)
		res = s.Write(ctx, key, t)
	} else {
		s.DebouncedWrite(key, t)
		res = okResult
	}

	s.projMu.Lock()
	defer s.projMu.Unlock()
	p := s.GetProject(ctx, t.ProjectID)
	if p == nil || p.SegmentCount == len(t.Segments) {
		return res
	}
	p.SegmentCount = len(t.Segments)
	if syncRes := s.saveProjectLocked(ctx, *p, immediate); res.OK && !syncRes.OK {
		return syncRes
	}
	return res
}
