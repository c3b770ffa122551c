package store

import (
	"context"
	"errors"
	"strings"

	"github.com/kbukum/interviewscribe/logger"
)

var errMismatchedOwner = errors.New("transcript belongs to another project")

const probeKey = "ii:probe"

// StorageReport summarizes storage usage.
type StorageReport struct {
	UsageBytes   int64   `json:"usageBytes"`
	UsageMB      float64 `json:"usageMB"`
	ProjectCount int     `json:"projectCount"`
	Available    bool    `json:"available"`
}

// CleanupOrphans deletes transcripts whose project no longer exists.
func (s *Store) CleanupOrphans(ctx context.Context) (int, error) {
	keys, err := s.backend.Keys(ctx, TranscriptPrefix)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool)
	for _, p := range s.ListProjects(ctx) {
		known[p.ID] = true
	}
	removed := 0
	for _, k := range keys {
		if known[strings.TrimPrefix(k, TranscriptPrefix)] {
			continue
		}
		if res := s.Delete(ctx, k); !res.OK {
			return removed, res.Err()
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("Removed orphaned transcripts", logger.Fields("count", removed))
	}
	return removed, nil
}

// Usage sums key and value byte lengths of every stored record.
func (s *Store) Usage(ctx context.Context) (int64, error) {
	keys, err := s.backend.Keys(ctx, "")
	if err != nil {
		return 0, err
	}
	var total int64
	for _, k := range keys {
		v, ok, err := s.backend.Get(ctx, k)
		if err != nil {
			return 0, err
		}
		if ok {
			total += int64(len(k) + len(v))
		}
	}
	return total, nil
}

// Report summarizes usage, project count and availability.
func (s *Store) Report(ctx context.Context) StorageReport {
	r := StorageReport{
		ProjectCount: len(s.ListProjects(ctx)),
		Available:    s.Available(ctx),
	}
	usage, err := s.Usage(ctx)
	if err != nil {
		s.log.Warn("Usage unavailable", logger.Fields(logger.FieldError, err.Error()))
		return r
	}
	r.UsageBytes = usage
	r.UsageMB = float64(usage) / (1024 * 1024)
	return r
}

// ReconcileInterrupted marks projects left uploading or processing by a
// previous process as interrupted. It assumes a single process runs
// transcriptions against the store; a run owned by another live process
// would be marked as well.
func (s *Store) ReconcileInterrupted(ctx context.Context) (int, error) {
	s.projMu.Lock()
	defer s.projMu.Unlock()
	list := s.ListProjects(ctx)
	changed := 0
	now := s.now().UTC()
	for i := range list {
		if list[i].Status.Active() {
			list[i].Status = StatusInterrupted
			list[i].UpdatedAt = now
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.Write(ctx, KeyProjects, list).Err(); err != nil {
		return 0, err
	}
	s.log.Warn("Marked interrupted projects", logger.Fields("count", changed))
	return changed, nil
}

// Available probes the backend with a write, read and delete.
func (s *Store) Available(ctx context.Context) bool {
	if err := s.backend.Set(ctx, probeKey, []byte("1")); err != nil {
		return false
	}
	_, ok, err := s.backend.Get(ctx, probeKey)
	_ = s.backend.Delete(ctx, probeKey)
	return err == nil && ok
}
