package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/transcription"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *MemoryBackend) {
	t.Helper()
	b := NewMemoryBackend()
	return New(b, logger.Nop(), opts...), b
}

type record struct {
	Name string `json:"name"`
}

func requireName(r *record) error {
	if r.Name == "" {
		return errors.New("name required")
	}
	return nil
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		stored    string
		wantNil   bool
		wantKept  bool
		wantValue string
	}{
		{name: "missing", wantNil: true},
		{name: "valid", stored: `{"name":"a"}`, wantValue: "a", wantKept: true},
		{name: "corrupt json", stored: `{"name":`, wantNil: true},
		{name: "fails validation", stored: `{"name":""}`, wantNil: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, b := newTestStore(t)
			if tc.stored != "" {
				_ = b.Set(ctx, "k", []byte(tc.stored))
			}
			got := Read(ctx, s, "k", requireName)
			if tc.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
			} else if got == nil || got.Name != tc.wantValue {
				t.Fatalf("got %+v, want name %q", got, tc.wantValue)
			}
			_, exists, _ := b.Get(ctx, "k")
			if tc.stored != "" && exists != tc.wantKept {
				t.Errorf("key exists = %v, want %v", exists, tc.wantKept)
			}
		})
	}
}

func TestWrite_Results(t *testing.T) {
	ctx := context.Background()

	s, b := newTestStore(t)
	if res := s.Write(ctx, "k", record{Name: "x"}); !res.OK {
		t.Fatalf("write failed: %+v", res)
	}

	b.SetQuota(8)
	res := s.Write(ctx, "big", record{Name: strings.Repeat("x", 64)})
	if res.OK || res.Error != ErrorQuotaExceeded {
		t.Errorf("quota: got %+v", res)
	}

	b.SetQuota(0)
	b.SetDisabled(true)
	res = s.Write(ctx, "k", record{Name: "y"})
	if res.OK || res.Error != ErrorStorageUnavailable {
		t.Errorf("disabled: got %+v", res)
	}

	b.SetDisabled(false)
	res = s.Write(ctx, "k", make(chan int))
	if res.OK || res.Error != ErrorUnknown {
		t.Errorf("unmarshalable: got %+v", res)
	}
	if res.Err() == nil {
		t.Error("expected Err() for failed result")
	}
}

func TestDebouncedWrite_CoalescesPerKey(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, WithDebounce(100*time.Millisecond))

	s.DebouncedWrite("a", record{Name: "1"})
	s.DebouncedWrite("a", record{Name: "2"})
	s.DebouncedWrite("b", record{Name: "3"})

	if _, ok, _ := b.Get(ctx, "a"); ok {
		t.Fatal("write happened before the quiet period")
	}
	if got := Read[record](ctx, s, "a", nil); got == nil || got.Name != "2" {
		t.Fatalf("pending value not visible to reads: %+v", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// the timer may still be writing after pending was swapped out
	_ = s.Flush(ctx)

	raw, ok, _ := b.Get(ctx, "a")
	if !ok || !strings.Contains(string(raw), `"2"`) {
		t.Errorf("a = %s", raw)
	}
	if _, ok, _ := b.Get(ctx, "b"); !ok {
		t.Error("b not flushed")
	}
}

func TestDebouncedWrite_SerializesAtCallTime(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, WithDebounce(time.Hour))

	v := &record{Name: "before"}
	s.DebouncedWrite("k", v)
	v.Name = "after"
	s.Flush(ctx)

	raw, _, _ := b.Get(ctx, "k")
	if !strings.Contains(string(raw), "before") {
		t.Errorf("stored %s", raw)
	}
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, WithDebounce(time.Hour))

	if res := s.Flush(ctx); !res.OK {
		t.Fatalf("empty flush: %+v", res)
	}

	s.DebouncedWrite("a", record{Name: "a"})
	s.DebouncedWrite("b", record{Name: "b"})
	s.CancelPending("b")
	if res := s.Close(ctx); !res.OK {
		t.Fatalf("flush: %+v", res)
	}
	if _, ok, _ := b.Get(ctx, "a"); !ok {
		t.Error("a not flushed")
	}
	if _, ok, _ := b.Get(ctx, "b"); ok {
		t.Error("cancelled entry was flushed")
	}
	if res := s.Flush(ctx); !res.OK || s.Pending() != 0 {
		t.Error("second flush should be a no-op")
	}

	s.DebouncedWrite("c", record{Name: "c"})
	b.SetDisabled(true)
	if res := s.Flush(ctx); res.OK || res.Error != ErrorStorageUnavailable {
		t.Errorf("expected unavailable, got %+v", res)
	}
}

func TestWrite_SupersedesPending(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, WithDebounce(time.Hour))

	s.DebouncedWrite("k", record{Name: "checkpoint"})
	s.Write(ctx, "k", record{Name: "final"})
	s.Flush(ctx)

	raw, _, _ := b.Get(ctx, "k")
	if !strings.Contains(string(raw), "final") {
		t.Errorf("stored %s", raw)
	}
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("first run stamps schema", func(t *testing.T) {
		s, _ := newTestStore(t)
		report := s.Initialize(ctx)
		if !report.FirstRun || report.ToVersion != CurrentSchemaVersion || !report.OK() {
			t.Fatalf("report = %+v", report)
		}
		meta := Read(ctx, s, KeyMeta, validateMeta)
		if meta == nil || meta.SchemaVersion != CurrentSchemaVersion {
			t.Fatalf("meta = %+v", meta)
		}
	})

	t.Run("corrupt meta is restamped", func(t *testing.T) {
		s, b := newTestStore(t)
		_ = b.Set(ctx, KeyMeta, []byte("not json"))
		if report := s.Initialize(ctx); !report.FirstRun {
			t.Fatalf("report = %+v", report)
		}
	})

	t.Run("v1 projects gain metadata fields", func(t *testing.T) {
		s, b := newTestStore(t)
		_ = b.Set(ctx, KeyMeta, []byte(`{"schemaVersion":1}`))
		_ = b.Set(ctx, KeyProjects, []byte(`[{"id":"p1","name":"n","status":"idle","fileInfo":{"name":"f"},"segmentCount":0,"legacy":true}]`))

		report := s.Initialize(ctx)
		if report.FromVersion != 1 || report.ToVersion != 2 || len(report.Applied) != 1 {
			t.Fatalf("report = %+v", report)
		}
		raw, _, _ := b.Get(ctx, KeyProjects)
		var list []map[string]any
		if err := json.Unmarshal(raw, &list); err != nil {
			t.Fatal(err)
		}
		for _, f := range interviewMetadataFields {
			v, ok := list[0][f]
			if !ok || v != nil {
				t.Errorf("%s = %v (present %v)", f, v, ok)
			}
		}
		if list[0]["legacy"] != true {
			t.Error("unknown fields must be preserved")
		}
	})

	t.Run("failing migration halts", func(t *testing.T) {
		boom := errors.New("boom")
		s, b := newTestStore(t, WithMigrations(
			Migration{Version: 2, Name: "broken", Up: func(context.Context, *Store) error { return boom }},
		))
		_ = b.Set(ctx, KeyMeta, []byte(`{"schemaVersion":1}`))
		report := s.Initialize(ctx)
		if report.OK() || report.Failed != "broken" || !errors.Is(report.Err, boom) {
			t.Fatalf("report = %+v", report)
		}
		if meta := Read(ctx, s, KeyMeta, validateMeta); meta.SchemaVersion != 1 {
			t.Errorf("version advanced to %d", meta.SchemaVersion)
		}
	})

	t.Run("newer schema proceeds", func(t *testing.T) {
		s, b := newTestStore(t)
		_ = b.Set(ctx, KeyMeta, []byte(`{"schemaVersion":99}`))
		report := s.Initialize(ctx)
		if !report.OK() || report.FromVersion != 99 || len(report.Applied) != 0 {
			t.Fatalf("report = %+v", report)
		}
	})
}

func TestProjects(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p, res := s.CreateProject(ctx, "Interview", FileInfo{Name: "a.mp3", Type: "audio/mpeg", Size: 10})
	if !res.OK || p.ID == "" || p.Status != StatusIdle || p.Interviewee != nil {
		t.Fatalf("create: %+v %+v", p, res)
	}

	if got := s.GetProject(ctx, p.ID); got == nil || got.Name != "Interview" {
		t.Fatalf("get: %+v", got)
	}

	count := 4
	s.UpdateProjectStatus(ctx, p.ID, StatusProcessing, &count)
	got := s.GetProject(ctx, p.ID)
	if got.Status != StatusProcessing || got.SegmentCount != 4 {
		t.Errorf("status update: %+v", got)
	}

	who, blank := " Ana ", ""
	updated, _ := s.UpdateProjectMetadata(ctx, p.ID, MetadataPatch{Interviewee: &who, Location: &blank})
	if updated.Interviewee == nil || *updated.Interviewee != "Ana" || updated.Location != nil {
		t.Errorf("metadata: %+v", updated)
	}

	s.RenameProject(ctx, p.ID, "Renamed")
	if got := s.GetProject(ctx, p.ID); got.Name != "Renamed" {
		t.Errorf("rename: %q", got.Name)
	}

	if res := s.UpdateProjectStatus(ctx, "missing", StatusError, nil); !res.OK {
		t.Error("unknown project update should be a no-op")
	}

	s.SaveTranscript(ctx, Transcript{ProjectID: p.ID}, true)
	if res := s.DeleteProject(ctx, p.ID); !res.OK {
		t.Fatalf("delete: %+v", res)
	}
	if s.GetProject(ctx, p.ID) != nil || s.GetTranscript(ctx, p.ID) != nil {
		t.Error("project or transcript survived delete")
	}
}

func TestListProjects_DropsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t)
	_ = b.Set(ctx, KeyProjects, []byte(`[{"id":"ok","name":"n","status":"idle","fileInfo":{"name":"f"}},{"id":"","name":"bad"}]`))

	list := s.ListProjects(ctx)
	if len(list) != 1 || list[0].ID != "ok" {
		t.Errorf("list = %+v", list)
	}
}

func TestSaveTranscript_SyncsSegmentCount(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, WithDebounce(time.Hour))
	p, _ := s.CreateProject(ctx, "n", FileInfo{Name: "f"})

	segs := []transcription.Segment{
		{Speaker: "A", OriginalText: "hola", EnglishText: "hello", Timestamp: 1.25},
		{Speaker: "B", OriginalText: "adios", Timestamp: 2.0000001},
	}

	s.SaveTranscript(ctx, Transcript{ProjectID: p.ID, Segments: segs[:1]}, false)
	if _, ok, _ := b.Get(ctx, TranscriptKey(p.ID)); ok {
		t.Fatal("debounced save wrote immediately")
	}
	if got := s.GetProject(ctx, p.ID); got.SegmentCount != 1 {
		t.Errorf("pending count = %d", got.SegmentCount)
	}

	now := time.Now()
	res := s.SaveTranscript(ctx, Transcript{ProjectID: p.ID, Segments: segs, CompletedAt: &now}, true)
	if !res.OK {
		t.Fatalf("save: %+v", res)
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d after immediate save", s.Pending())
	}
	tr := s.GetTranscript(ctx, p.ID)
	if tr == nil || len(tr.Segments) != 2 || !tr.Complete() {
		t.Fatalf("transcript = %+v", tr)
	}
	if !reflect.DeepEqual(tr.Segments, segs) {
		t.Errorf("segments = %+v, want %+v", tr.Segments, segs)
	}
	if got := s.GetProject(ctx, p.ID); got.SegmentCount != 2 {
		t.Errorf("count = %d", got.SegmentCount)
	}
}

func TestHousekeeping(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t)

	p, _ := s.CreateProject(ctx, "n", FileInfo{Name: "f"})
	s.SaveTranscript(ctx, Transcript{ProjectID: p.ID}, true)
	s.SaveTranscript(ctx, Transcript{ProjectID: "gone"}, true)

	removed, err := s.CleanupOrphans(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("cleanup = %d, %v", removed, err)
	}
	if _, ok, _ := b.Get(ctx, TranscriptKey(p.ID)); !ok {
		t.Error("live transcript removed")
	}

	usage, err := s.Usage(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var want int64
	keys, _ := b.Keys(ctx, "")
	for _, k := range keys {
		v, _, _ := b.Get(ctx, k)
		want += int64(len(k) + len(v))
	}
	if usage != want {
		t.Errorf("usage = %d, want %d", usage, want)
	}

	s.UpdateProjectStatus(ctx, p.ID, StatusUploading, nil)
	other, _ := s.CreateProject(ctx, "done", FileInfo{Name: "g"})
	s.UpdateProjectStatus(ctx, other.ID, StatusCompleted, nil)

	n, err := s.ReconcileInterrupted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("reconcile = %d, %v", n, err)
	}
	if got := s.GetProject(ctx, p.ID); got.Status != StatusInterrupted {
		t.Errorf("status = %s", got.Status)
	}
	if got := s.GetProject(ctx, other.ID); got.Status != StatusCompleted {
		t.Errorf("completed project changed to %s", got.Status)
	}

	report := s.Report(ctx)
	if !report.Available || report.ProjectCount != 2 || report.UsageBytes == 0 {
		t.Errorf("report = %+v", report)
	}

	b.SetDisabled(true)
	if s.Available(ctx) {
		t.Error("disabled backend reported available")
	}
}

func TestComponent_StartKeepsActiveStatuses(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p, _ := s.CreateProject(ctx, "n", FileInfo{Name: "f"})
	s.UpdateProjectStatus(ctx, p.ID, StatusProcessing, nil)

	if err := NewComponent(s, "memory").Start(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.GetProject(ctx, p.ID); got.Status != StatusProcessing {
		t.Errorf("status = %s, another process may still own this run", got.Status)
	}
}

func TestComponent_StopFlushes(t *testing.T) {
	ctx := context.Background()
	s, b := newTestStore(t, WithDebounce(time.Hour))
	c := NewComponent(s, "memory")

	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	s.DebouncedWrite("k", record{Name: "x"})
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get(ctx, "k"); !ok {
		t.Error("stop did not flush")
	}
}
