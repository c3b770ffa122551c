package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/interviewscribe/credential"
	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/observability"
	"github.com/kbukum/interviewscribe/store"
	"github.com/kbukum/interviewscribe/transcription"
	"github.com/kbukum/interviewscribe/upload"
)

// Uploader moves a recording to the provider and returns its file URI.
type Uploader interface {
	Upload(ctx context.Context, src upload.Source, credential string, onProgress func(int)) (string, error)
}

// Transcriber turns an uploaded recording into segments.
type Transcriber interface {
	Assemble(ctx context.Context, media transcription.Media, onProgress transcription.ProgressFunc) ([]transcription.Segment, error)
}

// TranscriberFactory builds a Transcriber bound to the resolved credential.
type TranscriberFactory func(credential string) (Transcriber, error)

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Store        *store.Store
	Uploader     Uploader
	Transcribers TranscriberFactory
	Credentials  credential.Provider
	Logger       *logger.Logger
	Metrics      *observability.ScribeMetrics
}

// Job describes one recording to transcribe.
type Job struct {
	ProjectID string
	Source    upload.Source
	// Duration in seconds. Zero falls back to the project's file info.
	Duration float64
}

// Listener receives a snapshot after every dispatched event. Listeners run
// outside the state lock, possibly concurrently, and must not modify the
// snapshot's slices.
type Listener func(Run)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithListener registers l for state snapshots.
func WithListener(l Listener) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, l) }
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// handle tracks the goroutine of the current run.
type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Orchestrator runs at most one transcription at a time.
type Orchestrator struct {
	deps      Deps
	log       *logger.Logger
	now       func() time.Time
	listeners []Listener

	mu     sync.Mutex
	run    Run
	active *handle
}

// New validates deps and returns an idle Orchestrator. It removes
// transcripts whose project no longer exists; a failed cleanup is logged.
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.MissingField("store")
	case deps.Uploader == nil:
		return nil, errors.MissingField("uploader")
	case deps.Transcribers == nil:
		return nil, errors.MissingField("transcribers")
	case deps.Credentials == nil:
		return nil, errors.MissingField("credentials")
	}
	o := &Orchestrator{
		deps: deps,
		log:  logger.OrGlobal(deps.Logger).WithComponent("orchestrator"),
		now:  time.Now,
		run:  Initial(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, err := deps.Store.CleanupOrphans(context.Background()); err != nil {
		o.log.Warn("Orphaned transcript cleanup failed", logger.Fields(logger.FieldError, err.Error()))
	}
	return o, nil
}

// Snapshot returns a copy of the current run.
func (o *Orchestrator) Snapshot() Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run.Clone()
}

// dispatch applies ev under the lock and notifies listeners after releasing it.
func (o *Orchestrator) dispatch(ev Event) Run {
	o.mu.Lock()
	prev := o.run.State
	o.run = Transition(o.run, ev)
	snap := o.run
	o.mu.Unlock()

	if snap.State != prev {
		o.log.Debug("Run state changed", logger.Fields(
			logger.FieldEvent, string(ev.Type), "from", string(prev), logger.FieldState, string(snap.State)))
	}
	o.notify(snap)
	return snap
}

func (o *Orchestrator) notify(snap Run) {
	for _, l := range o.listeners {
		l(snap)
	}
}

// Start launches a run for job. It fails with RUN_ACTIVE while another run
// is in flight and with MISSING_CREDENTIAL when no key resolves. A run in a
// terminal state is reset first. The run stops when ctx or Cancel fires.
func (o *Orchestrator) Start(ctx context.Context, job Job) error {
	return o.launch(ctx, job, EventStart)
}

// Resume restarts the full pipeline for a cancelled run. The prior
// transcript is kept as stale segments and never merged into the new one.
func (o *Orchestrator) Resume(ctx context.Context, job Job) error {
	return o.launch(ctx, job, EventResume)
}

func (o *Orchestrator) launch(ctx context.Context, job Job, kind EventType) error {
	if err := o.admissible(kind); err != nil {
		return err
	}
	if job.Source == nil {
		return errors.MissingField("source")
	}

	cred, err := o.deps.Credentials.Credential(ctx)
	if err != nil {
		return errors.MissingCredential().WithCause(err)
	}
	if cred == "" {
		return errors.MissingCredential()
	}
	tr, err := o.deps.Transcribers(cred)
	if err != nil {
		return err
	}

	o.mu.Lock()
	if err := o.admissibleLocked(kind); err != nil {
		o.mu.Unlock()
		return err
	}
	if kind == EventResume && job.ProjectID == "" {
		job.ProjectID = o.run.ProjectID
	}
	if job.ProjectID == "" {
		o.mu.Unlock()
		return errors.MissingField("projectId")
	}
	if kind == EventStart && o.run.State.Terminal() {
		o.run = Transition(o.run, Event{Type: EventReset})
	}
	o.run = Transition(o.run, Event{Type: kind, ProjectID: job.ProjectID})
	runCtx, cancel := context.WithCancel(ctx)
	h := &handle{cancel: cancel, done: make(chan struct{})}
	o.active = h
	snap := o.run
	o.mu.Unlock()

	o.log.Info("Run started", logger.Fields(
		logger.FieldProjectID, job.ProjectID, logger.FieldEvent, string(kind), "name", job.Source.Name()))
	o.notify(snap)
	o.persistStatus(ctx, job.ProjectID, store.StatusUploading, nil)

	go o.execute(runCtx, h, job, cred, tr)
	return nil
}

func (o *Orchestrator) admissible(kind EventType) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.admissibleLocked(kind)
}

func (o *Orchestrator) admissibleLocked(kind EventType) error {
	if o.run.State.Active() {
		return errors.RunActive(string(o.run.State))
	}
	if kind == EventResume && o.run.State != StateCancelled {
		return errors.Conflict("only a cancelled run can be resumed")
	}
	return nil
}

// Wait blocks until the current run ends. A cancelled run returns a nil
// error with state cancelled. Without a run it returns the snapshot at once.
func (o *Orchestrator) Wait(ctx context.Context) (Run, error) {
	o.mu.Lock()
	h := o.active
	o.mu.Unlock()
	if h == nil {
		return o.Snapshot(), nil
	}
	select {
	case <-h.done:
		return o.Snapshot(), h.err
	case <-ctx.Done():
		return o.Snapshot(), ctx.Err()
	}
}

// Cancel asks the current run to stop. It is safe to call repeatedly.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	h := o.active
	o.mu.Unlock()
	o.dispatch(Event{Type: EventCancel})
	if h != nil {
		h.cancel()
	}
}

// Restore loads the persisted partial transcript of projectID into a
// cancelled run so it can be resumed. A project stopped before its first
// segment has no transcript and restores as an empty cancelled run.
func (o *Orchestrator) Restore(ctx context.Context, projectID string) (Run, error) {
	t := o.deps.Store.GetTranscript(ctx, projectID)
	if t == nil {
		p := o.deps.Store.GetProject(ctx, projectID)
		if p == nil || (p.Status != store.StatusCancelled && p.Status != store.StatusInterrupted) {
			return o.Snapshot(), errors.NotFound("transcript", projectID)
		}
		t = &store.Transcript{ProjectID: projectID}
	}

	o.mu.Lock()
	if o.run.State.Active() {
		state := o.run.State
		o.mu.Unlock()
		return o.Snapshot(), errors.RunActive(string(state))
	}
	if o.run.State.Terminal() {
		o.run = Transition(o.run, Event{Type: EventReset})
	}
	o.run = Transition(o.run, Event{
		Type: EventRestore, ProjectID: projectID, FileURI: t.FileURI, Segments: t.Segments,
	})
	snap := o.run
	o.mu.Unlock()

	o.log.Info("Partial transcript restored", logger.Fields(
		logger.FieldProjectID, projectID, logger.FieldSegments, len(t.Segments)))
	o.notify(snap)
	return snap.Clone(), nil
}

// Reset returns a finished run to idle. It has no effect while a run is active.
func (o *Orchestrator) Reset() Run {
	return o.dispatch(Event{Type: EventReset}).Clone()
}
