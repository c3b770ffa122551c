package orchestrator

import (
	"context"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/observability"
	"github.com/kbukum/interviewscribe/store"
	"github.com/kbukum/interviewscribe/transcription"
)

// Run outcomes recorded on spans and metrics.
const (
	outcomeCompleted = "completed"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

// execute drives one run to a terminal state. Store writes after the run
// context ends use a context detached from its cancellation.
func (o *Orchestrator) execute(ctx context.Context, h *handle, job Job, cred string, tr Transcriber) {
	defer close(h.done)
	defer h.cancel()

	ctx, rt := observability.StartRun(ctx, job.ProjectID, o.deps.Metrics)
	persist := context.WithoutCancel(ctx)
	log := o.log.WithFields(logger.Fields(logger.FieldProjectID, job.ProjectID))

	var (
		fileURI  string
		segments []transcription.Segment
		err      error
	)
	fileURI, err = o.deps.Uploader.Upload(ctx, job.Source, cred, func(pct int) {
		o.dispatch(Event{Type: EventProgress, Progress: pct})
	})
	if err == nil {
		o.persistStatus(persist, job.ProjectID, store.StatusProcessing, nil)
		o.dispatch(Event{Type: EventUploadComplete, FileURI: fileURI})
		log.Info("Upload complete, transcribing", logger.Fields("file_uri", fileURI))

		media := transcription.Media{
			FileURI:  fileURI,
			MimeType: job.Source.MimeType(),
			Duration: o.duration(persist, job),
		}
		var accepted []transcription.Segment
		segments, err = tr.Assemble(ctx, media, func(pct int, seg *transcription.Segment) {
			if pct >= 100 || seg == nil {
				o.dispatch(Event{Type: EventProgress, Progress: pct})
				return
			}
			accepted = append(accepted, *seg)
			o.dispatch(Event{Type: EventProgress, Progress: pct, Segment: seg})
			o.deps.Store.SaveTranscript(persist, store.Transcript{
				ProjectID: job.ProjectID,
				Segments:  accepted,
				FileURI:   fileURI,
			}, false)
		})
	}

	// A cancel that lands after the last round still ends as cancelled.
	cancelling := ctx.Err() != nil || o.Snapshot().State == StateCancelling
	var outcome string
	switch {
	case cancelling || errors.IsCancelled(err):
		outcome = outcomeCancelled
		err = nil
		o.cancelled(persist, log, job, fileURI, segments)
	case err == nil:
		outcome = outcomeCompleted
		o.complete(persist, log, job, fileURI, segments)
	default:
		outcome = outcomeError
		o.failed(persist, log, job, err)
		h.err = err
	}

	rt.End(persist, outcome, len(segments), err)
}

func (o *Orchestrator) complete(ctx context.Context, log *logger.Logger, job Job, fileURI string, segments []transcription.Segment) {
	done := o.now().UTC()
	res := o.deps.Store.SaveTranscript(ctx, store.Transcript{
		ProjectID:   job.ProjectID,
		Segments:    segments,
		CompletedAt: &done,
		FileURI:     fileURI,
	}, true)
	o.warnOnFailure(log, "final transcript write", res)

	n := len(segments)
	o.warnOnFailure(log, "project status update",
		o.deps.Store.UpdateProjectStatus(ctx, job.ProjectID, store.StatusCompleted, &n))
	if p := o.deps.Store.GetProject(ctx, job.ProjectID); p != nil {
		if last := maxTimestamp(segments); last > p.FileInfo.Duration {
			info := p.FileInfo
			info.Duration = last
			o.warnOnFailure(log, "duration correction",
				o.deps.Store.UpdateProjectFile(ctx, job.ProjectID, info))
		}
	}

	o.dispatch(Event{Type: EventComplete, Segments: segments})
	log.Info("Run completed", logger.Fields(logger.FieldSegments, n))
}

func (o *Orchestrator) cancelled(ctx context.Context, log *logger.Logger, job Job, fileURI string, segments []transcription.Segment) {
	o.dispatch(Event{Type: EventCancel})
	o.dispatch(Event{Type: EventCancelled, Segments: segments})

	if len(segments) == 0 {
		// Nothing new to record; keep any partial a previous run persisted.
		o.warnOnFailure(log, "pending write flush", o.deps.Store.Flush(ctx))
		o.persistStatus(ctx, job.ProjectID, store.StatusCancelled, nil)
	} else {
		res := o.deps.Store.SaveTranscript(ctx, store.Transcript{
			ProjectID: job.ProjectID,
			Segments:  segments,
			FileURI:   fileURI,
		}, true)
		o.warnOnFailure(log, "partial transcript write", res)
		n := len(segments)
		o.persistStatus(ctx, job.ProjectID, store.StatusCancelled, &n)
	}
	log.Info("Run cancelled", logger.Fields(logger.FieldSegments, len(segments)))
}

func (o *Orchestrator) failed(ctx context.Context, log *logger.Logger, job Job, err error) {
	o.dispatch(Event{Type: EventError, Err: message(err)})
	o.persistStatus(ctx, job.ProjectID, store.StatusError, nil)
	log.Error("Run failed", logger.Fields(logger.FieldError, err.Error()))
}

func (o *Orchestrator) persistStatus(ctx context.Context, projectID string, status store.Status, count *int) {
	res := o.deps.Store.UpdateProjectStatus(ctx, projectID, status, count)
	o.warnOnFailure(o.log.WithFields(logger.Fields(logger.FieldProjectID, projectID)), "project status update", res)
}

// warnOnFailure logs a failed write. Storage failures never change the run.
func (o *Orchestrator) warnOnFailure(log *logger.Logger, op string, res store.WriteResult) {
	if res.OK {
		return
	}
	log.Warn("Storage write failed, progress is not being saved", logger.Fields(
		logger.FieldOperation, op, logger.FieldError, string(res.Error), "message", res.Message))
}

func (o *Orchestrator) duration(ctx context.Context, job Job) float64 {
	if job.Duration > 0 {
		return job.Duration
	}
	if p := o.deps.Store.GetProject(ctx, job.ProjectID); p != nil {
		return p.FileInfo.Duration
	}
	return 0
}

func maxTimestamp(segments []transcription.Segment) float64 {
	var m float64
	for _, s := range segments {
		if s.Timestamp > m {
			m = s.Timestamp
		}
	}
	return m
}

// message is the user-facing text of err.
func message(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
