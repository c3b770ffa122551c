package orchestrator

import (
	"slices"

	"github.com/kbukum/interviewscribe/transcription"
)

// State is the lifecycle state of a run.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateProcessing State = "processing"
	StateCancelling State = "cancelling"
	StateCancelled  State = "cancelled"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Active reports whether a run is in flight.
func (s State) Active() bool {
	return s == StateUploading || s == StateProcessing || s == StateCancelling
}

// Terminal reports whether the run has ended and only reset applies.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted || s == StateError
}

// EventType names an input of the transition table.
type EventType string

const (
	EventStart          EventType = "start"
	EventUploadComplete EventType = "upload-complete"
	EventProgress       EventType = "progress"
	EventComplete       EventType = "complete"
	EventCancel         EventType = "cancel"
	EventCancelled      EventType = "cancelled"
	EventError          EventType = "error"
	EventResume         EventType = "resume"
	EventReset          EventType = "reset"
	EventRestore        EventType = "restore"
)

// Event is one input to Transition. Only the fields relevant to Type are read.
type Event struct {
	Type      EventType
	ProjectID string
	FileURI   string
	Progress  int
	Segment   *transcription.Segment
	Segments  []transcription.Segment
	Err       string
}

// Run is the in-memory state of a transcription run.
type Run struct {
	State         State                   `json:"state"`
	Progress      int                     `json:"progress"`
	Transcript    []transcription.Segment `json:"transcript"`
	StaleSegments []transcription.Segment `json:"staleSegments,omitempty"`
	Err           string                  `json:"error,omitempty"`
	FileURI       string                  `json:"fileUri,omitempty"`
	ProjectID     string                  `json:"projectId,omitempty"`
}

// Initial returns the idle run.
func Initial() Run {
	return Run{State: StateIdle}
}

// Clone returns a copy that shares no slices with r.
func (r Run) Clone() Run {
	r.Transcript = slices.Clone(r.Transcript)
	r.StaleSegments = slices.Clone(r.StaleSegments)
	return r
}

// Transition applies ev to run. Undefined pairs return run unchanged.
// Segment slices are never written in place, so earlier runs stay valid.
func Transition(run Run, ev Event) Run {
	switch run.State {
	case StateIdle:
		switch ev.Type {
		case EventStart:
			next := Initial()
			next.State = StateUploading
			next.ProjectID = ev.ProjectID
			return next
		case EventRestore:
			next := Initial()
			next.State = StateCancelled
			next.ProjectID = ev.ProjectID
			next.FileURI = ev.FileURI
			next.Transcript = ev.Segments
			return next
		}

	case StateUploading:
		switch ev.Type {
		case EventUploadComplete:
			run.State = StateProcessing
			run.FileURI = ev.FileURI
			run.Progress = 0
			return run
		case EventProgress:
			return progress(run, ev)
		case EventCancel:
			run.State = StateCancelling
			return run
		case EventError:
			return failed(run, ev)
		}

	case StateProcessing:
		switch ev.Type {
		case EventProgress:
			return progress(run, ev)
		case EventComplete:
			return completed(run, ev)
		case EventCancel:
			run.State = StateCancelling
			return run
		case EventError:
			return failed(run, ev)
		}

	case StateCancelling:
		switch ev.Type {
		// A cancel that arrives while the finished transcript is being
		// written loses to it.
		case EventComplete:
			return completed(run, ev)
		case EventCancelled:
			run.State = StateCancelled
			run.Transcript = ev.Segments
			return run
		case EventError:
			return failed(run, ev)
		}

	case StateCancelled:
		switch ev.Type {
		case EventResume:
			next := Initial()
			next.State = StateUploading
			next.ProjectID = run.ProjectID
			if ev.ProjectID != "" {
				next.ProjectID = ev.ProjectID
			}
			next.StaleSegments = run.Transcript
			return next
		case EventReset:
			return Initial()
		}

	case StateCompleted, StateError:
		if ev.Type == EventReset {
			return Initial()
		}
	}
	return run
}

func progress(run Run, ev Event) Run {
	run.Progress = ev.Progress
	if ev.Segment != nil {
		run.Transcript = append(slices.Clip(run.Transcript), *ev.Segment)
	}
	return run
}

func completed(run Run, ev Event) Run {
	run.State = StateCompleted
	run.Progress = 100
	run.StaleSegments = nil
	if ev.Segments != nil {
		run.Transcript = ev.Segments
	}
	return run
}

func failed(run Run, ev Event) Run {
	run.State = StateError
	run.Err = ev.Err
	return run
}
