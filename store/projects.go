package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/validation"
)

// Status is the lifecycle status of a project.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusUploading   Status = "uploading"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusCancelled   Status = "cancelled"
	StatusInterrupted Status = "interrupted"
)

// Active reports whether a run was in flight with this status.
func (s Status) Active() bool {
	return s == StatusUploading || s == StatusProcessing
}

// FileInfo describes the recording of a project.
type FileInfo struct {
	Name string `json:"name" validate:"required" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Size int64  `json:"size" validate:"gte=0" yaml:"size"`
	// Duration in seconds, zero when unknown.
	Duration float64 `json:"duration" validate:"gte=0" yaml:"duration"`
}

// Project is a transcription project.
type Project struct {
	ID           string    `json:"id" validate:"required" yaml:"id"`
	Name         string    `json:"name" validate:"required" yaml:"name"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updatedAt"`
	Status       Status    `json:"status" validate:"required,oneof=idle uploading processing completed error cancelled interrupted" yaml:"status"`
	FileInfo     FileInfo  `json:"fileInfo" yaml:"fileInfo"`
	SegmentCount int       `json:"segmentCount" validate:"gte=0" yaml:"segmentCount"`

	Interviewee      *string `json:"interviewee" yaml:"interviewee"`
	Interviewer      *string `json:"interviewer" yaml:"interviewer"`
	Participants     *string `json:"participants" yaml:"participants"`
	InterviewDate    *string `json:"interviewDate" yaml:"interviewDate"`
	OriginalLanguage *string `json:"originalLanguage" yaml:"originalLanguage"`
	Location         *string `json:"location" yaml:"location"`
}

// MetadataPatch updates interview metadata. Nil fields are left unchanged.
// A pointer to a blank string clears the field.
type MetadataPatch struct {
	Interviewee      *string
	Interviewer      *string
	Participants     *string
	InterviewDate    *string
	OriginalLanguage *string
	Location         *string
}

func (p MetadataPatch) apply(dst *Project) {
	set := func(field **string, v *string) {
		if v == nil {
			return
		}
		if strings.TrimSpace(*v) == "" {
			*field = nil
			return
		}
		val := strings.TrimSpace(*v)
		*field = &val
	}
	set(&dst.Interviewee, p.Interviewee)
	set(&dst.Interviewer, p.Interviewer)
	set(&dst.Participants, p.Participants)
	set(&dst.InterviewDate, p.InterviewDate)
	set(&dst.OriginalLanguage, p.OriginalLanguage)
	set(&dst.Location, p.Location)
}

// validateProjects drops invalid entries in place. The list itself is only
// rejected when it fails to decode.
func (s *Store) validateProjects(list *[]Project) error {
	kept := (*list)[:0]
	for _, p := range *list {
		if err := validation.Validate(p); err != nil {
			s.log.Warn("Dropping invalid project", logger.Fields(logger.FieldProjectID, p.ID, logger.FieldError, err.Error()))
			continue
		}
		kept = append(kept, p)
	}
	*list = kept
	return nil
}

// ListProjects returns every project in stored order.
func (s *Store) ListProjects(ctx context.Context) []Project {
	list := Read(ctx, s, KeyProjects, s.validateProjects)
	if list == nil {
		return []Project{}
	}
	return *list
}

// GetProject returns the project with id, or nil.
func (s *Store) GetProject(ctx context.Context, id string) *Project {
	for _, p := range s.ListProjects(ctx) {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// CreateProject creates and immediately saves an idle project.
func (s *Store) CreateProject(ctx context.Context, name string, info FileInfo) (Project, WriteResult) {
	now := s.now().UTC()
	p := Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusIdle,
		FileInfo:  info,
	}
	if err := validation.Validate(p); err != nil {
		return p, WriteResult{Error: ErrorUnknown, Message: err.Error()}
	}
	s.projMu.Lock()
	defer s.projMu.Unlock()
	list := append(s.ListProjects(ctx), p)
	res := s.Write(ctx, KeyProjects, list)
	if res.OK {
		s.log.Info("Project created", logger.Fields(logger.FieldProjectID, p.ID, "name", name))
	}
	return p, res
}

// SaveProject stamps UpdatedAt and upserts p.
func (s *Store) SaveProject(ctx context.Context, p Project, immediate bool) WriteResult {
	s.projMu.Lock()
	defer s.projMu.Unlock()
	return s.saveProjectLocked(ctx, p, immediate)
}

func (s *Store) saveProjectLocked(ctx context.Context, p Project, immediate bool) WriteResult {
	p.UpdatedAt = s.now().UTC()
	list := s.ListProjects(ctx)
	replaced := false
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, p)
	}
	if !immediate {
		s.DebouncedWrite(KeyProjects, list)
		return okResult
	}
	return s.Write(ctx, KeyProjects, list)
}

// updateProject applies fn to the project with id and saves immediately.
// A missing project is a no-op.
func (s *Store) updateProject(ctx context.Context, id string, fn func(*Project)) (*Project, WriteResult) {
	s.projMu.Lock()
	defer s.projMu.Unlock()
	p := s.GetProject(ctx, id)
	if p == nil {
		s.log.Debug("Update of unknown project ignored", logger.Fields(logger.FieldProjectID, id))
		return nil, okResult
	}
	fn(p)
	return p, s.saveProjectLocked(ctx, *p, true)
}

// UpdateProjectStatus sets the status and, when segmentCount is non-nil, the count.
func (s *Store) UpdateProjectStatus(ctx context.Context, id string, status Status, segmentCount *int) WriteResult {
	_, res := s.updateProject(ctx, id, func(p *Project) {
		p.Status = status
		if segmentCount != nil {
			p.SegmentCount = *segmentCount
		}
	})
	return res
}

// UpdateProjectMetadata applies patch to the interview metadata.
func (s *Store) UpdateProjectMetadata(ctx context.Context, id string, patch MetadataPatch) (*Project, WriteResult) {
	return s.updateProject(ctx, id, patch.apply)
}

// UpdateProjectFile replaces the file info of a project.
func (s *Store) UpdateProjectFile(ctx context.Context, id string, info FileInfo) WriteResult {
	_, res := s.updateProject(ctx, id, func(p *Project) { p.FileInfo = info })
	return res
}

// RenameProject sets the display name.
func (s *Store) RenameProject(ctx context.Context, id, name string) (*Project, WriteResult) {
	return s.updateProject(ctx, id, func(p *Project) { p.Name = name })
}

// DeleteProject removes a project and its transcript.
func (s *Store) DeleteProject(ctx context.Context, id string) WriteResult {
	s.projMu.Lock()
	list := s.ListProjects(ctx)
	kept := make([]Project, 0, len(list))
	for _, p := range list {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	res := s.Write(ctx, KeyProjects, kept)
	s.projMu.Unlock()
	if !res.OK {
		return res
	}
	res = s.Delete(ctx, TranscriptKey(id))
	s.log.Info("Project deleted", logger.Fields(logger.FieldProjectID, id))
	return res
}
