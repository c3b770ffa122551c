package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/validation"
)

// CurrentSchemaVersion is the schema version written by this build.
const CurrentSchemaVersion = 2

// Durable keys.
const (
	KeyMeta          = "ii:meta"
	KeyProjects      = "ii:projects"
	TranscriptPrefix = "ii:transcript:"
)

// TranscriptKey returns the key of a project's transcript.
func TranscriptKey(projectID string) string {
	return TranscriptPrefix + projectID
}

// Meta is the schema bookkeeping record.
type Meta struct {
	SchemaVersion int       `json:"schemaVersion" validate:"gte=1"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Migration upgrades stored data to Version.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, s *Store) error
}

// MigrationReport describes what Initialize did.
type MigrationReport struct {
	FirstRun    bool     `json:"firstRun"`
	FromVersion int      `json:"fromVersion"`
	ToVersion   int      `json:"toVersion"`
	Applied     []string `json:"applied,omitempty"`
	// Failed names the migration that halted the upgrade.
	Failed string `json:"failed,omitempty"`
	Err    error  `json:"-"`
}

// OK reports whether the stored schema is usable without a failed step.
func (r MigrationReport) OK() bool { return r.Failed == "" }

// DefaultMigrations returns the built-in migrations.
func DefaultMigrations() []Migration {
	return []Migration{
		{Version: 2, Name: "add-interview-metadata", Up: addInterviewMetadata},
	}
}

func validateMeta(m *Meta) error { return validation.Validate(m) }

// Initialize stamps a fresh store or upgrades an older one. It never fails:
// a failing migration halts the upgrade and is reported.
func (s *Store) Initialize(ctx context.Context) MigrationReport {
	meta := Read(ctx, s, KeyMeta, validateMeta)
	if meta == nil {
		report := MigrationReport{FirstRun: true, ToVersion: CurrentSchemaVersion}
		if res := s.writeMeta(ctx, CurrentSchemaVersion); !res.OK {
			report.Failed = "stamp-schema"
			report.Err = res.Err()
		}
		s.log.Info("Store initialized", logger.Fields("schema_version", CurrentSchemaVersion))
		return report
	}

	report := MigrationReport{FromVersion: meta.SchemaVersion, ToVersion: meta.SchemaVersion}
	if meta.SchemaVersion > CurrentSchemaVersion {
		s.log.Warn("Stored schema is newer than this build", logger.Fields(
			"stored_version", meta.SchemaVersion, "current_version", CurrentSchemaVersion))
		return report
	}
	if meta.SchemaVersion == CurrentSchemaVersion {
		return report
	}

	steps := make([]Migration, 0, len(s.migrations))
	for _, m := range s.migrations {
		if m.Version > meta.SchemaVersion && m.Version <= CurrentSchemaVersion {
			steps = append(steps, m)
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Version < steps[j].Version })

	for _, m := range steps {
		err := m.Up(ctx, s)
		if err == nil {
			err = s.writeMeta(ctx, m.Version).Err()
		}
		if err != nil {
			report.Failed = m.Name
			report.Err = err
			s.log.Error("Migration failed", logger.Fields("migration", m.Name, "version", m.Version, logger.FieldError, err.Error()))
			return report
		}
		report.Applied = append(report.Applied, m.Name)
		report.ToVersion = m.Version
		s.log.Info("Migration applied", logger.Fields("migration", m.Name, "version", m.Version))
	}
	return report
}

func (s *Store) writeMeta(ctx context.Context, version int) WriteResult {
	return s.Write(ctx, KeyMeta, Meta{SchemaVersion: version, LastUpdated: s.now().UTC()})
}

var interviewMetadataFields = []string{
	"interviewee", "interviewer", "participants", "interviewDate", "originalLanguage", "location",
}

// addInterviewMetadata back-fills the nullable interview fields on every project.
func addInterviewMetadata(ctx context.Context, s *Store) error {
	data, ok, err := s.raw(ctx, KeyProjects)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var projects []map[string]json.RawMessage
	if err := json.Unmarshal(data, &projects); err != nil {
		return fmt.Errorf("decode projects: %w", err)
	}
	for _, p := range projects {
		if p == nil {
			continue
		}
		for _, field := range interviewMetadataFields {
			if _, exists := p[field]; !exists {
				p[field] = json.RawMessage("null")
			}
		}
	}
	return s.Write(ctx, KeyProjects, projects).Err()
}
