package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/httpclient"
	"github.com/kbukum/interviewscribe/llm"
	"github.com/kbukum/interviewscribe/llm/gemini"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/media"
	"github.com/kbukum/interviewscribe/observability"
	"github.com/kbukum/interviewscribe/orchestrator"
	"github.com/kbukum/interviewscribe/storage"
	_ "github.com/kbukum/interviewscribe/storage/local"
	_ "github.com/kbukum/interviewscribe/storage/s3"
	"github.com/kbukum/interviewscribe/store"
	"github.com/kbukum/interviewscribe/transcription"
	"github.com/kbukum/interviewscribe/upload"
)

type transcribeOptions struct {
	projectID string
	name      string
	duration  float64
	mimeType  string
	resume    bool
}

func newTranscribeCommand(flags *rootFlags) *cobra.Command {
	opts := &transcribeOptions{}
	cmd := &cobra.Command{
		Use:   "transcribe <file|local://path|s3://key>",
		Short: "Upload a recording and transcribe it",
		Long: `Upload a recording and assemble its bilingual transcript.

Plain paths are read from the filesystem. local:// and s3:// sources are read
through the configured object storage. Ctrl-C stops the run and keeps the
segments received so far; continue later with --project <id> --resume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, p, err := parseSource(args[0])
			if err != nil {
				return err
			}
			if opts.resume && opts.projectID == "" {
				return errors.MissingField("project")
			}
			app, err := flags.setup(true, nil)
			if err != nil {
				return err
			}

			var objects *storage.Component
			if scheme != "" {
				scfg := app.Cfg.Sources
				scfg.Provider = scheme
				objects = storage.NewComponent(scfg, app.Logger)
				if err := app.RegisterComponent(objects); err != nil {
					return err
				}
			}

			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				src, err := openSource(ctx, objects, p, opts.mimeType)
				if err != nil {
					return err
				}
				if c, ok := src.(io.Closer); ok {
					defer c.Close()
				}
				if opts.duration == 0 && scheme == "" {
					opts.duration = probeDuration(ctx, app, p)
				}
				return transcribe(ctx, cmd.OutOrStdout(), app, src, opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.projectID, "project", "", "Existing project ID (required with --resume)")
	cmd.Flags().StringVar(&opts.name, "name", "", "Name of a new project (default: file name)")
	cmd.Flags().Float64Var(&opts.duration, "duration", 0, "Recording length in seconds (default: probed with ffprobe)")
	cmd.Flags().StringVar(&opts.mimeType, "mime-type", "", "Media type (default: detected)")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Re-run a cancelled or interrupted project, keeping its partial transcript as stale")
	return cmd
}

// parseSource splits local:// and s3:// URLs. A plain path has no scheme.
func parseSource(raw string) (scheme, p string, err error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", raw, nil
	}
	switch scheme {
	case storage.ProviderLocal, storage.ProviderS3:
		if rest == "" {
			return "", "", errors.InvalidInput("source", "missing object path")
		}
		return scheme, rest, nil
	default:
		return "", "", errors.InvalidInput("source", fmt.Sprintf("unsupported scheme %q", scheme))
	}
}

func openSource(ctx context.Context, objects *storage.Component, p, mimeType string) (upload.Source, error) {
	if objects == nil {
		return upload.OpenFile(p, mimeType)
	}
	return upload.OpenObject(ctx, objects.Storage(), p, mimeType)
}

func transcribe(ctx context.Context, out io.Writer, app *Scribe, src upload.Source, opts *transcribeOptions) error {
	cfg := app.Cfg
	st := app.Store()
	log := app.Logger.WithComponent("transcribe")
	metrics := observability.DefaultScribeMetrics()

	// Runs still marked active were abandoned by an earlier process.
	if _, err := st.ReconcileInterrupted(ctx); err != nil {
		log.Warn("Interrupted reconciliation failed", logger.Fields(logger.FieldError, err.Error()))
	}

	project, err := resolveProject(ctx, st, log, src, opts)
	if err != nil {
		return err
	}
	uploader, err := upload.New(cfg.Upload, app.Logger, upload.WithMetrics(metrics))
	if err != nil {
		return err
	}
	orch, err := orchestrator.New(orchestrator.Deps{
		Store:        st,
		Uploader:     uploader,
		Transcribers: newTranscribers(cfg, app.Logger, metrics),
		Credentials:  cfg.Credentials(),
		Logger:       app.Logger,
		Metrics:      metrics,
	}, orchestrator.WithListener(progressLogger(log)))
	if err != nil {
		return err
	}

	job := orchestrator.Job{ProjectID: project.ID, Source: src, Duration: opts.duration}
	if opts.resume {
		if _, err := orch.Restore(ctx, project.ID); err != nil {
			return err
		}
		err = orch.Resume(ctx, job)
	} else {
		err = orch.Start(ctx, job)
	}
	if err != nil {
		return err
	}

	// The run observes ctx itself; waiting must outlive it so the partial
	// transcript is written before the store flushes.
	run, err := orch.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	switch run.State {
	case orchestrator.StateCompleted:
		fmt.Fprintf(out, "Transcribed %d segments into project %s (%s)\n", len(run.Transcript), project.ID, project.Name)
		return nil
	case orchestrator.StateCancelled:
		fmt.Fprintf(out, "Stopped after %d segments. Resume with: scribe transcribe <source> --project %s --resume\n",
			len(run.Transcript), project.ID)
		return errors.Cancelled()
	default:
		return errors.Internal(fmt.Errorf("run ended in state %s", run.State))
	}
}

// probeDuration asks ffprobe for the length of a local recording. Failures
// are logged and leave the duration unknown.
func probeDuration(ctx context.Context, app *Scribe, p string) float64 {
	seconds, err := media.NewProber(app.Cfg.Probe, app.Logger).Duration(ctx, p)
	switch {
	case err == nil:
		return seconds
	case stderrors.Is(err, media.ErrDisabled):
	default:
		app.Logger.Warn("Duration probe failed; pass --duration to set it", logger.Fields(logger.FieldError, err.Error()))
	}
	return 0
}

// resolveProject loads the project named by --project or creates one for src.
func resolveProject(ctx context.Context, st *store.Store, log *logger.Logger, src upload.Source, opts *transcribeOptions) (*store.Project, error) {
	info := store.FileInfo{Name: src.Name(), Type: src.MimeType(), Size: src.Size(), Duration: opts.duration}

	if opts.projectID == "" {
		name := strings.TrimSpace(opts.name)
		if name == "" {
			name = src.Name()
		}
		p, res := st.CreateProject(ctx, name, info)
		if err := res.Err(); err != nil {
			return nil, err
		}
		return &p, nil
	}

	p, err := getProject(ctx, st, opts.projectID)
	if err != nil {
		return nil, err
	}
	if opts.resume && p.Status != store.StatusCancelled && p.Status != store.StatusInterrupted {
		return nil, errors.Conflict(fmt.Sprintf("project %s is %s; only cancelled or interrupted projects can be resumed", p.ID, p.Status))
	}
	if info.Duration == 0 {
		info.Duration = p.FileInfo.Duration
	}
	if err := st.UpdateProjectFile(ctx, p.ID, info).Err(); err != nil {
		log.Warn("Project file info not saved", logger.Fields(logger.FieldProjectID, p.ID, logger.FieldError, err.Error()))
	}
	return p, nil
}

// newTranscribers binds a Gemini adapter to the resolved key per run.
func newTranscribers(cfg *AppConfig, log *logger.Logger, m *observability.ScribeMetrics) orchestrator.TranscriberFactory {
	return func(key string) (orchestrator.Transcriber, error) {
		gen := cfg.Generation
		gen.Auth = httpclient.APIKeyAuthHeader(key, gemini.APIKeyHeader)
		adapter, err := llm.New(gen)
		if err != nil {
			return nil, err
		}
		return transcription.NewAssembler(adapter, cfg.Assembler, log, transcription.WithMetrics(m)), nil
	}
}

// progressLogger logs state changes and every ten percent of progress.
func progressLogger(log *logger.Logger) orchestrator.Listener {
	var (
		mu        sync.Mutex
		lastState orchestrator.State
		lastStep  = -1
	)
	return func(r orchestrator.Run) {
		mu.Lock()
		defer mu.Unlock()
		step := r.Progress / 10
		if r.State == lastState && step == lastStep {
			return
		}
		lastState, lastStep = r.State, step
		log.Info("Progress", logger.Fields(
			logger.FieldProjectID, r.ProjectID,
			logger.FieldState, string(r.State),
			logger.FieldProgress, r.Progress,
			logger.FieldSegments, len(r.Transcript)))
	}
}
