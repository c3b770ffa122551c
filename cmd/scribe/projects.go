package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/export"
	"github.com/kbukum/interviewscribe/store"
)

func newProjectsCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "List and manage transcription projects",
	}
	cmd.AddCommand(
		newProjectsListCommand(flags),
		newProjectsShowCommand(flags),
		newProjectsDeleteCommand(flags),
		newProjectsRenameCommand(flags),
		newProjectsSetCommand(flags),
	)
	return cmd
}

// withStore runs fn inside a short-lived app that owns the store.
func withStore(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, st *store.Store) error) error {
	app, err := flags.setup(true, nil)
	if err != nil {
		return err
	}
	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		return fn(ctx, app.Store())
	})
}

func newProjectsListCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
				return printProjects(cmd.OutOrStdout(), st.ListProjects(ctx))
			})
		},
	}
}

func printProjects(w io.Writer, projects []store.Project) error {
	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, "No projects.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSEGMENTS\tDURATION\tUPDATED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Name, p.Status, p.SegmentCount,
			export.FormatTimestamp(p.FileInfo.Duration), p.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func newProjectsShowCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its transcript status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
				p, err := getProject(ctx, st, args[0])
				if err != nil {
					return err
				}
				return printProject(cmd.OutOrStdout(), p, st.GetTranscript(ctx, p.ID))
			})
		},
	}
}

func printProject(w io.Writer, p *store.Project, t *store.Transcript) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(label, value string) { fmt.Fprintf(tw, "%s:\t%s\n", label, value) }
	opt := func(label string, v *string) {
		if v != nil {
			row(label, *v)
		}
	}
	row("ID", p.ID)
	row("Name", p.Name)
	row("Status", string(p.Status))
	row("Created", p.CreatedAt.Local().Format(time.DateTime))
	row("Updated", p.UpdatedAt.Local().Format(time.DateTime))
	row("File", fmt.Sprintf("%s (%s, %d bytes)", p.FileInfo.Name, p.FileInfo.Type, p.FileInfo.Size))
	row("Duration", export.FormatTimestamp(p.FileInfo.Duration))
	opt("Interviewee", p.Interviewee)
	opt("Interviewer", p.Interviewer)
	opt("Participants", p.Participants)
	opt("Date", p.InterviewDate)
	opt("Language", p.OriginalLanguage)
	opt("Location", p.Location)
	switch {
	case t == nil:
		row("Transcript", "none")
	case t.Complete():
		row("Transcript", fmt.Sprintf("%d segments, completed %s", len(t.Segments), t.CompletedAt.Local().Format(time.DateTime)))
	default:
		row("Transcript", fmt.Sprintf("%d segments, partial", len(t.Segments)))
	}
	return tw.Flush()
}

func newProjectsDeleteCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
				p, err := getProject(ctx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeleteProject(ctx, p.ID).Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", p.ID, p.Name)
				return nil
			})
		},
	}
}

func newProjectsRenameCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[1])
			if name == "" {
				return errors.MissingField("name")
			}
			return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
				p, res := st.RenameProject(ctx, args[0], name)
				if p == nil {
					return errors.NotFound("project", args[0])
				}
				if err := res.Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", p.ID, p.Name)
				return nil
			})
		},
	}
}

// metadataFlags maps flag names onto the patch fields they set.
var metadataFlags = []struct {
	name  string
	usage string
	field func(*store.MetadataPatch) **string
}{
	{"interviewee", "Interviewee name", func(p *store.MetadataPatch) **string { return &p.Interviewee }},
	{"interviewer", "Interviewer name", func(p *store.MetadataPatch) **string { return &p.Interviewer }},
	{"participants", "Other participants", func(p *store.MetadataPatch) **string { return &p.Participants }},
	{"date", "Interview date", func(p *store.MetadataPatch) **string { return &p.InterviewDate }},
	{"language", "Original language", func(p *store.MetadataPatch) **string { return &p.OriginalLanguage }},
	{"location", "Interview location", func(p *store.MetadataPatch) **string { return &p.Location }},
}

func newProjectsSetCommand(flags *rootFlags) *cobra.Command {
	values := make([]string, len(metadataFlags))
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Set interview metadata; an empty value clears a field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch store.MetadataPatch
			changed := false
			for i, f := range metadataFlags {
				if cmd.Flags().Changed(f.name) {
					*f.field(&patch) = &values[i]
					changed = true
				}
			}
			if !changed {
				return errors.InvalidInput("flags", "set at least one metadata field")
			}
			return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
				p, res := st.UpdateProjectMetadata(ctx, args[0], patch)
				if p == nil {
					return errors.NotFound("project", args[0])
				}
				if err := res.Err(); err != nil {
					return err
				}
				return printProject(cmd.OutOrStdout(), p, st.GetTranscript(ctx, p.ID))
			})
		},
	}
	for i, f := range metadataFlags {
		cmd.Flags().StringVar(&values[i], f.name, "", f.usage)
	}
	return cmd
}

func getProject(ctx context.Context, st *store.Store, id string) (*store.Project, error) {
	p := st.GetProject(ctx, id)
	if p == nil {
		return nil, errors.NotFound("project", id)
	}
	return p, nil
}
