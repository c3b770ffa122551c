package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/export"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/store"
)

func newExportCommand(flags *rootFlags) *cobra.Command {
	var (
		format  string
		variant string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a transcript as text, markdown, json, yaml or srt",
		Long: `Export a project's transcript.

Without --format the format is taken from the --output extension, falling
back to text. A partial transcript is exported as it is and marked partial.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}
			v, err := export.ParseVariant(variant)
			if err != nil {
				return err
			}
			return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
				return runExport(ctx, cmd.OutOrStdout(), st, args[0], f, v, output)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, markdown, json, yaml, srt")
	cmd.Flags().StringVar(&variant, "variant", "combined", "Languages to include: combined, english, original")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func resolveFormat(format, output string) (export.Format, error) {
	switch {
	case format != "":
		return export.ParseFormat(format)
	case filepath.Ext(output) != "":
		return export.ParseFormat(filepath.Ext(output))
	default:
		return export.FormatText, nil
	}
}

func runExport(ctx context.Context, stdout io.Writer, st *store.Store, id string, f export.Format, v export.Variant, output string) error {
	p, err := getProject(ctx, st, id)
	if err != nil {
		return err
	}
	t := st.GetTranscript(ctx, p.ID)
	if t == nil {
		return errors.NotFound("transcript", p.ID)
	}

	if output == "" {
		return export.Write(stdout, p, t, f, export.WithVariant(v))
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := export.Write(file, p, t, f, export.WithVariant(v)); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	logger.Info("Transcript exported", logger.Fields(
		logger.FieldProjectID, p.ID, "format", string(f), "path", output, logger.FieldSegments, len(t.Segments)))
	return nil
}
