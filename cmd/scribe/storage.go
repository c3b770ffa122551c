package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/interviewscribe/store"
)

func newStorageCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect and tidy the project store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "report",
			Short: "Show store usage",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
					r := st.Report(ctx)
					avail := "yes"
					if !r.Available {
						avail = "no"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Projects:  %d\nUsage:     %.2f MB (%d bytes)\nAvailable: %s\n",
						r.ProjectCount, r.UsageMB, r.UsageBytes, avail)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Delete transcripts whose project no longer exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, flags, func(ctx context.Context, st *store.Store) error {
					n, err := st.CleanupOrphans(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned transcript(s)\n", n)
					return nil
				})
			},
		},
	)
	return cmd
}
