package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/interviewscribe/bootstrap"
	"github.com/kbukum/interviewscribe/version"
)

type rootFlags struct {
	configFile string
	envFile    string
	debug      bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "scribe",
		Short: "Transcribe and translate interview recordings",
		Long: `scribe uploads an interview recording to Gemini, assembles a bilingual
speaker-labelled transcript over as many generation rounds as the recording
needs, and keeps projects and transcripts in a local store.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to config.yml")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Path to a .env file")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newTranscribeCommand(flags),
		newProjectsCommand(flags),
		newExportCommand(flags),
		newStorageCommand(flags),
		newKeyCommand(flags),
		newRelayCommand(flags),
		newVersionCommand(),
	)
	return cmd
}

// setup loads the config and builds the app. Commands that touch projects
// pass withStore.
func (f *rootFlags) setup(withStore bool, summary io.Writer) (*Scribe, error) {
	cfg, err := loadConfig(f.configFile, f.envFile)
	if err != nil {
		return nil, err
	}
	if f.debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	return newScribe(cfg, withStore, bootstrap.WithSummaryWriter(summary))
}
