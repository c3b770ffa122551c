package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/interviewscribe/credential"
	"github.com/kbukum/interviewscribe/relay"
	"github.com/kbukum/interviewscribe/server"
)

func newRelayCommand(flags *rootFlags) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the upload relay for clients that cannot reach the provider directly",
		Long: `Run the upload relay.

The relay performs the resumable-upload handshake on behalf of its clients
and forwards each chunk to the provider's upload host. Clients send their key
in X-Gemini-Key; when they do not, the key configured for this process is
used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := flags.setup(false, os.Stderr)
			if err != nil {
				return err
			}
			cfg := app.Cfg.Relay
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			srv, err := relay.NewServer(cfg, app.Logger, app.Components.HealthAll,
				relay.WithFallbackCredential(credential.Env{Var: app.Cfg.Credential.EnvVar}))
			if err != nil {
				return err
			}
			if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	return cmd
}
