package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kbukum/interviewscribe/credential"
	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/httpclient"
	"github.com/kbukum/interviewscribe/llm"
	"github.com/kbukum/interviewscribe/llm/gemini"
	"github.com/kbukum/interviewscribe/logger"
)

func newKeyCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the Gemini API key",
	}
	cmd.AddCommand(newKeySetCommand(flags), newKeyShowSourceCommand(flags))
	return cmd
}

func newKeySetCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Seal the API key into the key file",
		Long: `Read the API key from stdin and seal it into the configured key file.

The passphrase is read from the variable named by credential.passphrase_env
(SCRIBE_KEY_PASSPHRASE by default), or prompted for on a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := flags.setup(false, nil)
			if err != nil {
				return err
			}
			kf := app.Cfg.KeyFile()
			r := newSecretReader(cmd.InOrStdin(), cmd.ErrOrStderr())

			if kf.Passphrase == "" {
				if kf.Passphrase, err = r.read("Passphrase: "); err != nil {
					return err
				}
			}
			key, err := r.read("API key: ")
			if err != nil {
				return err
			}
			if err := kf.Store(key); err != nil {
				return err
			}
			app.Logger.Info("API key sealed", logger.Fields("path", kf.Path, "algorithm", string(kf.Algorithm)))
			fmt.Fprintf(cmd.OutOrStdout(), "Key %s sealed into %s\n", credential.Mask(key), kf.Path)
			return nil
		},
	}
}

func newKeyShowSourceCommand(flags *rootFlags) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "show-source",
		Short: "Show where the API key would be taken from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := flags.setup(false, nil)
			if err != nil {
				return err
			}
			key, source, err := app.Cfg.Credentials().Resolve(cmd.Context())
			if err != nil {
				return err
			}
			if key == "" {
				return errors.MissingCredential()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Source: %s\nKey:    %s\n", source, credential.Mask(key))
			if !verify {
				return nil
			}
			if err := probeKey(cmd.Context(), app.Cfg.Generation, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Status: accepted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the key against the generation endpoint")
	return cmd
}

// probeKey asks the provider whether it accepts key.
func probeKey(ctx context.Context, gen llm.Config, key string) error {
	gen.Auth = httpclient.APIKeyAuthHeader(key, gemini.APIKeyHeader)
	adapter, err := llm.New(gen)
	if err != nil {
		return err
	}
	if err := adapter.Probe(ctx); err != nil {
		if httpclient.IsAuth(err) {
			return errors.Unauthorized("The provider rejected the API key.").WithCause(err)
		}
		return errors.ExternalServiceError(adapter.Name(), err)
	}
	return nil
}

// secretReader reads one secret per line. On a terminal it prompts and
// disables echo.
type secretReader struct {
	tty    *os.File
	lines  *bufio.Reader
	prompt io.Writer
}

func newSecretReader(in io.Reader, prompt io.Writer) *secretReader {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &secretReader{tty: f, prompt: prompt}
	}
	return &secretReader{lines: bufio.NewReader(in), prompt: prompt}
}

func (r *secretReader) read(label string) (string, error) {
	if r.tty != nil {
		fmt.Fprint(r.prompt, label)
		b, err := term.ReadPassword(int(r.tty.Fd()))
		fmt.Fprintln(r.prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := r.lines.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
