package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "calldesk",
		Short:         "Dial and track calls on a tethered Android phone",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; real environment variables win.
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file path (optional, CALLDESK_CONFIG_PATH).")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level.")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newWipeCmd(opts))

	return cmd
}
