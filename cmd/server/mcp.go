package main

import (
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries JSON-RPC, so logs go to stderr.
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go call.NewMonitor(a.tracker, a.cfg.Call.PollInterval, a.logger.Named("monitor")).Run(ctx)

			server := mcp.NewServer(mcp.Config{
				Contacts: a.contacts,
				Calls:    a.tracker,
				Device:   a.device,
				Version:  version,
				Logger:   a.logger.Named("mcp"),
			})
			a.logger.Info("starting stdio transport")
			return server.Run(ctx, &sdkmcp.StdioTransport{})
		},
	}
}
