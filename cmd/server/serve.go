package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/mcp"
	"github.com/rpggio/calldesk/internal/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the MCP endpoint and the call monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts, os.Stdout)
			if err != nil {
				return err
			}
			defer a.close()
			return runServe(commandContext(cmd), a)
		},
	}
}

func runServe(parent context.Context, a *app) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mcpHandler http.Handler
	if a.cfg.Server.MCP {
		mcpServer := mcp.NewServer(mcp.Config{
			Contacts: a.contacts,
			Calls:    a.tracker,
			Device:   a.device,
			Version:  version,
			Logger:   a.logger.Named("mcp"),
		})
		mcpHandler = sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		)
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr: addr,
		Handler: transport.NewServer(transport.Options{
			Contacts: a.contacts,
			Calls:    a.tracker,
			Device:   a.device,
			MCP:      mcpHandler,
			APIToken: a.cfg.Server.APIToken,
			Logger:   a.logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		call.NewMonitor(a.tracker, a.cfg.Call.PollInterval, a.logger.Named("monitor")).Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", addr), zap.Bool("mcp", mcpHandler != nil))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = err
		stop()
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown error", zap.Error(err))
	}
	if err := a.contacts.WaitImports(shutdownCtx); err != nil {
		a.logger.Warn("imports still running at shutdown", zap.Error(err))
	}
	wg.Wait()
	return runErr
}
