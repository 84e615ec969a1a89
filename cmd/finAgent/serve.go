package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/reinhart/finAgent/internal/configuration"
	"github.com/reinhart/finAgent/internal/logger"
	"github.com/reinhart/finAgent/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [server-script]",
		Short: "Serve the query API and web page over HTTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := configuration.LoadConfig()
			if err != nil {
				return err
			}
			script := cfg.Provider.DefaultScript
			if len(args) == 1 {
				script = args[0]
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg, script)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	return cmd
}

func runServe(ctx context.Context, cfg *configuration.Config, script string) error {
	logger.Init()
	logger.SetDebug(cfg.Agent.Debug || logger.DebugMode)
	logger.SetOutput(os.Stderr)

	// A single connection attempt. Without it the API still starts and refuses queries.
	var srv *server.Server
	agent, session, err := connect(ctx, cfg, script)
	if err != nil {
		logger.Error("Failed to connect to MCP server: %v", err)
		srv = server.New(nil)
	} else {
		defer session.Close()
		srv = server.New(agent)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(httpServer.Shutdown(shutdownCtx), "http shutdown")
}
