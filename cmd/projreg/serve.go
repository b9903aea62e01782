package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/projreg/internal/mcp"
	"github.com/rpggio/projreg/internal/transport"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry over HTTP (JSON-RPC and MCP) or MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Transport.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			// Stdio carries the protocol on stdout.
			logWriter := io.Writer(os.Stdout)
			if cfg.Transport.Mode == "stdio" {
				logWriter = os.Stderr
			}
			if logPath := os.Getenv("PROJREG_LOG_PATH"); logPath != "" {
				fileWriter, err := newLogFileWriter(logPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
				} else {
					defer fileWriter.Close()
					logWriter = fileWriter
				}
			}
			logger := newLogger(cfg.Log.Level, logWriter)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to open registry", "error", err)
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := a.Close(shutdownCtx); err != nil {
					logger.Error("shutdown error", "error", err)
				}
			}()

			resolver := a.resolver()
			authEnabled := cfg.Auth.Enabled && cfg.Transport.Mode == "http"
			if authEnabled && resolver == nil {
				return fmt.Errorf("auth requires an sqlite or postgres store, got %q", cfg.DB.Driver)
			}

			defaultPrincipal := cfg.Auth.DefaultPrincipal
			if cfg.Transport.Mode == "stdio" {
				defaultPrincipal = cfg.LocalPrincipal()
			}
			mcpServer := mcp.NewServer(mcp.Config{
				Handler:          a.handler,
				Resolver:         resolver,
				AuthEnabled:      authEnabled,
				DefaultPrincipal: defaultPrincipal,
				TransportMode:    cfg.Transport.Mode,
				Logger:           logger,
			})

			if cfg.Transport.Mode == "stdio" {
				return runStdio(ctx, logger, mcpServer)
			}
			return runHTTP(ctx, logger, a, mcpServer)
		},
	}

	cmd.Flags().StringVar(&mode, "transport", "", "override transport.mode: http or stdio")
	return cmd
}

func runStdio(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		return err
	}
	return nil
}

func runHTTP(ctx context.Context, logger *slog.Logger, a *app, mcpServer *sdkmcp.Server) error {
	cfg := a.cfg

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	opts := transport.Options{MCP: mcpHandler, Logger: logger}
	if cfg.Auth.Enabled {
		opts.Auth = transport.AuthMiddleware(a.resolver())
	} else {
		opts.Auth = transport.StaticPrincipalMiddleware(cfg.Auth.DefaultPrincipal)
	}
	if a.metrics != nil {
		opts.Metrics = a.metrics.Handler()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(a.handler, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled, "metrics", a.metrics != nil, "tracing", a.tracing.Enabled())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
