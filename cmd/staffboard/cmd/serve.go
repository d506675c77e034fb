package cmd

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/staffboard/internal/api"
	"github.com/hugo-lorenzo-mato/staffboard/internal/board"
	"github.com/hugo-lorenzo-mato/staffboard/internal/config"
	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the staffboard HTTP API.

Examples:
  # Start with defaults (127.0.0.1:8080)
  staffboard serve

  # Start on custom host and port
  staffboard serve --host 0.0.0.0 --port 3000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(a *app) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return runServe(ctx, a)
			})
		},
	}

	serveCmd.Flags().String("host", "", "Host address to bind to")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	_ = o.v.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = o.v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	return serveCmd
}

func runServe(ctx context.Context, a *app) error {
	// Validated by the config loader.
	shutdown, _ := time.ParseDuration(a.cfg.Server.ShutdownTimeout)
	logger := a.logger.WithComponent("api").Slog()
	watchLogLevel(a)

	b := board.New(a.mover, a.cards,
		board.WithLogger(a.logger.WithComponent("board").Slog()),
		board.WithEventBus(a.bus),
	)
	if err := b.Load(ctx, core.PipelineNone); err != nil {
		return fmt.Errorf("loading board: %w", err)
	}

	srv := api.NewServer(api.Services{
		Cards:  a.cards,
		Audit:  a.audit,
		Board:  b,
		Events: a.bus,
	},
		api.WithLogger(logger),
		api.WithAllowedOrigins(a.cfg.Server.AllowedOrigins),
		api.WithShutdownTimeout(shutdown),
	)

	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("serving %s: %w", addr, err)
	}
	a.logger.Info("server stopped, draining audit writes")
	return nil
}

// watchLogLevel applies log.level edits in the config file without a restart.
func watchLogLevel(a *app) {
	watching := a.loader.Watch(func(cfg *config.Config) {
		a.logger.SetLevel(cfg.Log.Level)
		a.logger.Info("config reloaded", "log_level", cfg.Log.Level)
	}, func(err error) {
		a.logger.Warn("ignoring invalid config change", "error", err)
	})
	if watching {
		a.logger.Debug("watching config", "file", a.loader.ConfigFile())
	}
}
