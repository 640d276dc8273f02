package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Cyclone1070/fileview/internal/config"
	"github.com/Cyclone1070/fileview/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the file viewer API",
		Long: `Serve the file viewer API on the configured host and port.

Send SIGHUP to reload the configuration file. A reload that fails keeps the
previous configuration in force. SIGINT and SIGTERM shut the server down
gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			loader := config.NewLoader()
			cfg, pol, err := loadPolicy(loader)
			if err != nil {
				return err
			}

			srv := server.New(cfg, pol, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go reloadOnHangup(ctx, loader, srv, logger)

			return srv.Run(ctx)
		},
	}
}

func reloadOnHangup(ctx context.Context, loader *config.Loader, srv *server.Server, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, pol, err := loadPolicy(loader)
			if err != nil {
				logger.Error("reload failed, keeping current configuration", "error", err)
				continue
			}
			srv.Reload(cfg, pol)
		}
	}
}
