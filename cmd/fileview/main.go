// Package main provides the fileview command: a LAN file viewer server plus
// local tools for checking paths against its allowlist.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/config"
)

var (
	configPath string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "fileview",
		Short:        "Browse and view files on the local network",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/fileview/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newViewCmd(),
	)
	return rootCmd
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// loadPolicy loads the configuration and builds its policy snapshot.
func loadPolicy(loader *config.Loader) (*config.Config, *access.Policy, error) {
	cfg, err := loader.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	pol, err := cfg.Policy()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build access policy: %w", err)
	}
	return cfg, pol, nil
}
