package main

import (
	"context"

	"electrumd/internal/config"
	"electrumd/internal/release"
	"electrumd/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// setupCommand constructs the 'setup' subcommand that prepares the persistent
// data directory tree: per-network wallet directories, the /data symlink and
// ownership by the unprivileged runtime account.
func setupCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Prepares the daemon data directory tree",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			opts := release.DataDirOptions{
				Home:     cfg.Release.Home,
				Link:     cfg.Electrum.DataDir,
				OwnerUID: cfg.Release.OwnerUID,
				OwnerGID: cfg.Release.OwnerGID,
			}

			if err := release.PrepareDataDir(ctx, opts); err != nil {
				logger.Fatal(ctx, "could not prepare data dir", zap.Error(err))
			}

			logger.Info(ctx, "data dir ready",
				zap.String("home", opts.Home),
				zap.String("link", opts.Link))
		},
	}

	return cmd
}
