package main

import (
	"context"
	"net/http"
	"time"

	"electrumd/internal/config"
	"electrumd/internal/release"
	"electrumd/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// fetchCommand constructs the 'fetch' subcommand that downloads the pinned
// daemon release, verifies its detached signature and installs it. It runs at
// image build time; any failure aborts the build.
func fetchCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Downloads, verifies and installs the pinned daemon release",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			fetcher := release.NewFetcher(&http.Client{Timeout: 5 * time.Minute}, release.NewOptions(cfg))

			if err := fetcher.Fetch(ctx); err != nil {
				logger.Fatal(ctx, "could not fetch release", zap.Error(err))
			}

			logger.Info(ctx, "release installed",
				zap.String("version", cfg.Release.Version),
				zap.String("dir", cfg.Release.InstallDir))
		},
	}

	return cmd
}
