package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"electrumd/internal/api"
	"electrumd/internal/config"
	"electrumd/internal/supervisor"
	"electrumd/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func runCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Configures, launches and supervises the wallet daemon",
		Run: func(cmd *cobra.Command, args []string) {
			// the termination handler must be in place before any
			// long-running work so signals arriving during startup are honored
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rpcClient := daemonRPC(ctx, cfg)

			sup := supervisor.New(
				supervisor.ExecRunner{},
				supervisor.NewRPCProber(rpcClient),
				supervisor.NewOptions(cfg),
			)

			stopWebserver := setupServer(ctx, cfg, api.Deps{
				Ready: sup.Ready,
				RPC:   rpcClient,
			})

			// blocks until the daemon is stopped after a termination signal;
			// any startup failure aborts the container with a non-zero exit
			if err := sup.Run(ctx); err != nil {
				logger.Fatal(ctx, "supervision failed", zap.Error(err))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
		},
	}

	return cmd
}
