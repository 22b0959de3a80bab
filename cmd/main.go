// Package main provides the CLI entrypoint for the electrumd supervisor.
// It wires subcommands (run, fetch, setup, rpc), loads configuration, and
// initializes logging.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"electrumd/internal/config"
	"electrumd/pkg/electrumrpc"
	"electrumd/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// daemonRPC creates a JSON-RPC client aimed at the locally supervised daemon.
// The daemon binds to RPCHost (usually 0.0.0.0); connections go to loopback.
func daemonRPC(ctx context.Context, cfg *config.Config) *electrumrpc.Client {
	host := cfg.Electrum.RPCHost
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	addr := fmt.Sprintf("http://%s:%d", host, cfg.Electrum.RPCPort)

	client, err := electrumrpc.New(&http.Client{Timeout: 30 * time.Second},
		cfg.Electrum.User, cfg.Electrum.Password, addr)
	if err != nil {
		logger.Fatal(ctx, "could not create daemon rpc client", zap.Error(err))
	}

	return client
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:   "electrumd",
		Short: "Packages, configures and supervises an Electrum wallet daemon",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	configPath := flag.String("c", "config.yml", "The config file path")
	flag.Parse()

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		runCommand(cfg),
		fetchCommand(cfg),
		setupCommand(cfg),
		rpcCommand(cfg),
	)

	err = rootCmd.Execute()
	_ = logger.Get(ctx).Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
