package main

import (
	"context"
	"encoding/json"
	"fmt"

	"electrumd/internal/config"
	"electrumd/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rpcCommand constructs the 'rpc' subcommand: a one-shot JSON-RPC call
// against the running daemon using the configured credentials. Extra
// arguments are passed as positional string params.
func rpcCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc <method> [params...]",
		Short: "Calls a JSON-RPC method on the running daemon",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			client := daemonRPC(ctx, cfg)

			var result json.RawMessage
			if err := client.Call(ctx, args[0], args[1:], &result); err != nil {
				logger.Fatal(ctx, "rpc call failed", zap.String("method", args[0]), zap.Error(err))
			}

			fmt.Println(string(result)) //nolint: forbidigo
		},
	}

	return cmd
}
