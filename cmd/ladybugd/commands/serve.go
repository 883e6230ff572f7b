package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ladybug-space/ladybug/appconfig"
	"github.com/ladybug-space/ladybug/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the watcher, gRPC, and MCP tool servers until terminated",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg := appconfig.FromEnv()

	sup, err := supervisor.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return sup.Run(ctx)
}
