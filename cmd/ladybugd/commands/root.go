// Package commands holds the cobra root command and its init-index/serve
// subcommands, grounded on linear-fuse's commands/root.go+mount.go
// (persistent flags on a shared root command, one RunE per subcommand).
package commands

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ladybug-space/ladybug/helper"
)

var rootCmd = &cobra.Command{
	Use:   "ladybugd",
	Short: "Knowledge-graph indexer and hybrid search daemon for markdown notes",
}

// Execute runs the root command.
func Execute() error {
	godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initIndexCmd)
	rootCmd.AddCommand(serveCmd)
}

func newLogger() *slog.Logger {
	opts := helper.PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo}}
	return slog.New(helper.NewPrettyHandler(os.Stdout, opts))
}
