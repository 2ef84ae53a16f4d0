// Command avfallctl imports and queries collection schedules without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"avfall_backend/platform/config"
	"avfall_backend/platform/logger"

	"github.com/spf13/cobra"
)

// storeFlags selects the address store a command talks to.
type storeFlags struct {
	sqlitePath  string
	databaseURL string
	table       string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "avfallctl",
		Short:         "Import and query waste collection days",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newLookupCmd())
	return rootCmd
}

// loadConfig reads the environment without requiring the server's settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadPartial()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func addStoreFlags(cmd *cobra.Command, flags *storeFlags) {
	cmd.Flags().StringVar(&flags.sqlitePath, "sqlite", "", "path to a local SQLite database")
	cmd.Flags().StringVar(&flags.databaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&flags.table, "table", "", "address table (defaults to ADDRESS_TABLE)")
	cmd.MarkFlagsMutuallyExclusive("sqlite", "database-url")
}

// cliLogger keeps logs on stderr so stdout stays machine readable.
func cliLogger(cmd *cobra.Command, cfg *config.Config) *logger.Logger {
	return logger.NewWithWriter(cfg.Env, cmd.ErrOrStderr())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
