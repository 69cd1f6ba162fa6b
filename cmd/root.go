// Package cmd defines the CLI commands for the harvester executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/openlistings/fsbo-harvester/internal/config"
	"github.com/openlistings/fsbo-harvester/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var flushLogs func()

	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Collects for-sale-by-owner listing addresses for mailing lists.",
		Long: `harvester scrapes FSBO listing sites for property addresses,
normalizes and deduplicates them, and persists the results for
mailing-list export. Runs are rate limited per domain and every run
leaves an audit session behind.`,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded

			flushLogs, err = logging.Init(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if flushLogs != nil {
				flushLogs()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default uses built-in defaults and HARVESTER_* env vars)")

	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	// .env is optional; environment wins over file values either way.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// The global logger may not be installed yet if config loading failed.
		fmt.Fprintln(os.Stderr, "harvester:", err)
		stop()
		os.Exit(1)
	}
}
