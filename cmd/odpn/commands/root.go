package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"odpn-automation/lib/telemetry"

	"github.com/spf13/cobra"
)

const serviceName = "odpn"

var (
	configPath string
	verbose    bool
	headless   bool
)

var rootCmd = &cobra.Command{
	Use:   "odpn",
	Short: "odpn enters expense CSV files into the ODPN subsidy settlement portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)

		err := telemetry.SetupFromEnv(cmd.Context(), serviceName)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
			return
		}
		telemetry.InstrumentPerfStats(cmd.Context(), 15*time.Second)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := telemetry.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "config.json5", "The configuration file (JSON5 or JSON).")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output and dump every HTTP exchange.")
	flags.BoolVar(&headless, "headless", false, "Run Chrome without a window, overrides the config.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
