package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Does what the config's akcja says: USUN clears documents, anything else submits plik.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if cfg.Deleting() {
			slog.Info("akcja is USUN, clearing documents")
			rep, err := clearDocuments(cmd.Context(), cfg, actionFlags{})
			finish(cmd.Context(), cfg, rep, err)
			return
		}
		rep, err := submit(cmd.Context(), cfg, actionFlags{})
		finish(cmd.Context(), cfg, rep, err)
	},
}
