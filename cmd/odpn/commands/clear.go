package commands

import (
	"github.com/spf13/cobra"
)

var clearFlags actionFlags

func init() {
	clearCmd.Flags().BoolVar(&clearFlags.dryRun, "dry-run", false, "List the documents that would be deleted.")
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear [--dry-run]",
	Short: "Deletes every document of every month in the configured chapter.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		rep, err := clearDocuments(cmd.Context(), cfg, clearFlags)
		finish(cmd.Context(), cfg, rep, err)
	},
}
