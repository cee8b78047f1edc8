package commands

import (
	"github.com/spf13/cobra"
)

var submitFlags actionFlags

func init() {
	submitCmd.Flags().StringVar(&submitFlags.file, "file", "", "The CSV file to enter, defaults to the config's plik.")
	submitCmd.Flags().BoolVar(&submitFlags.resume, "resume", false, "Skip rows the journal has as already sent.")
	submitCmd.Flags().BoolVar(&submitFlags.dryRun, "dry-run", false, "Capture sessions and map rows without sending anything.")
	rootCmd.AddCommand(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit [--file <path>] [--resume] [--dry-run]",
	Short: "Enters every row of a CSV file into the portal.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		rep, err := submit(cmd.Context(), cfg, submitFlags)
		finish(cmd.Context(), cfg, rep, err)
	},
}
