package commands

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X odpn-automation/cmd/odpn/commands.version=..."
var version = "dev"

func init() {
	rootCmd.AddCommand(versionCmd)
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("odpn %s", version)
		if rev := revision(); rev != "" {
			fmt.Printf(" (%s)", rev)
		}
		fmt.Printf(" %s\n", runtime.Version())
	},
}
