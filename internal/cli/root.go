// Package cli implements the projectmap command line: an interactive
// terminal browser and a one-shot search, both driven by the same
// filter-and-render pipeline.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "projectmap",
	Short: "Browse real-estate projects on a map",
	Long: `projectmap queries a projectmap server and shows the matching
real-estate projects on a terminal map, with a property list, a nearby
list sorted by distance and summary statistics.

The server and default filters are read from PROJECTMAP_* environment
variables.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("projectmap version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
