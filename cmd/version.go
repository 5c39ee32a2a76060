package cmd

import (
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fanctld",
	Long:  `All software has versions. This is fanctld's`,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln("0.3.0")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
