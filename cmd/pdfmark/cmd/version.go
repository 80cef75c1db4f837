package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pdfmark/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		v, commit, date := version.Info()
		fmt.Fprintf(cmd.OutOrStdout(), "pdfmark %s\nCommit: %s\nBuilt:  %s\n", v, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
