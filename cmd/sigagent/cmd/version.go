package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at release time.
const Version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sigagent version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sigagent %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
