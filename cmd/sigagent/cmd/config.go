package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradewire/sigagent/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage agent configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file (YAML, or JSON if the path ends
in .json). The defaults run against the paper venue so the agent can be tried
without a broker account.

Example:
  sigagent config init config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", path)
		}

		if err := config.Default().SaveToFile(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}
