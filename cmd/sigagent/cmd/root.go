package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sigagent",
	Short: "An autonomous trade-signal execution agent",
	Long: `Sigagent polls a remote signal server for trading instructions,
validates them against local risk limits, executes them against a trading
venue (a MetaApi-style MT5 gateway or an in-process paper venue), and
confirms each outcome back to the server.

It is an automation layer only: it decides nothing about when to trade.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
