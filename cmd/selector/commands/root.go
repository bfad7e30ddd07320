package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "selector",
	Short: "TWSE daily stock selection pipeline",
	Long: `AI Stock Selector CLI

Daily TWSE equities pipeline: market data ingestion, technical
indicators, and ranked buy/sell recommendations per holding horizon.

Examples:
  selector update
  selector update --date 2024-03-15
  selector recommend list --category short_term --limit 20
  selector status --date 2024-03-15
  selector scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
