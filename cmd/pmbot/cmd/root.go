package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pmbot",
	Short: "A prediction-market trading bot with centralized risk management",
	Long: `pmbot scans prediction-market order books across several independent
strategies and places coordinated orders subject to centralized risk limits.

It provides:
  - Duplicate-safe order coordination with exchange reconciliation
  - Position tracking with exposure and drawdown enforcement
  - Crash-safe state snapshots for restart recovery
  - A paper-trading engine fed by live market data
  - A durable SQLite/CSV trade journal`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
