package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradekit/pmbot/config"
	"github.com/tradekit/pmbot/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a summary of the last saved state",
	RunE:  runStatus,
}

var statusConfigPath string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	statusCmd.MarkFlagRequired("config")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(statusConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	states, err := state.NewManager(cfg.State.File, log)
	if err != nil {
		return err
	}

	snap, err := states.Load()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if snap == nil {
		fmt.Println("No saved state found.")
		return nil
	}

	fmt.Printf("Snapshot taken: %s\n", snap.Timestamp)
	fmt.Printf("  Open positions:   %d (closed: %d)\n",
		len(snap.Positions.OpenPositions), snap.Positions.ClosedPositionsCount)
	fmt.Printf("  Tracked orders:   %d (pending: %d)\n",
		len(snap.Orders.AllOrders), len(snap.Orders.PendingOrderIDs))
	fmt.Printf("  Capital:          $%.2f (initial: $%.2f)\n",
		snap.Profitability.CurrentCapital, snap.Profitability.InitialCapital)
	fmt.Printf("  Total trades:     %d\n", snap.Profitability.TotalTrades)
	fmt.Printf("  Total P&L:        $%.2f (ROI: %.2f%%)\n",
		snap.Profitability.TotalPnL, snap.Profitability.ROI)

	return nil
}
