package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tradekit/pmbot/bot"
	"github.com/tradekit/pmbot/config"
	"github.com/tradekit/pmbot/exchange"
	"github.com/tradekit/pmbot/feed"
	"github.com/tradekit/pmbot/journal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading bot",
	Long: `Run the trading loop using settings from a configuration file.

On SIGINT/SIGTERM the bot writes a final state snapshot before exiting, so
open positions and pending orders survive the restart.

Example:
  pmbot run --config config.yaml --paper`,
	RunE: runRun,
}

var (
	runConfigPath string
	runPaper      bool
	runVerbose    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVar(&runPaper, "paper", false, "force paper trading regardless of config")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug logging")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runPaper {
		cfg.Bot.PaperTrading = true
	}
	if !cfg.Bot.PaperTrading {
		return fmt.Errorf("live trading requires an exchange client with credentials; run with --paper")
	}

	level := slog.LevelInfo
	if runVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	var j journal.Journal = journal.Nop{}
	switch cfg.Journal.Type {
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	ttl, err := cfg.Exchange.ParseQuoteTTL()
	if err != nil {
		return err
	}
	quotes := exchange.NewQuoteCache(ttl)
	exch := exchange.NewPaper(quotes)

	runner, err := bot.New(cfg, exch, quotes, j, log)
	if err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Exchange.WSURL != "" {
		assets := feedAssets(cfg)
		if len(assets) > 0 {
			f := feed.New(cfg.Exchange.WSURL, assets, quotes, log)
			go f.Run(ctx)
		}
	}

	return runner.Run(ctx)
}

// feedAssets collects every outcome token the enabled strategies trade.
func feedAssets(cfg *config.Config) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, sc := range cfg.Strategies {
		if !sc.Enabled {
			continue
		}
		for _, m := range sc.Markets {
			for _, o := range m.Outcomes {
				if _, ok := seen[o]; ok {
					continue
				}
				seen[o] = struct{}{}
				out = append(out, o)
			}
		}
	}
	return out
}
