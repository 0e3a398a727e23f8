package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tradekit/pmbot/risk"
	"github.com/tradekit/pmbot/strategies"
)

// Config is the complete bot configuration.
type Config struct {
	Exchange   ExchangeConfig               `json:"exchange" yaml:"exchange"`
	Risk       risk.Limits                  `json:"risk" yaml:"risk"`
	Strategies map[string]strategies.Config `json:"strategies" yaml:"strategies"`
	State      StateConfig                  `json:"state" yaml:"state"`
	Journal    JournalConfig                `json:"journal" yaml:"journal"`
	Bot        BotConfig                    `json:"bot" yaml:"bot"`
}

// ExchangeConfig names the exchange endpoints.
type ExchangeConfig struct {
	RESTURL string `json:"rest_url" yaml:"rest_url"`
	WSURL   string `json:"ws_url" yaml:"ws_url"`
	// QuoteTTL bounds how long a cached quote stays usable, e.g. "5s".
	QuoteTTL string `json:"quote_ttl" yaml:"quote_ttl"`
}

func (e ExchangeConfig) ParseQuoteTTL() (time.Duration, error) {
	if e.QuoteTTL == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(e.QuoteTTL)
}

// StateConfig controls snapshot persistence.
type StateConfig struct {
	File string `json:"file" yaml:"file"`
}

// JournalConfig controls the durable trade journal.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
}

// BotConfig controls the polling loop.
type BotConfig struct {
	PollInterval string `json:"poll_interval" yaml:"poll_interval"` // e.g. "5s"
	PaperTrading bool   `json:"paper_trading" yaml:"paper_trading"`
}

func (b BotConfig) ParsePollInterval() (time.Duration, error) {
	if b.PollInterval == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(b.PollInterval)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration, format chosen by extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Risk.InitialCapital <= 0 {
		return fmt.Errorf("risk.initial_capital must be positive")
	}
	if c.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("risk.max_position_size must be positive")
	}
	if c.Risk.MaxTotalExposure <= 0 {
		return fmt.Errorf("risk.max_total_exposure must be positive")
	}
	if c.Risk.MaxOpenPositions <= 0 {
		return fmt.Errorf("risk.max_open_positions must be positive")
	}
	if c.Risk.StopLossPct <= 0 {
		return fmt.Errorf("risk.stop_loss_pct must be positive")
	}
	if c.State.File == "" {
		return fmt.Errorf("state.file is required")
	}
	if _, err := c.Bot.ParsePollInterval(); err != nil {
		return fmt.Errorf("bot.poll_interval: %w", err)
	}
	if _, err := c.Exchange.ParseQuoteTTL(); err != nil {
		return fmt.Errorf("exchange.quote_ttl: %w", err)
	}
	switch c.Journal.Type {
	case "", "none":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	for name, sc := range c.Strategies {
		if !sc.Enabled {
			continue
		}
		if sc.OrderSize <= 0 {
			return fmt.Errorf("strategy %s: order_size must be positive", name)
		}
	}
	return nil
}

// Default returns a configuration with the defaults the bot ships with.
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			RESTURL:  "https://clob.example.com",
			WSURL:    "wss://clob.example.com/ws",
			QuoteTTL: "5s",
		},
		Risk: risk.DefaultLimits(),
		Strategies: map[string]strategies.Config{
			"micro_spread": {
				Enabled:      true,
				OrderSize:    40,
				MinSpreadPct: 2,
				Tick:         0.001,
			},
			"single_arbitrage": {
				Enabled:      true,
				OrderSize:    40,
				MinProfitPct: 1,
			},
		},
		State: StateConfig{File: "data/bot_state.json"},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "data/journal.db",
		},
		Bot: BotConfig{
			PollInterval: "5s",
			PaperTrading: true,
		},
	}
}
