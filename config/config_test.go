package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestSaveLoadYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Risk.InitialCapital = 2500
	cfg.Bot.PollInterval = "2s"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 2500, loaded.Risk.InitialCapital, 1e-9)

	interval, err := loaded.Bot.ParsePollInterval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, interval)
	assert.True(t, loaded.Strategies["micro_spread"].Enabled)
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, cfg.Risk.MaxTotalExposure, loaded.Risk.MaxTotalExposure, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadGarbage(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{not config"), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	mutations := map[string]func(*Config){
		"zero capital":        func(c *Config) { c.Risk.InitialCapital = 0 },
		"zero position size":  func(c *Config) { c.Risk.MaxPositionSize = 0 },
		"zero total exposure": func(c *Config) { c.Risk.MaxTotalExposure = 0 },
		"zero max positions":  func(c *Config) { c.Risk.MaxOpenPositions = 0 },
		"zero stop loss":      func(c *Config) { c.Risk.StopLossPct = 0 },
		"no state file":       func(c *Config) { c.State.File = "" },
		"bad poll interval":   func(c *Config) { c.Bot.PollInterval = "soon" },
		"bad quote ttl":       func(c *Config) { c.Exchange.QuoteTTL = "fresh" },
		"bad journal type":    func(c *Config) { c.Journal.Type = "parchment" },
		"sqlite without path": func(c *Config) { c.Journal.Type = "sqlite"; c.Journal.DBPath = "" },
		"csv without files":   func(c *Config) { c.Journal.Type = "csv" },
		"zero order size": func(c *Config) {
			sc := c.Strategies["micro_spread"]
			sc.OrderSize = 0
			c.Strategies["micro_spread"] = sc
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDisabledStrategySkipsChecks(t *testing.T) {
	t.Parallel()
	cfg := Default()
	sc := cfg.Strategies["micro_spread"]
	sc.Enabled = false
	sc.OrderSize = 0
	cfg.Strategies["micro_spread"] = sc

	assert.NoError(t, cfg.Validate())
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	ttl, err := ExchangeConfig{}.ParseQuoteTTL()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, ttl)

	interval, err := BotConfig{}.ParsePollInterval()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, interval)
}
