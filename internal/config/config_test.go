package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
strategy:
  active: edge
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 1000.0, cfg.Trading.StartingCapital)
	assert.Equal(t, 300, cfg.Trading.IntervalSeconds)
	assert.Equal(t, 0, cfg.Trading.DurationSeconds)
	assert.Equal(t, 0.3, cfg.Trading.MaxPositionPct)
	assert.Equal(t, 0.6, cfg.Trading.MinConfidence)
	assert.Equal(t, "polymarket", cfg.Markets.Source)
	assert.Equal(t, 5000.0, cfg.Markets.MinVolume)
	assert.NotEmpty(t, cfg.Markets.SeriesKeywords)
	assert.Equal(t, "edge", cfg.Strategy.Active)
	assert.Equal(t, 0.35, cfg.Strategy.Edge.BuyBelow)
	assert.Equal(t, 0.75, cfg.Strategy.Edge.SellAbove)
	assert.Equal(t, "data/trading.db", cfg.Database.Path)
	assert.Equal(t, "data/decisions.db", cfg.Database.DecisionLogPath)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
trading:
  starting_capital: 5000
  interval_seconds: 60
  duration_seconds: 600
  max_position_pct: 0.2
  min_confidence: 0.5
markets:
  source: fixtures
  fixture_path: testdata/fixtures.yaml
strategy:
  active: llm
  llm:
    api_key: test-key
    model: test/model
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.Trading.StartingCapital)
	assert.Equal(t, 60, cfg.Trading.IntervalSeconds)
	assert.Equal(t, 600, cfg.Trading.DurationSeconds)
	assert.Equal(t, "fixtures", cfg.Markets.Source)
	assert.Equal(t, "test-key", cfg.Strategy.LLM.APIKey)
	assert.Equal(t, "test/model", cfg.Strategy.LLM.Model)
}

func TestLoadInjectsAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	path := writeConfig(t, `
strategy:
  active: llm
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Strategy.LLM.APIKey)
}

func TestLoadValidationFailures(t *testing.T) {
	cases := map[string]string{
		"llm without key": `
strategy:
  active: llm
`,
		"unknown source": `
markets:
  source: kalshi
strategy:
  active: edge
`,
		"fixtures without path": `
markets:
  source: fixtures
strategy:
  active: edge
`,
		"unknown strategy": `
strategy:
  active: martingale
`,
		"negative duration": `
trading:
  duration_seconds: -5
strategy:
  active: edge
`,
		"max position pct too high": `
trading:
  max_position_pct: 1.5
strategy:
  active: edge
`,
	}
	t.Setenv("OPENROUTER_API_KEY", "")
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	_, err = Load("")
	assert.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	tc := TradingConfig{IntervalSeconds: 90, DurationSeconds: 0}
	assert.Equal(t, "1m30s", tc.Interval().String())
	assert.Equal(t, "0s", tc.Duration().String())
}
