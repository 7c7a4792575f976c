package config

import "time"

// Config is the top-level configuration for the trading engine.
type Config struct {
	App      AppConfig      `toml:"app"`
	Trading  TradingConfig  `toml:"trading"`
	Markets  MarketsConfig  `toml:"markets"`
	Strategy StrategyConfig `toml:"strategy"`
	Database DatabaseConfig `toml:"database"`
}

type AppConfig struct {
	LogLevel   string `toml:"log_level"`
	LogPath    string `toml:"log_path"`
	LLMLogPath string `toml:"llm_log_path"`
	LLMDump    bool   `toml:"llm_dump_payload"`
}

// TradingConfig carries the run parameters of the cycle engine.
type TradingConfig struct {
	StartingCapital float64 `toml:"starting_capital"`
	IntervalSeconds int     `toml:"interval_seconds"`
	// DurationSeconds is the total wall-clock budget; 0 means a single cycle.
	DurationSeconds int     `toml:"duration_seconds"`
	MaxPositionPct  float64 `toml:"max_position_pct"`
	MinConfidence   float64 `toml:"min_confidence"`
}

func (t TradingConfig) Interval() time.Duration {
	return time.Duration(t.IntervalSeconds) * time.Second
}

func (t TradingConfig) Duration() time.Duration {
	return time.Duration(t.DurationSeconds) * time.Second
}

// MarketsConfig selects and tunes the market-data source.
type MarketsConfig struct {
	// Source is "polymarket" or "fixtures".
	Source         string   `toml:"source"`
	MinVolume      float64  `toml:"min_volume"`
	SeriesKeywords []string `toml:"series_keywords"`
	GammaBaseURL   string   `toml:"gamma_base_url"`
	ClobBaseURL    string   `toml:"clob_base_url"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	FixturePath    string   `toml:"fixture_path"`
}

// StrategyConfig selects the active strategy and configures the LLM backend.
type StrategyConfig struct {
	Active string     `toml:"active"`
	LLM    LLMConfig  `toml:"llm"`
	Edge   EdgeConfig `toml:"edge"`
}

type LLMConfig struct {
	APIURL         string  `toml:"api_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	PromptTemplate string  `toml:"prompt_template"`
}

// EdgeConfig tunes the deterministic rule strategy.
type EdgeConfig struct {
	BuyBelow   float64 `toml:"buy_below"`
	SellAbove  float64 `toml:"sell_above"`
	SizePct    float64 `toml:"size_pct"`
	Confidence float64 `toml:"confidence"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
	// DecisionLogPath holds the append-only decision audit log; kept separate
	// from the portfolio store so heavy decision writes never contend with it.
	DecisionLogPath string `toml:"decision_log_path"`
}
