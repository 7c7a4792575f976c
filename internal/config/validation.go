package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Markets.validate(); err != nil {
		return err
	}
	if err := c.Strategy.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.StartingCapital <= 0 {
		return fmt.Errorf("trading.starting_capital must be > 0")
	}
	if t.IntervalSeconds <= 0 {
		return fmt.Errorf("trading.interval_seconds must be > 0")
	}
	if t.DurationSeconds < 0 {
		return fmt.Errorf("trading.duration_seconds must be >= 0")
	}
	if t.MaxPositionPct <= 0 || t.MaxPositionPct > 1 {
		return fmt.Errorf("trading.max_position_pct must be in (0, 1]")
	}
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		return fmt.Errorf("trading.min_confidence must be in [0, 1]")
	}
	return nil
}

func (m *MarketsConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(m.Source)) {
	case "polymarket":
		if strings.TrimSpace(m.GammaBaseURL) == "" || strings.TrimSpace(m.ClobBaseURL) == "" {
			return fmt.Errorf("markets.gamma_base_url and markets.clob_base_url are required for the polymarket source")
		}
	case "fixtures":
		if strings.TrimSpace(m.FixturePath) == "" {
			return fmt.Errorf("markets.fixture_path is required for the fixtures source")
		}
	default:
		return fmt.Errorf("markets.source must be polymarket or fixtures, got %q", m.Source)
	}
	return nil
}

func (s *StrategyConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Active)) {
	case "llm":
		if strings.TrimSpace(s.LLM.APIKey) == "" {
			return fmt.Errorf("strategy.llm.api_key is empty and OPENROUTER_API_KEY is not set")
		}
		if strings.TrimSpace(s.LLM.Model) == "" {
			return fmt.Errorf("strategy.llm.model cannot be empty")
		}
	case "edge":
		if s.Edge.BuyBelow >= s.Edge.SellAbove {
			return fmt.Errorf("strategy.edge.buy_below must be below strategy.edge.sell_above")
		}
	default:
		return fmt.Errorf("strategy.active must name a registered strategy, got %q", s.Active)
	}
	return nil
}
