package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"polytrader/internal/config"
	"polytrader/internal/engine"
	"polytrader/internal/gateway/fixture"
	"polytrader/internal/gateway/polymarket"
	"polytrader/internal/ledger"
	"polytrader/internal/logger"
	"polytrader/internal/store"
	"polytrader/internal/strategy"
	"polytrader/internal/strategy/llm"
)

// Build assembles the full application from configuration. Every component is
// constructed here so the wiring is readable in one place.
func Build(cfg *config.Config) (*App, error) {
	closers, err := setupLogging(cfg.App)
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.Database)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("opening store failed: %w", err)
	}
	closers = append(closers, st)

	source, err := buildSource(cfg.Markets)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	strat, err := buildStrategy(cfg.Strategy)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	if c, ok := strat.(io.Closer); ok {
		closers = append(closers, c)
	}

	led, err := ledger.New(cfg.Trading.StartingCapital, cfg.Trading.MaxPositionPct)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	eng := engine.New(cfg.Trading, source, strat, led, st)
	return &App{cfg: cfg, engine: eng, closers: closers}, nil
}

func buildSource(cfg config.MarketsConfig) (engine.MarketSource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "polymarket":
		return polymarket.NewSource(cfg), nil
	case "fixtures":
		return fixture.NewSource(cfg.FixturePath)
	default:
		return nil, fmt.Errorf("unknown market source %q", cfg.Source)
	}
}

func buildStrategy(cfg config.StrategyConfig) (strategy.Strategy, error) {
	registry := strategy.NewRegistry()
	if err := registry.Register("edge", func() (strategy.Strategy, error) {
		return strategy.NewEdgeStrategy(cfg.Edge)
	}); err != nil {
		return nil, err
	}
	if err := registry.Register("llm", func() (strategy.Strategy, error) {
		return llm.New(cfg.LLM)
	}); err != nil {
		return nil, err
	}
	return registry.Build(cfg.Active)
}

// setupLogging applies log level and output destinations. Returned closers own
// any opened log files.
func setupLogging(cfg config.AppConfig) ([]io.Closer, error) {
	logger.SetLevel(cfg.LogLevel)

	var closers []io.Closer
	if cfg.LogPath != "" {
		f, err := openLogFile(cfg.LogPath)
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	if cfg.LLMLogPath != "" {
		f, err := openLogFile(cfg.LLMLogPath)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		closers = append(closers, f)
		logger.SetLLMWriter(f)
		logger.EnableLLMPayloadDump(cfg.LLMDump)
	}
	return closers, nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s failed: %w", path, err)
	}
	return f, nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i].Close()
	}
}
