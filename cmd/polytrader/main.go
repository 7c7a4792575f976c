package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"polytrader/internal/app"
	"polytrader/internal/config"
	"polytrader/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to the configuration file")
		duration   = flag.Int("duration", -1, "run duration in seconds, 0 for a single cycle (overrides config)")
		interval   = flag.Int("interval", -1, "seconds between cycles (overrides config)")
		strategyN  = flag.String("strategy", "", "active strategy name (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *duration >= 0 {
		cfg.Trading.DurationSeconds = *duration
	}
	if *interval >= 0 {
		cfg.Trading.IntervalSeconds = *interval
	}
	if *strategyN != "" {
		cfg.Strategy.Active = *strategyN
	}

	a, err := app.Build(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building application: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Errorf("run failed: %v", err)
		a.Close()
		os.Exit(1)
	}
}
