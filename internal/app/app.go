// Package app wires configuration, store, market source, strategy and engine
// into a runnable paper-trading process.
package app

import (
	"context"
	"io"

	"polytrader/internal/config"
	"polytrader/internal/engine"
	"polytrader/internal/logger"
)

type App struct {
	cfg     *config.Config
	engine  *engine.Engine
	closers []io.Closer
}

// Run executes the engine until it terminates, then prints the final report.
func (a *App) Run(ctx context.Context) error {
	logger.Infof("starting %s strategy, capital %.2f, interval %s, duration %s",
		a.cfg.Strategy.Active, a.cfg.Trading.StartingCapital,
		a.cfg.Trading.Interval(), a.cfg.Trading.Duration())

	reason, err := a.engine.Run(ctx)
	if err != nil {
		return err
	}
	logger.Infof("run finished: %s", reason)
	logger.InfoBlock(a.engine.Report())
	return nil
}

// Close releases the store, strategy resources and log files.
func (a *App) Close() {
	closeAll(a.closers)
}
