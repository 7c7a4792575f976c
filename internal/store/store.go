package store

import (
	"context"
	"errors"

	"polytrader/internal/config"
	"polytrader/internal/model"
	"polytrader/internal/store/decisionlog"
	"polytrader/internal/store/sqlite"
)

// composite routes portfolio and position rows to the Gorm store and decision
// audit rows to the standalone decision log database.
type composite struct {
	portfolio *sqlite.Store
	decisions *decisionlog.Store
}

// New opens both databases from the database config section.
func New(cfg config.DatabaseConfig) (Store, error) {
	portfolio, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, err
	}
	decisions, err := decisionlog.New(cfg.DecisionLogPath)
	if err != nil {
		portfolio.Close()
		return nil, err
	}
	return &composite{portfolio: portfolio, decisions: decisions}, nil
}

func (c *composite) AppendPortfolioState(ctx context.Context, state model.PortfolioState) error {
	return c.portfolio.AppendPortfolioState(ctx, state)
}

func (c *composite) AppendPosition(ctx context.Context, pos model.Position) error {
	return c.portfolio.AppendPosition(ctx, pos)
}

func (c *composite) ClosePosition(ctx context.Context, pos model.Position) error {
	return c.portfolio.ClosePosition(ctx, pos)
}

func (c *composite) AppendDecision(ctx context.Context, rec model.CycleRecord) error {
	return c.decisions.Append(ctx, rec)
}

func (c *composite) ListOpenPositions(ctx context.Context) ([]model.Position, error) {
	return c.portfolio.ListOpenPositions(ctx)
}

func (c *composite) RecentDecisions(ctx context.Context, limit int) ([]model.CycleRecord, error) {
	return c.decisions.Recent(ctx, limit)
}

func (c *composite) Close() error {
	return errors.Join(c.portfolio.Close(), c.decisions.Close())
}
