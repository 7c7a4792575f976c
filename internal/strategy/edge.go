package strategy

import (
	"context"
	"fmt"
	"sort"

	"polytrader/internal/config"
	"polytrader/internal/model"
)

// EdgeStrategy is a deterministic value rule: buy an outcome whose ask sits
// below a configured band, take profit once it trades above the exit band.
// The same snapshot and portfolio always yield the same decision, which makes
// it the reference implementation for engine tests and dry runs.
type EdgeStrategy struct {
	cfg config.EdgeConfig
}

func NewEdgeStrategy(cfg config.EdgeConfig) (*EdgeStrategy, error) {
	if cfg.BuyBelow <= 0 || cfg.SellAbove <= cfg.BuyBelow {
		return nil, fmt.Errorf("edge strategy requires 0 < buy_below < sell_above")
	}
	return &EdgeStrategy{cfg: cfg}, nil
}

func (s *EdgeStrategy) Name() string { return "edge" }

func (s *EdgeStrategy) Analyze(_ context.Context, snap model.MarketSnapshot, portfolio model.PortfolioSummary, existing *model.Position) (model.Decision, error) {
	if existing != nil {
		return s.manage(snap, existing), nil
	}
	return s.scan(snap, portfolio), nil
}

func (s *EdgeStrategy) manage(snap model.MarketSnapshot, pos *model.Position) model.Decision {
	quote, ok := snap.Quote(pos.Outcome)
	if !ok {
		return model.Pass(fmt.Sprintf("held outcome %q missing from snapshot", pos.Outcome))
	}
	if quote.SellPrice >= s.cfg.SellAbove {
		return model.Decision{
			Action:     model.ActionSell,
			TokenID:    pos.TokenID,
			Outcome:    pos.Outcome,
			Side:       pos.Side,
			Confidence: s.cfg.Confidence,
			Reasoning: fmt.Sprintf("sell price %.2f above exit band %.2f, taking profit",
				quote.SellPrice, s.cfg.SellAbove),
		}
	}
	return model.Decision{
		Action: model.ActionHold,
		Side:   pos.Side,
		Reasoning: fmt.Sprintf("holding %s: sell price %.2f below exit band %.2f",
			pos.Outcome, quote.SellPrice, s.cfg.SellAbove),
	}
}

func (s *EdgeStrategy) scan(snap model.MarketSnapshot, portfolio model.PortfolioSummary) model.Decision {
	// Stable iteration order keeps the rule deterministic across runs.
	names := make([]string, 0, len(snap.Outcomes))
	for name := range snap.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		quote := snap.Outcomes[name]
		if quote.BuyPrice <= 0 || quote.BuyPrice > s.cfg.BuyBelow {
			continue
		}
		edge := (s.cfg.BuyBelow - quote.BuyPrice) * 100
		return model.Decision{
			Action:     model.ActionBuy,
			TokenID:    quote.TokenID,
			Outcome:    name,
			Side:       model.SideYes,
			Size:       portfolio.TotalValue * s.cfg.SizePct,
			Confidence: s.cfg.Confidence,
			Edge:       &edge,
			Reasoning: fmt.Sprintf("buy price %.2f inside value band (< %.2f), implied prob %.0f%%",
				quote.BuyPrice, s.cfg.BuyBelow, quote.BuyPrice*100),
		}
	}
	return model.Pass("no outcome priced inside the value band")
}
