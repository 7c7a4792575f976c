// Package ledger owns the simulated portfolio: cash, open and closed
// positions, realized P&L. It is a single-writer state machine; the engine's
// serial apply phase is the only mutator.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"polytrader/internal/logger"
	"polytrader/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger applies trade decisions to the portfolio and enforces sizing limits.
// Violations are never fatal: an oversized request is clamped down and the
// clamp is recorded in the decision reasoning.
type Ledger struct {
	startingCapital decimal.Decimal
	cash            decimal.Decimal
	realized        decimal.Decimal
	maxPositionPct  decimal.Decimal

	open   map[string]*model.Position // keyed by token id, at most one OPEN per token
	closed []model.Position
	prices map[string]float64 // token id -> latest mark price
}

// ApplyResult reports what a single decision did to the ledger.
type ApplyResult struct {
	Decision model.Decision // as executed, reasoning includes any clamp note
	Opened   *model.Position
	Closed   *model.Position
	Clamped  bool
	Summary  model.PortfolioSummary
}

func New(startingCapital, maxPositionPct float64) (*Ledger, error) {
	if startingCapital <= 0 {
		return nil, fmt.Errorf("starting capital must be > 0")
	}
	if maxPositionPct <= 0 || maxPositionPct > 1 {
		return nil, fmt.Errorf("max position pct must be in (0, 1]")
	}
	start := decimal.NewFromFloat(startingCapital)
	return &Ledger{
		startingCapital: start,
		cash:            start,
		maxPositionPct:  decimal.NewFromFloat(maxPositionPct),
		open:            make(map[string]*model.Position),
		prices:          make(map[string]float64),
	}, nil
}

// MarkPrice records the latest mark price for a token. Total value is
// recomputed from these marks every cycle, not only on trades.
func (l *Ledger) MarkPrice(tokenID string, price float64) {
	if tokenID == "" || price <= 0 {
		return
	}
	l.prices[tokenID] = price
}

// Apply executes one decision against the portfolio. PASS and HOLD never
// mutate. A BUY/SELL on a token with an existing OPEN position closes it;
// otherwise it opens new exposure, clamped to cash and the per-trade cap.
func (l *Ledger) Apply(d model.Decision, snap model.MarketSnapshot, now time.Time) (ApplyResult, error) {
	res := ApplyResult{Decision: d}
	if !d.Action.IsTrade() {
		res.Summary = l.Summary()
		return res, nil
	}
	if existing, ok := l.open[d.TokenID]; ok {
		return l.close(res, existing, snap, now)
	}
	return l.openNew(res, d, snap, now)
}

func (l *Ledger) openNew(res ApplyResult, d model.Decision, snap model.MarketSnapshot, now time.Time) (ApplyResult, error) {
	quote, ok := l.resolveQuote(d, snap)
	if !ok {
		res.Decision = model.Pass(fmt.Sprintf("outcome %q not present in snapshot for %s", d.Outcome, snap.Slug))
		res.Summary = l.Summary()
		return res, nil
	}
	entry := quote.BuyPrice
	if entry <= 0 {
		res.Decision = model.Pass(fmt.Sprintf("no buy price for %q in %s", d.Outcome, snap.Slug))
		res.Summary = l.Summary()
		return res, nil
	}

	requested := decimal.NewFromFloat(d.Size)
	size, note := l.clampSize(requested)
	if size.LessThanOrEqual(decimal.Zero) {
		res.Decision = model.Pass("no cash available to open a position")
		res.Summary = l.Summary()
		return res, nil
	}
	if note != "" {
		res.Clamped = true
		d.Size, _ = size.Float64()
		d.Reasoning = d.Reasoning + " " + note
		logger.Warnf("position size clamped for %s: %s", snap.Slug, note)
	}

	cost, _ := size.Float64()
	pos := &model.Position{
		ID:         uuid.NewString(),
		TokenID:    d.TokenID,
		MatchSlug:  snap.Slug,
		Outcome:    d.Outcome,
		Side:       d.Side,
		EntryPrice: entry,
		Shares:     cost / entry,
		CostBasis:  cost,
		EntryTime:  now,
		Reasoning:  d.Reasoning,
		Status:     model.PositionOpen,
	}
	l.cash = l.cash.Sub(size)
	l.open[pos.TokenID] = pos
	l.prices[pos.TokenID] = entry

	logger.Infof("opened position %s: %s @ %.3f (%.0f shares, cost %.2f)",
		pos.MatchSlug, pos.Outcome, pos.EntryPrice, pos.Shares, pos.CostBasis)

	opened := *pos
	res.Decision = d
	res.Opened = &opened
	res.Summary = l.Summary()
	return res, nil
}

func (l *Ledger) close(res ApplyResult, pos *model.Position, snap model.MarketSnapshot, now time.Time) (ApplyResult, error) {
	exit := 0.0
	if quote, ok := snap.Quote(pos.Outcome); ok {
		exit = quote.SellPrice
		if exit <= 0 {
			exit = quote.Mid()
		}
	}
	if exit <= 0 {
		if last, ok := l.prices[pos.TokenID]; ok {
			exit = last
		}
	}
	if exit <= 0 {
		res.Decision = model.Pass(fmt.Sprintf("no exit price for %q in %s", pos.Outcome, snap.Slug))
		res.Summary = l.Summary()
		return res, nil
	}

	pnl := decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(pos.EntryPrice)).
		Mul(decimal.NewFromFloat(pos.Shares)).
		Mul(decimal.NewFromFloat(pos.Side.Sign()))
	proceeds := decimal.NewFromFloat(pos.CostBasis).Add(pnl)

	pos.ExitPrice = exit
	pos.ExitTime = now
	pos.PnL, _ = pnl.Float64()
	pos.Status = model.PositionClosed

	l.cash = l.cash.Add(proceeds)
	l.realized = l.realized.Add(pnl)
	delete(l.open, pos.TokenID)
	delete(l.prices, pos.TokenID)
	l.closed = append(l.closed, *pos)

	logger.Infof("closed position %s: %s @ %.3f (P&L %+.2f)",
		pos.MatchSlug, pos.Outcome, exit, pos.PnL)

	closed := *pos
	res.Closed = &closed
	res.Summary = l.Summary()
	return res, nil
}

// clampSize reduces a requested cost basis to available cash and the
// per-trade share of total value, whichever binds first.
func (l *Ledger) clampSize(requested decimal.Decimal) (decimal.Decimal, string) {
	size := requested
	limit := decimal.NewFromFloat(l.totalValue()).Mul(l.maxPositionPct)
	var note string
	if size.GreaterThan(limit) {
		size = limit
		note = fmt.Sprintf("[clamped from %s to %s by max position cap]",
			requested.StringFixed(2), size.StringFixed(2))
	}
	if size.GreaterThan(l.cash) {
		size = l.cash
		note = fmt.Sprintf("[clamped from %s to %s by available cash]",
			requested.StringFixed(2), size.StringFixed(2))
	}
	return size, note
}

func (l *Ledger) resolveQuote(d model.Decision, snap model.MarketSnapshot) (model.OutcomeQuote, bool) {
	if q, ok := snap.Quote(d.Outcome); ok {
		return q, true
	}
	for _, q := range snap.Outcomes {
		if q.TokenID == d.TokenID {
			return q, true
		}
	}
	return model.OutcomeQuote{}, false
}

// Summary returns the current portfolio figures for strategies and records.
func (l *Ledger) Summary() model.PortfolioSummary {
	cash, _ := l.cash.Float64()
	return model.PortfolioSummary{
		Cash:          cash,
		TotalValue:    l.totalValue(),
		OpenPositions: len(l.open),
	}
}

// State snapshots the portfolio for persistence at the end of a cycle.
func (l *Ledger) State(cycle int, ts time.Time) model.PortfolioState {
	cash, _ := l.cash.Float64()
	realized, _ := l.realized.Float64()
	start, _ := l.startingCapital.Float64()
	total := l.totalValue()
	pnlPct := 0.0
	if start > 0 {
		pnlPct = (total - start) / start * 100
	}
	marks := make(map[string]float64, len(l.open))
	for token := range l.open {
		if price, ok := l.prices[token]; ok {
			marks[token] = price
		}
	}
	return model.PortfolioState{
		Cycle:         cycle,
		Timestamp:     ts,
		Cash:          cash,
		TotalValue:    total,
		PnLPct:        pnlPct,
		RealizedPnL:   realized,
		OpenPositions: len(l.open),
		Marks:         marks,
	}
}

// totalValue is cash plus the mark-to-market of open positions, falling back
// to cost basis for tokens without a recorded mark.
func (l *Ledger) totalValue() float64 {
	total := l.cash
	for token, pos := range l.open {
		if price, ok := l.prices[token]; ok {
			total = total.Add(decimal.NewFromFloat(pos.CurrentValue(price)))
			continue
		}
		total = total.Add(decimal.NewFromFloat(pos.CostBasis))
	}
	v, _ := total.Float64()
	return v
}

// OpenPositionForToken returns a copy of the OPEN position for the token.
func (l *Ledger) OpenPositionForToken(tokenID string) (model.Position, bool) {
	pos, ok := l.open[tokenID]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// OpenPositionForMarket returns a copy of the OPEN position for the market.
func (l *Ledger) OpenPositionForMarket(slug string) (model.Position, bool) {
	for _, pos := range l.open {
		if pos.MatchSlug == slug {
			return *pos, true
		}
	}
	return model.Position{}, false
}

// OpenPositions lists open positions ordered by token id.
func (l *Ledger) OpenPositions() []model.Position {
	out := make([]model.Position, 0, len(l.open))
	for _, pos := range l.open {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out
}

// ClosedPositions lists closed positions in close order.
func (l *Ledger) ClosedPositions() []model.Position {
	return append([]model.Position(nil), l.closed...)
}

// StartingCapital returns the configured initial cash.
func (l *Ledger) StartingCapital() float64 {
	v, _ := l.startingCapital.Float64()
	return v
}

// RealizedPnL returns cumulative realized profit and loss.
func (l *Ledger) RealizedPnL() float64 {
	v, _ := l.realized.Float64()
	return v
}
