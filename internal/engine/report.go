package engine

import (
	"fmt"
	"strings"
)

// Report renders the end-of-run summary block.
func (e *Engine) Report() string {
	start := e.ledger.StartingCapital()
	summary := e.ledger.Summary()
	pnl := summary.TotalValue - start
	pnlPct := 0.0
	if start > 0 {
		pnlPct = pnl / start * 100
	}

	var b strings.Builder
	b.WriteString("========== FINAL REPORT ==========\n")
	fmt.Fprintf(&b, "cycles completed:  %d\n", e.cycles)
	fmt.Fprintf(&b, "starting capital:  %.2f\n", start)
	fmt.Fprintf(&b, "final value:       %.2f\n", summary.TotalValue)
	fmt.Fprintf(&b, "cash:              %.2f\n", summary.Cash)
	fmt.Fprintf(&b, "total P&L:         %+.2f (%+.2f%%)\n", pnl, pnlPct)
	fmt.Fprintf(&b, "realized P&L:      %+.2f\n", e.ledger.RealizedPnL())

	closed := e.ledger.ClosedPositions()
	fmt.Fprintf(&b, "closed positions:  %d\n", len(closed))
	for _, pos := range closed {
		fmt.Fprintf(&b, "  %s %s %s: %.3f -> %.3f, P&L %+.2f\n",
			pos.MatchSlug, pos.Outcome, pos.Side, pos.EntryPrice, pos.ExitPrice, pos.PnL)
	}

	open := e.ledger.OpenPositions()
	fmt.Fprintf(&b, "open positions:    %d\n", len(open))
	for _, pos := range open {
		fmt.Fprintf(&b, "  %s %s %s: entry %.3f, cost %.2f\n",
			pos.MatchSlug, pos.Outcome, pos.Side, pos.EntryPrice, pos.CostBasis)
	}
	b.WriteString("==================================")
	return b.String()
}
