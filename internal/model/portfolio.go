package model

import "time"

// PortfolioState is the per-cycle snapshot of the aggregate portfolio.
// Invariant: TotalValue == Cash + sum of mark-to-market of open positions.
type PortfolioState struct {
	Cycle         int       `json:"cycle"`
	Timestamp     time.Time `json:"timestamp"`
	Cash          float64   `json:"cash"`
	TotalValue    float64   `json:"total_value"`
	PnLPct        float64   `json:"pnl_pct"`
	RealizedPnL   float64   `json:"realized_pnl"`
	OpenPositions int       `json:"open_positions"`
	// Marks are the token prices the valuation used, kept for audits.
	Marks map[string]float64 `json:"marks,omitempty"`
}

// PortfolioSummary is the read-only slice of portfolio state handed to
// strategies each cycle.
type PortfolioSummary struct {
	Cash          float64 `json:"cash"`
	TotalValue    float64 `json:"total_value"`
	OpenPositions int     `json:"open_positions"`
}

// CycleRecord links one decision to the snapshot that produced it and the
// resulting portfolio delta. One row is appended per (cycle, market),
// including markets skipped on fetch failure.
type CycleRecord struct {
	Cycle      int       `json:"cycle"`
	Timestamp  time.Time `json:"timestamp"`
	MatchSlug  string    `json:"match_slug"`
	Action     Action    `json:"action"`
	Outcome    string    `json:"outcome,omitempty"`
	Side       Side      `json:"side,omitempty"`
	Size       float64   `json:"size"`
	Confidence float64   `json:"confidence"`
	Edge       *float64  `json:"edge,omitempty"`
	Reasoning  string    `json:"reasoning"`
	MarketData []byte    `json:"market_data,omitempty"`
	Err        string    `json:"error,omitempty"`
}
