package model

import "time"

// PositionStatus is the lifecycle state of a position record.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Position is one open-or-closed trade lot tied to a single outcome token.
// A record is created OPEN and only ever transitions to CLOSED; it is never
// deleted. A token may reopen later under a fresh record.
type Position struct {
	ID         string         `json:"id"`
	TokenID    string         `json:"token_id"`
	MatchSlug  string         `json:"match_slug"`
	Outcome    string         `json:"outcome"`
	Side       Side           `json:"side"`
	EntryPrice float64        `json:"entry_price"`
	Shares     float64        `json:"shares"`
	CostBasis  float64        `json:"cost_basis"`
	EntryTime  time.Time      `json:"entry_time"`
	Reasoning  string         `json:"reasoning,omitempty"`
	ExitPrice  float64        `json:"exit_price,omitempty"`
	ExitTime   time.Time      `json:"exit_time,omitempty"`
	PnL        float64        `json:"pnl,omitempty"`
	Status     PositionStatus `json:"status"`
}

// CurrentValue marks the position at the given price.
func (p Position) CurrentValue(price float64) float64 {
	return price * p.Shares
}

// UnrealizedPnL is the mark-to-market gain of an open position.
func (p Position) UnrealizedPnL(price float64) float64 {
	if p.Status != PositionOpen {
		return 0
	}
	return (price - p.EntryPrice) * p.Shares * p.Side.Sign()
}
