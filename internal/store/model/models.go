package model

import "gorm.io/datatypes"

// PositionModel mirrors one position lifecycle row. Rows are inserted OPEN
// and updated exactly once, on close.
type PositionModel struct {
	ID         string  `gorm:"column:id;primaryKey"`
	TokenID    string  `gorm:"column:token_id;index"`
	MatchSlug  string  `gorm:"column:match_slug;index"`
	Outcome    string  `gorm:"column:outcome"`
	Side       string  `gorm:"column:side"`
	EntryPrice float64 `gorm:"column:entry_price"`
	Shares     float64 `gorm:"column:shares"`
	CostBasis  float64 `gorm:"column:cost_basis"`
	EntryTime  int64   `gorm:"column:entry_time"`
	ExitPrice  float64 `gorm:"column:exit_price"`
	ExitTime   int64   `gorm:"column:exit_time"`
	PnL        float64 `gorm:"column:pnl"`
	Reasoning  string  `gorm:"column:reasoning"`
	Status     string  `gorm:"column:status;index"`
}

func (PositionModel) TableName() string { return "positions" }

// PortfolioStateModel is the per-cycle portfolio snapshot. MarksJSON keeps
// the token marks used for the valuation so audits can reproduce total_value.
type PortfolioStateModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Cycle         int            `gorm:"column:cycle;index"`
	Timestamp     int64          `gorm:"column:timestamp;index"`
	Cash          float64        `gorm:"column:cash"`
	TotalValue    float64        `gorm:"column:total_value"`
	PnLPct        float64        `gorm:"column:pnl_pct"`
	RealizedPnL   float64        `gorm:"column:realized_pnl"`
	OpenPositions int            `gorm:"column:num_open_positions"`
	MarksJSON     datatypes.JSON `gorm:"column:marks_json;type:TEXT"`
}

func (PortfolioStateModel) TableName() string { return "portfolio_state" }
