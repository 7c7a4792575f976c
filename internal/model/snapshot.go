package model

import "time"

// OutcomeQuote carries live pricing for a single outcome token.
type OutcomeQuote struct {
	TokenID   string  `json:"token_id"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
	Midpoint  float64 `json:"midpoint"`
	Spread    float64 `json:"spread"`
}

// MarketSnapshot is a point-in-time view of one market. It is produced by a
// market source and consumed read-only by strategies and the ledger.
type MarketSnapshot struct {
	Slug      string                  `json:"slug"`
	Title     string                  `json:"title"`
	Volume    float64                 `json:"volume"`
	Liquidity float64                 `json:"liquidity"`
	Outcomes  map[string]OutcomeQuote `json:"outcomes"`
	FetchedAt time.Time               `json:"fetched_at"`
}

// Quote returns the quote for a named outcome.
func (s MarketSnapshot) Quote(outcome string) (OutcomeQuote, bool) {
	q, ok := s.Outcomes[outcome]
	return q, ok
}

// Mid returns the best available mark price for an outcome: the midpoint when
// the source supplied one, otherwise the average of buy and sell.
func (q OutcomeQuote) Mid() float64 {
	if q.Midpoint > 0 {
		return q.Midpoint
	}
	if q.BuyPrice > 0 && q.SellPrice > 0 {
		return (q.BuyPrice + q.SellPrice) / 2
	}
	if q.BuyPrice > 0 {
		return q.BuyPrice
	}
	return q.SellPrice
}
