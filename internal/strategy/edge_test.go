package strategy

import (
	"context"
	"testing"

	"polytrader/internal/config"
	"polytrader/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edgeConfig() config.EdgeConfig {
	return config.EdgeConfig{BuyBelow: 0.35, SellAbove: 0.75, SizePct: 0.1, Confidence: 0.7}
}

func edgeSnap(outcomes map[string]model.OutcomeQuote) model.MarketSnapshot {
	return model.MarketSnapshot{Slug: "m1", Title: "m1", Outcomes: outcomes}
}

func TestNewEdgeStrategyValidation(t *testing.T) {
	_, err := NewEdgeStrategy(config.EdgeConfig{BuyBelow: 0, SellAbove: 0.75})
	assert.Error(t, err)
	_, err = NewEdgeStrategy(config.EdgeConfig{BuyBelow: 0.8, SellAbove: 0.75})
	assert.Error(t, err)
	s, err := NewEdgeStrategy(edgeConfig())
	require.NoError(t, err)
	assert.Equal(t, "edge", s.Name())
}

func TestEdgeBuysInsideValueBand(t *testing.T) {
	s, err := NewEdgeStrategy(edgeConfig())
	require.NoError(t, err)

	snap := edgeSnap(map[string]model.OutcomeQuote{
		"Favourite": {TokenID: "tok-f", BuyPrice: 0.70},
		"Underdog":  {TokenID: "tok-u", BuyPrice: 0.28},
	})
	portfolio := model.PortfolioSummary{Cash: 1000, TotalValue: 1000}

	d, err := s.Analyze(context.Background(), snap, portfolio, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ActionBuy, d.Action)
	assert.Equal(t, "Underdog", d.Outcome)
	assert.Equal(t, "tok-u", d.TokenID)
	assert.InDelta(t, 100, d.Size, 1e-9)
	assert.Equal(t, 0.7, d.Confidence)
	require.NotNil(t, d.Edge)
	assert.InDelta(t, 7, *d.Edge, 1e-9)

	// Same snapshot and portfolio, same decision.
	again, err := s.Analyze(context.Background(), snap, portfolio, nil)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestEdgePassesWhenNothingCheap(t *testing.T) {
	s, err := NewEdgeStrategy(edgeConfig())
	require.NoError(t, err)

	snap := edgeSnap(map[string]model.OutcomeQuote{
		"A": {TokenID: "tok-a", BuyPrice: 0.55},
		"B": {TokenID: "tok-b", BuyPrice: 0.47},
	})
	d, err := s.Analyze(context.Background(), snap, model.PortfolioSummary{TotalValue: 1000}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ActionPass, d.Action)
}

func TestEdgeManagesExistingPosition(t *testing.T) {
	s, err := NewEdgeStrategy(edgeConfig())
	require.NoError(t, err)
	existing := &model.Position{TokenID: "tok-u", Outcome: "Underdog", Side: model.SideYes}

	hold := edgeSnap(map[string]model.OutcomeQuote{
		"Underdog": {TokenID: "tok-u", BuyPrice: 0.52, SellPrice: 0.50},
	})
	d, err := s.Analyze(context.Background(), hold, model.PortfolioSummary{}, existing)
	require.NoError(t, err)
	assert.Equal(t, model.ActionHold, d.Action)

	exit := edgeSnap(map[string]model.OutcomeQuote{
		"Underdog": {TokenID: "tok-u", BuyPrice: 0.80, SellPrice: 0.78},
	})
	d, err = s.Analyze(context.Background(), exit, model.PortfolioSummary{}, existing)
	require.NoError(t, err)
	assert.Equal(t, model.ActionSell, d.Action)
	assert.Equal(t, "tok-u", d.TokenID)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("edge", func() (Strategy, error) {
		return NewEdgeStrategy(edgeConfig())
	}))

	assert.Error(t, r.Register("edge", func() (Strategy, error) { return nil, nil }))
	assert.Error(t, r.Register("", func() (Strategy, error) { return nil, nil }))
	assert.Error(t, r.Register("nil", nil))

	s, err := r.Build("EDGE")
	require.NoError(t, err)
	assert.Equal(t, "edge", s.Name())

	_, err = r.Build("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edge")
	assert.Equal(t, []string{"edge"}, r.Names())
}
