package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"polytrader/internal/config"
	"polytrader/internal/ledger"
	"polytrader/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	markets  map[string]model.MarketSnapshot
	failing  map[string]error
	listErr  error
	listCnt  int
	fetchCnt int
}

func (f *fakeSource) ListMarkets(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCnt++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var slugs []string
	for slug := range f.markets {
		slugs = append(slugs, slug)
	}
	for slug := range f.failing {
		slugs = append(slugs, slug)
	}
	return slugs, nil
}

func (f *fakeSource) FetchSnapshot(_ context.Context, slug string) (model.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCnt++
	if err, ok := f.failing[slug]; ok {
		return model.MarketSnapshot{}, err
	}
	snap, ok := f.markets[slug]
	if !ok {
		return model.MarketSnapshot{}, fmt.Errorf("unknown slug %q", slug)
	}
	return snap, nil
}

// scriptedStrategy returns a fixed decision per slug, PASS otherwise.
type scriptedStrategy struct {
	decisions map[string]model.Decision
	err       error
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Analyze(_ context.Context, snap model.MarketSnapshot, _ model.PortfolioSummary, _ *model.Position) (model.Decision, error) {
	if s.err != nil {
		return model.Decision{}, s.err
	}
	if d, ok := s.decisions[snap.Slug]; ok {
		return d, nil
	}
	return model.Pass("no opinion"), nil
}

type memStore struct {
	mu        sync.Mutex
	states    []model.PortfolioState
	positions []model.Position
	closed    []model.Position
	decisions []model.CycleRecord
}

func (m *memStore) AppendPortfolioState(_ context.Context, s model.PortfolioState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s)
	return nil
}

func (m *memStore) AppendPosition(_ context.Context, p model.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = append(m.positions, p)
	return nil
}

func (m *memStore) ClosePosition(_ context.Context, p model.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, p)
	return nil
}

func (m *memStore) AppendDecision(_ context.Context, rec model.CycleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, rec)
	return nil
}

func (m *memStore) ListOpenPositions(context.Context) ([]model.Position, error) { return nil, nil }
func (m *memStore) RecentDecisions(context.Context, int) ([]model.CycleRecord, error) {
	return nil, nil
}
func (m *memStore) Close() error { return nil }

func testConfig() config.TradingConfig {
	return config.TradingConfig{
		StartingCapital: 1000,
		IntervalSeconds: 300,
		DurationSeconds: 0, // single cycle
		MaxPositionPct:  0.3,
		MinConfidence:   0.6,
	}
}

func testSnapshot(slug, tokenID string, buy, sell float64) model.MarketSnapshot {
	return model.MarketSnapshot{
		Slug:  slug,
		Title: slug,
		Outcomes: map[string]model.OutcomeQuote{
			"Yes": {TokenID: tokenID, BuyPrice: buy, SellPrice: sell},
		},
		FetchedAt: time.Now(),
	}
}

func newTestEngine(t *testing.T, cfg config.TradingConfig, src MarketSource, strat *scriptedStrategy) (*Engine, *memStore, *ledger.Ledger) {
	t.Helper()
	led, err := ledger.New(cfg.StartingCapital, cfg.MaxPositionPct)
	require.NoError(t, err)
	st := &memStore{}
	return New(cfg, src, strat, led, st), st, led
}

func TestZeroDurationRunsExactlyOneCycle(t *testing.T) {
	src := &fakeSource{markets: map[string]model.MarketSnapshot{
		"m1": testSnapshot("m1", "tok-1", 0.40, 0.38),
	}}
	eng, st, _ := newTestEngine(t, testConfig(), src, &scriptedStrategy{})

	reason, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonSingleCycle, reason)
	assert.Equal(t, 1, src.listCnt)
	assert.Equal(t, 1, eng.CyclesCompleted())
	require.Len(t, st.states, 1)
	assert.Equal(t, 1, st.states[0].Cycle)
}

func TestFetchFailureIsContainedPerMarket(t *testing.T) {
	src := &fakeSource{
		markets: map[string]model.MarketSnapshot{
			"a-market": testSnapshot("a-market", "tok-a", 0.40, 0.38),
			"c-market": testSnapshot("c-market", "tok-c", 0.55, 0.53),
		},
		failing: map[string]error{"b-market": fmt.Errorf("gateway timeout")},
	}
	strat := &scriptedStrategy{decisions: map[string]model.Decision{
		"a-market": {Action: model.ActionBuy, TokenID: "tok-a", Outcome: "Yes", Side: model.SideYes, Size: 100, Confidence: 0.9, Reasoning: "value"},
	}}
	eng, st, led := newTestEngine(t, testConfig(), src, strat)

	_, err := eng.Run(context.Background())
	require.NoError(t, err)

	// One decision row per market, the failed fetch recorded as PASS with error.
	require.Len(t, st.decisions, 3)
	bySlug := make(map[string]model.CycleRecord)
	for _, rec := range st.decisions {
		bySlug[rec.MatchSlug] = rec
	}
	assert.Equal(t, model.ActionBuy, bySlug["a-market"].Action)
	assert.Equal(t, model.ActionPass, bySlug["b-market"].Action)
	assert.Contains(t, bySlug["b-market"].Err, "gateway timeout")
	assert.Empty(t, bySlug["b-market"].MarketData)
	assert.NotEmpty(t, bySlug["a-market"].MarketData)

	// The good market still traded.
	require.Len(t, st.positions, 1)
	assert.Equal(t, "a-market", st.positions[0].MatchSlug)
	assert.Len(t, led.OpenPositions(), 1)
}

func TestConfidenceBelowFloorDowngradesToPass(t *testing.T) {
	src := &fakeSource{markets: map[string]model.MarketSnapshot{
		"m1": testSnapshot("m1", "tok-1", 0.40, 0.38),
	}}
	strat := &scriptedStrategy{decisions: map[string]model.Decision{
		"m1": {Action: model.ActionBuy, TokenID: "tok-1", Outcome: "Yes", Side: model.SideYes, Size: 100, Confidence: 0.4, Reasoning: "weak signal"},
	}}
	eng, st, led := newTestEngine(t, testConfig(), src, strat)

	_, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, st.decisions, 1)
	assert.Equal(t, model.ActionPass, st.decisions[0].Action)
	assert.Equal(t, 0.4, st.decisions[0].Confidence)
	assert.Contains(t, st.decisions[0].Reasoning, "below floor")
	assert.Empty(t, st.positions)
	assert.Equal(t, 1000.0, led.Summary().Cash)
}

func TestAnalyzeErrorRecordsPassRow(t *testing.T) {
	src := &fakeSource{markets: map[string]model.MarketSnapshot{
		"m1": testSnapshot("m1", "tok-1", 0.40, 0.38),
	}}
	strat := &scriptedStrategy{err: fmt.Errorf("model call failed")}
	eng, st, _ := newTestEngine(t, testConfig(), src, strat)

	_, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, st.decisions, 1)
	assert.Equal(t, model.ActionPass, st.decisions[0].Action)
	assert.Contains(t, st.decisions[0].Err, "model call failed")
}

func TestScanFailureStillPersistsState(t *testing.T) {
	src := &fakeSource{listErr: fmt.Errorf("gamma unavailable")}
	eng, st, _ := newTestEngine(t, testConfig(), src, &scriptedStrategy{})

	_, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.decisions)
	require.Len(t, st.states, 1)
	assert.Equal(t, 1000.0, st.states[0].Cash)
}

func TestOpenThenCloseAcrossCycles(t *testing.T) {
	src := &fakeSource{markets: map[string]model.MarketSnapshot{
		"m1": testSnapshot("m1", "tok-1", 0.40, 0.38),
	}}
	strat := &scriptedStrategy{decisions: map[string]model.Decision{
		"m1": {Action: model.ActionBuy, TokenID: "tok-1", Outcome: "Yes", Side: model.SideYes, Size: 100, Confidence: 0.9, Reasoning: "entry"},
	}}
	eng, st, led := newTestEngine(t, testConfig(), src, strat)

	_, err := eng.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, st.positions, 1)

	// Next cycle the price has run up and the strategy exits.
	src.mu.Lock()
	src.markets["m1"] = testSnapshot("m1", "tok-1", 0.72, 0.70)
	src.mu.Unlock()
	strat.decisions["m1"] = model.Decision{Action: model.ActionSell, TokenID: "tok-1", Outcome: "Yes", Side: model.SideYes, Confidence: 0.9, Reasoning: "exit"}

	_, err = eng.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, st.closed, 1)
	assert.InDelta(t, 75, st.closed[0].PnL, 1e-9) // (0.70-0.40)*250
	assert.Empty(t, led.OpenPositions())
	assert.InDelta(t, 1075, led.Summary().Cash, 1e-9)
}

func TestCanceledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{markets: map[string]model.MarketSnapshot{}}
	eng, _, _ := newTestEngine(t, testConfig(), src, &scriptedStrategy{})

	reason, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonCanceled, reason)
	assert.Equal(t, 0, eng.CyclesCompleted())
}
