// Package engine drives the scan -> decide -> execute cycle loop. Market
// fetches and strategy calls fan out concurrently; ledger mutation and
// persistence happen in a single deterministic serial phase per cycle.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"polytrader/internal/config"
	"polytrader/internal/ledger"
	"polytrader/internal/logger"
	"polytrader/internal/model"
	"polytrader/internal/pkg/text"
	"polytrader/internal/store"
	"polytrader/internal/strategy"

	"golang.org/x/sync/errgroup"
)

// MarketSource supplies the tradable market set and priced snapshots.
type MarketSource interface {
	// ListMarkets returns the slugs of currently tracked markets.
	ListMarkets(ctx context.Context) ([]string, error)
	// FetchSnapshot returns a point-in-time priced snapshot for one market.
	FetchSnapshot(ctx context.Context, slug string) (model.MarketSnapshot, error)
}

// TerminationReason explains why Run returned.
type TerminationReason string

const (
	ReasonSingleCycle     TerminationReason = "single cycle complete"
	ReasonDurationElapsed TerminationReason = "run duration elapsed"
	ReasonCanceled        TerminationReason = "canceled"
)

const fetchConcurrency = 4

type Engine struct {
	cfg    config.TradingConfig
	source MarketSource
	strat  strategy.Strategy
	ledger *ledger.Ledger
	store  store.Store

	cycles int
}

func New(cfg config.TradingConfig, source MarketSource, strat strategy.Strategy, led *ledger.Ledger, st store.Store) *Engine {
	return &Engine{
		cfg:    cfg,
		source: source,
		strat:  strat,
		ledger: led,
		store:  st,
	}
}

// Run executes cycles until the configured duration elapses or the context is
// canceled. A zero duration runs exactly one cycle with no sleep.
func (e *Engine) Run(ctx context.Context) (TerminationReason, error) {
	start := time.Now()
	duration := e.cfg.Duration()
	interval := e.cfg.Interval()

	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			return ReasonCanceled, nil
		}
		cycleStart := time.Now()
		e.runCycle(ctx, cycle)
		e.cycles = cycle

		if duration == 0 {
			return ReasonSingleCycle, nil
		}
		if time.Since(start) >= duration {
			return ReasonDurationElapsed, nil
		}
		sleep := interval - time.Since(cycleStart)
		if sleep > 0 {
			logger.Infof("cycle %d done in %s, sleeping %s", cycle, time.Since(cycleStart).Round(time.Second), sleep.Round(time.Second))
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ReasonCanceled, nil
			case <-timer.C:
			}
		}
	}
}

// CyclesCompleted reports how many full cycles ran.
func (e *Engine) CyclesCompleted() int { return e.cycles }

// marketResult carries the outcome of the concurrent phase for one market.
type marketResult struct {
	slug     string
	snap     model.MarketSnapshot
	decision model.Decision
	fetchErr error
	errText  string
}

func (e *Engine) runCycle(ctx context.Context, cycle int) {
	now := time.Now()
	logger.Infof("=== cycle %d ===", cycle)

	slugs, err := e.source.ListMarkets(ctx)
	if err != nil {
		logger.Errorf("cycle %d: market scan failed: %v", cycle, err)
		e.persistState(ctx, cycle, now)
		return
	}
	if len(slugs) == 0 {
		logger.Infof("cycle %d: no markets to evaluate", cycle)
		e.persistState(ctx, cycle, now)
		return
	}

	summary := e.ledger.Summary()
	results := make([]marketResult, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, slug := range slugs {
		i, slug := i, slug
		g.Go(func() error {
			results[i] = e.evaluateMarket(gctx, slug, summary)
			return nil
		})
	}
	g.Wait()

	// Serial apply phase, ordered by slug so replays are deterministic.
	sort.Slice(results, func(i, j int) bool { return results[i].slug < results[j].slug })
	for _, res := range results {
		e.applyResult(ctx, cycle, now, res)
	}
	e.persistState(ctx, cycle, now)

	state := e.ledger.State(cycle, now)
	logger.Infof("cycle %d: cash %.2f, total %.2f (%+.2f%%), %d open positions",
		cycle, state.Cash, state.TotalValue, state.PnLPct, state.OpenPositions)
}

// evaluateMarket runs the concurrent per-market phase: fetch then analyze.
// It never mutates the ledger; errors are folded into the result.
func (e *Engine) evaluateMarket(ctx context.Context, slug string, summary model.PortfolioSummary) marketResult {
	res := marketResult{slug: slug}
	snap, err := e.source.FetchSnapshot(ctx, slug)
	if err != nil {
		res.fetchErr = err
		res.decision = model.Pass(fmt.Sprintf("market data unavailable for %s", slug))
		res.errText = err.Error()
		logger.Warnf("fetching %s failed: %v", slug, err)
		return res
	}
	res.snap = snap

	var existing *model.Position
	if pos, ok := e.ledger.OpenPositionForMarket(slug); ok {
		existing = &pos
	}
	decision, err := e.strat.Analyze(ctx, snap, summary, existing)
	if err != nil {
		res.decision = model.Pass(fmt.Sprintf("analysis failed: %v", err))
		res.errText = err.Error()
		logger.Warnf("analyzing %s failed: %v", slug, err)
		return res
	}
	res.decision = decision
	return res
}

func (e *Engine) applyResult(ctx context.Context, cycle int, now time.Time, res marketResult) {
	if res.fetchErr != nil {
		e.appendDecision(ctx, cycle, now, res)
		return
	}

	// Mark every outcome token so total value tracks the market even when the
	// decision is HOLD or PASS.
	for _, quote := range res.snap.Outcomes {
		e.ledger.MarkPrice(quote.TokenID, quote.Mid())
	}

	// The confidence gate belongs to the engine, not the strategy: a trade
	// below the floor is downgraded, never silently dropped.
	d := res.decision
	if d.Action.IsTrade() && d.Confidence < e.cfg.MinConfidence {
		logger.Infof("%s: %s downgraded to PASS (confidence %.2f < %.2f)",
			res.slug, d.Action, d.Confidence, e.cfg.MinConfidence)
		reason := fmt.Sprintf("confidence %.2f below floor %.2f; original: %s", d.Confidence, e.cfg.MinConfidence, d.Reasoning)
		d = model.Pass(reason)
		d.Confidence = res.decision.Confidence
		res.decision = d
	}

	applied, err := e.ledger.Apply(res.decision, res.snap, now)
	if err != nil {
		logger.Errorf("%s: applying decision failed: %v", res.slug, err)
		res.errText = err.Error()
		e.appendDecision(ctx, cycle, now, res)
		return
	}
	res.decision = applied.Decision
	logger.Infof("%s: %s (confidence %.2f) %s",
		res.slug, res.decision.Action, res.decision.Confidence, text.Truncate(res.decision.Reasoning, 160))

	if applied.Opened != nil {
		if err := e.store.AppendPosition(ctx, *applied.Opened); err != nil {
			logger.Errorf("persisting opened position failed: %v", err)
		}
	}
	if applied.Closed != nil {
		if err := e.store.ClosePosition(ctx, *applied.Closed); err != nil {
			logger.Errorf("persisting closed position failed: %v", err)
		}
	}
	e.appendDecision(ctx, cycle, now, res)
}

func (e *Engine) appendDecision(ctx context.Context, cycle int, now time.Time, res marketResult) {
	rec := model.CycleRecord{
		Cycle:      cycle,
		Timestamp:  now,
		MatchSlug:  res.slug,
		Action:     res.decision.Action,
		Outcome:    res.decision.Outcome,
		Side:       res.decision.Side,
		Size:       res.decision.Size,
		Confidence: res.decision.Confidence,
		Edge:       res.decision.Edge,
		Reasoning:  res.decision.Reasoning,
		Err:        res.errText,
	}
	if res.fetchErr == nil {
		if raw, err := json.Marshal(res.snap); err == nil {
			rec.MarketData = raw
		}
	}
	if err := e.store.AppendDecision(ctx, rec); err != nil {
		logger.Errorf("persisting decision for %s failed: %v", res.slug, err)
	}
}

func (e *Engine) persistState(ctx context.Context, cycle int, now time.Time) {
	if err := e.store.AppendPortfolioState(ctx, e.ledger.State(cycle, now)); err != nil {
		logger.Errorf("persisting portfolio state failed: %v", err)
	}
}
