package polymarket

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"polytrader/internal/config"
	"polytrader/internal/logger"
	"polytrader/internal/model"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const eventPageLimit = 30

// Source discovers tracked markets via Gamma and prices them via the CLOB.
type Source struct {
	gamma    *GammaClient
	clob     *ClobClient
	keywords []string
	minVol   float64
}

func NewSource(cfg config.MarketsConfig) *Source {
	// One limiter shared across both APIs keeps total request rate bounded.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	keywords := make([]string, 0, len(cfg.SeriesKeywords))
	for _, kw := range cfg.SeriesKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &Source{
		gamma:    NewGammaClient(cfg.GammaBaseURL, timeout, limiter),
		clob:     NewClobClient(cfg.ClobBaseURL, timeout, limiter),
		keywords: keywords,
		minVol:   cfg.MinVolume,
	}
}

// ListMarkets discovers active matches above the volume threshold. The set is
// resolved fresh every cycle as matches start and finish.
func (s *Source) ListMarkets(ctx context.Context) ([]string, error) {
	sports, err := s.gamma.ListSports(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sports failed: %w", err)
	}
	var seriesIDs []string
	sports.ForEach(func(_, sport gjson.Result) bool {
		name := strings.ToLower(sport.Get("sport").String())
		series := sport.Get("series").String()
		if series == "" {
			return true
		}
		for _, kw := range s.keywords {
			if strings.Contains(name, kw) {
				seriesIDs = append(seriesIDs, series)
				break
			}
		}
		return true
	})
	if len(seriesIDs) == 0 {
		logger.Warnf("no leagues matched keywords %v", s.keywords)
		return nil, nil
	}

	seen := make(map[string]bool)
	var slugs []string
	for _, seriesID := range seriesIDs {
		events, err := s.gamma.ListEvents(ctx, seriesID, eventPageLimit)
		if err != nil {
			// A single dead series must not hide the rest.
			logger.Debugf("no events for series %s: %v", seriesID, err)
			continue
		}
		events.ForEach(func(_, event gjson.Result) bool {
			slug := event.Get("slug").String()
			if slug == "" || seen[slug] {
				return true
			}
			if event.Get("volume").Float() < s.minVol {
				return true
			}
			seen[slug] = true
			slugs = append(slugs, slug)
			return true
		})
	}
	sort.Strings(slugs)
	logger.Infof("scan found %d markets above %.0f volume", len(slugs), s.minVol)
	return slugs, nil
}

// FetchSnapshot collects a full priced snapshot for one market. It reads the
// moneyline sub-market of the event and quotes every outcome token against
// the CLOB, falling back to Gamma's cached prices when the CLOB is unavailable.
func (s *Source) FetchSnapshot(ctx context.Context, slug string) (model.MarketSnapshot, error) {
	event, err := s.gamma.EventBySlug(ctx, slug)
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	snap := model.MarketSnapshot{
		Slug:      slug,
		Title:     event.Get("title").String(),
		Volume:    event.Get("volume").Float(),
		Liquidity: event.Get("liquidity").Float(),
		Outcomes:  make(map[string]model.OutcomeQuote),
		FetchedAt: time.Now(),
	}
	if snap.Title == "" {
		snap.Title = slug
	}

	var market gjson.Result
	event.Get("markets").ForEach(func(_, m gjson.Result) bool {
		if m.Get("sportsMarketType").String() == "moneyline" {
			market = m
			return false
		}
		return true
	})
	if !market.Exists() {
		return model.MarketSnapshot{}, fmt.Errorf("no moneyline market in event %q", slug)
	}

	// Gamma encodes these fields as JSON strings inside the JSON payload.
	names := gjson.Parse(market.Get("outcomes").String()).Array()
	cached := gjson.Parse(market.Get("outcomePrices").String()).Array()
	tokens := gjson.Parse(market.Get("clobTokenIds").String()).Array()

	for i, name := range names {
		if i >= len(tokens) {
			break
		}
		tokenID := tokens[i].String()
		if tokenID == "" {
			continue
		}
		quote := s.quoteToken(ctx, tokenID)
		if quote.BuyPrice == 0 && i < len(cached) {
			quote.BuyPrice = cached[i].Float()
			quote.SellPrice = quote.BuyPrice
		}
		quote.TokenID = tokenID
		quote.Spread = abs(quote.BuyPrice - quote.SellPrice)
		snap.Outcomes[name.String()] = quote
	}
	if len(snap.Outcomes) == 0 {
		return model.MarketSnapshot{}, fmt.Errorf("no priced outcomes for event %q", slug)
	}
	return snap, nil
}

func (s *Source) quoteToken(ctx context.Context, tokenID string) model.OutcomeQuote {
	var quote model.OutcomeQuote
	if buy, err := s.clob.Price(ctx, tokenID, "buy"); err == nil {
		quote.BuyPrice = buy
	}
	if sell, err := s.clob.Price(ctx, tokenID, "sell"); err == nil {
		quote.SellPrice = sell
	}
	if mid, err := s.clob.Midpoint(ctx, tokenID); err == nil {
		quote.Midpoint = mid
	}
	return quote
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
