// Package fixture provides a market source backed by a YAML file of canned
// snapshots. It satisfies the same capability as the live Polymarket source
// and is selected purely by configuration; the engine never knows the
// difference.
package fixture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"polytrader/internal/model"

	"gopkg.in/yaml.v3"
)

type fixtureFile struct {
	Markets []fixtureMarket `yaml:"markets"`
}

type fixtureMarket struct {
	Slug      string                    `yaml:"slug"`
	Title     string                    `yaml:"title"`
	Volume    float64                   `yaml:"volume"`
	Liquidity float64                   `yaml:"liquidity"`
	Outcomes  map[string]fixtureOutcome `yaml:"outcomes"`
}

type fixtureOutcome struct {
	TokenID   string  `yaml:"token_id"`
	BuyPrice  float64 `yaml:"buy_price"`
	SellPrice float64 `yaml:"sell_price"`
	Midpoint  float64 `yaml:"midpoint"`
}

// Source serves snapshots from a fixture file.
type Source struct {
	markets map[string]model.MarketSnapshot
	slugs   []string
}

func NewSource(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file failed: %w", err)
	}
	var file fixtureFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing fixture file failed: %w", err)
	}
	if len(file.Markets) == 0 {
		return nil, fmt.Errorf("fixture file %s contains no markets", path)
	}

	src := &Source{markets: make(map[string]model.MarketSnapshot, len(file.Markets))}
	for _, m := range file.Markets {
		if m.Slug == "" {
			return nil, fmt.Errorf("fixture market without slug in %s", path)
		}
		snap := model.MarketSnapshot{
			Slug:      m.Slug,
			Title:     m.Title,
			Volume:    m.Volume,
			Liquidity: m.Liquidity,
			Outcomes:  make(map[string]model.OutcomeQuote, len(m.Outcomes)),
		}
		if snap.Title == "" {
			snap.Title = m.Slug
		}
		for name, o := range m.Outcomes {
			snap.Outcomes[name] = model.OutcomeQuote{
				TokenID:   o.TokenID,
				BuyPrice:  o.BuyPrice,
				SellPrice: o.SellPrice,
				Midpoint:  o.Midpoint,
			}
		}
		src.markets[m.Slug] = snap
		src.slugs = append(src.slugs, m.Slug)
	}
	sort.Strings(src.slugs)
	return src, nil
}

func (s *Source) ListMarkets(_ context.Context) ([]string, error) {
	return append([]string(nil), s.slugs...), nil
}

func (s *Source) FetchSnapshot(_ context.Context, slug string) (model.MarketSnapshot, error) {
	snap, ok := s.markets[slug]
	if !ok {
		return model.MarketSnapshot{}, fmt.Errorf("no fixture for slug %q", slug)
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}
