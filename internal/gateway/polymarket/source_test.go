package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"polytrader/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sportsJSON = `[
  {"sport": "Cricket - IPL", "series": "101"},
  {"sport": "NBA", "series": "202"},
  {"sport": "Cricket - Big Bash", "series": "303"}
]`

const eventsJSON = `[
  {"slug": "ind-vs-aus", "volume": 182000},
  {"slug": "low-volume-match", "volume": 900},
  {"slug": "eng-vs-nz", "volume": 96000}
]`

const eventJSON = `[{
  "slug": "ind-vs-aus",
  "title": "India vs Australia",
  "volume": 182000,
  "liquidity": 41000,
  "markets": [
    {"sportsMarketType": "totals", "outcomes": "[]"},
    {
      "sportsMarketType": "moneyline",
      "outcomes": "[\"India\", \"Australia\"]",
      "outcomePrices": "[\"0.61\", \"0.39\"]",
      "clobTokenIds": "[\"tok-ind\", \"tok-aus\"]"
    }
  ]
}]`

// fakePolymarket serves both the Gamma and CLOB surfaces from one server.
func fakePolymarket(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sports", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sportsJSON))
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if slug := r.URL.Query().Get("slug"); slug != "" {
			if slug != "ind-vs-aus" {
				w.Write([]byte("[]"))
				return
			}
			w.Write([]byte(eventJSON))
			return
		}
		if r.URL.Query().Get("series_id") == "101" {
			w.Write([]byte(eventsJSON))
			return
		}
		w.Write([]byte("[]"))
	})
	mux.HandleFunc("/price", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token_id") != "tok-ind" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("side") == "buy" {
			w.Write([]byte(`{"price": "0.62"}`))
			return
		}
		w.Write([]byte(`{"price": "0.60"}`))
	})
	mux.HandleFunc("/midpoint", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token_id") != "tok-ind" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"mid": "0.61"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testSource(t *testing.T, srv *httptest.Server) *Source {
	t.Helper()
	return NewSource(config.MarketsConfig{
		Source:         "polymarket",
		MinVolume:      5000,
		SeriesKeywords: []string{"cricket"},
		GammaBaseURL:   srv.URL,
		ClobBaseURL:    srv.URL,
		RateLimitRPS:   1000,
		TimeoutSeconds: 5,
	})
}

func TestListMarketsFiltersByKeywordAndVolume(t *testing.T) {
	src := testSource(t, fakePolymarket(t))

	slugs, err := src.ListMarkets(context.Background())
	require.NoError(t, err)
	// Series 303 matched "cricket" but has no events; the low-volume match and
	// the NBA series are filtered out.
	assert.Equal(t, []string{"eng-vs-nz", "ind-vs-aus"}, slugs)
}

func TestListMarketsNoKeywordMatches(t *testing.T) {
	src := fakePolymarket(t)
	s := NewSource(config.MarketsConfig{
		SeriesKeywords: []string{"curling"},
		GammaBaseURL:   src.URL,
		ClobBaseURL:    src.URL,
		RateLimitRPS:   1000,
		TimeoutSeconds: 5,
	})
	slugs, err := s.ListMarkets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slugs)
}

func TestFetchSnapshotQuotesMoneylineOutcomes(t *testing.T) {
	src := testSource(t, fakePolymarket(t))

	snap, err := src.FetchSnapshot(context.Background(), "ind-vs-aus")
	require.NoError(t, err)
	assert.Equal(t, "India vs Australia", snap.Title)
	assert.Equal(t, 182000.0, snap.Volume)
	require.Len(t, snap.Outcomes, 2)

	// India priced live off the CLOB.
	india, ok := snap.Quote("India")
	require.True(t, ok)
	assert.Equal(t, "tok-ind", india.TokenID)
	assert.Equal(t, 0.62, india.BuyPrice)
	assert.Equal(t, 0.60, india.SellPrice)
	assert.Equal(t, 0.61, india.Midpoint)
	assert.InDelta(t, 0.02, india.Spread, 1e-9)

	// Australia has no CLOB quote and falls back to Gamma's cached price.
	aus, ok := snap.Quote("Australia")
	require.True(t, ok)
	assert.Equal(t, 0.39, aus.BuyPrice)
	assert.Equal(t, 0.39, aus.SellPrice)
}

func TestFetchSnapshotUnknownSlug(t *testing.T) {
	src := testSource(t, fakePolymarket(t))
	_, err := src.FetchSnapshot(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}
