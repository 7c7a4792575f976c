// Package polymarket implements the live market-data source against the
// public Gamma (discovery) and CLOB (pricing) APIs. All requests are
// unauthenticated GETs, idempotent and safe to retry.
package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// httpAPI is the shared transport for both Polymarket APIs: one client, one
// rate limiter, JSON responses handed back raw for gjson consumption.
type httpAPI struct {
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

func newHTTPAPI(baseURL string, timeout time.Duration, limiter *rate.Limiter) *httpAPI {
	return &httpAPI{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (a *httpAPI) get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return gjson.Result{}, err
		}
	}
	u := a.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	resp, err := a.httpc.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode/100 != 2 {
		return gjson.Result{}, fmt.Errorf("GET %s: status=%d", path, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("GET %s: invalid JSON response", path)
	}
	return gjson.ParseBytes(body), nil
}

// GammaClient covers the event-discovery endpoints.
type GammaClient struct {
	api *httpAPI
}

func NewGammaClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *GammaClient {
	return &GammaClient{api: newHTTPAPI(baseURL, timeout, limiter)}
}

// ListSports returns every league Polymarket carries, with its series id.
func (c *GammaClient) ListSports(ctx context.Context) (gjson.Result, error) {
	return c.api.get(ctx, "/sports", nil)
}

// ListEvents returns active game-level events for a series.
// Tag 100639 restricts results to per-game markets rather than futures.
func (c *GammaClient) ListEvents(ctx context.Context, seriesID string, limit int) (gjson.Result, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("tag_id", "100639")
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("order", "startDate")
	params.Set("ascending", "true")
	return c.api.get(ctx, "/events", params)
}

// EventBySlug fetches a single event including its sub-markets.
func (c *GammaClient) EventBySlug(ctx context.Context, slug string) (gjson.Result, error) {
	params := url.Values{}
	params.Set("slug", slug)
	res, err := c.api.get(ctx, "/events", params)
	if err != nil {
		return gjson.Result{}, err
	}
	if res.IsArray() {
		arr := res.Array()
		if len(arr) == 0 {
			return gjson.Result{}, fmt.Errorf("no event found for slug %q", slug)
		}
		return arr[0], nil
	}
	return res, nil
}
