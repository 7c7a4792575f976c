package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ClobClient covers the pricing endpoints of the CLOB API.
type ClobClient struct {
	api *httpAPI
}

func NewClobClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *ClobClient {
	return &ClobClient{api: newHTTPAPI(baseURL, timeout, limiter)}
}

// Price returns the current buy or sell price for a token.
func (c *ClobClient) Price(ctx context.Context, tokenID, side string) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)
	params.Set("side", side)
	res, err := c.api.get(ctx, "/price", params)
	if err != nil {
		return 0, err
	}
	price := res.Get("price")
	if !price.Exists() {
		return 0, fmt.Errorf("no price for token %s side %s", tokenID, side)
	}
	return price.Float(), nil
}

// Midpoint returns the average of best bid and best ask for a token.
func (c *ClobClient) Midpoint(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)
	res, err := c.api.get(ctx, "/midpoint", params)
	if err != nil {
		return 0, err
	}
	mid := res.Get("mid")
	if !mid.Exists() {
		return 0, fmt.Errorf("no midpoint for token %s", tokenID)
	}
	return mid.Float(), nil
}
