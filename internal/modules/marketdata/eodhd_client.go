// Package marketdata acquires and stores historical price data. It feeds
// the rebalancing and risk modules with price maps; the engine itself
// never fetches anything.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Bar is a single end-of-day price record as returned by the provider.
type Bar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        float64 `json:"volume"`
}

// BarProvider fetches end-of-day bars for a ticker over a date range.
type BarProvider interface {
	GetEOD(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error)
}

// EODHDClient fetches end-of-day prices from the EODHD API.
type EODHDClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewEODHDClient creates a new EODHD client
func NewEODHDClient(apiKey string, log zerolog.Logger) *EODHDClient {
	return &EODHDClient{
		baseURL:    "https://eodhd.com/api",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("client", "eodhd").Logger(),
	}
}

// GetEOD fetches end-of-day bars for a ticker between from and to.
func (c *EODHDClient) GetEOD(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	endpoint := fmt.Sprintf("%s/eod/%s?from=%s&to=%s&api_token=%s&fmt=json",
		c.baseURL,
		url.PathEscape(ticker),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
		url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build EOD request for %s: %w", ticker, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch EOD data for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("EOD request for %s returned %d: %s", ticker, resp.StatusCode, string(body))
	}

	var bars []Bar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("failed to decode EOD response for %s: %w", ticker, err)
	}

	c.log.Debug().Str("ticker", ticker).Int("bars", len(bars)).Msg("Fetched EOD bars")
	return bars, nil
}
