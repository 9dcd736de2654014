// Package rebalancing exposes the tax-lot rebalancing engine over stored
// portfolio state: drift reports, trade previews and trade execution.
package rebalancing

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/bcutrell/dumbfi/internal/modules/taxlots"
)

// HoldingStore is the portfolio surface the rebalancer needs.
type HoldingStore interface {
	Holdings() ([]taxlots.Holding, error)
	ApplyTrade(t taxlots.Trade, price float64, selector taxlots.LotSelector, executedAt time.Time) error
}

// PriceSource supplies the latest close per ticker.
type PriceSource interface {
	LatestPrices(tickers []string) (map[string]float64, error)
}

// Settings carries the tunable rebalancing parameters.
type Settings struct {
	TaxRates       taxlots.TaxRates
	LotSelection   string
	MinTradeSize   float64
	DriftThreshold float64
}

// Preview is a dry-run rebalance: the proposed trades and the state they
// were computed from.
type Preview struct {
	AsOf           time.Time          `json:"as_of"`
	PortfolioValue float64            `json:"portfolio_value"`
	Weights        map[string]float64 `json:"weights"`
	Drift          map[string]float64 `json:"drift"`
	DriftCost      float64            `json:"drift_cost"`
	Trades         []taxlots.Trade    `json:"trades"`
	TotalTaxCost   float64            `json:"total_tax_cost"`
}

// ExecutionResult reports what an executed rebalance actually applied.
type ExecutionResult struct {
	Preview
	Applied int      `json:"applied"`
	Skipped []string `json:"skipped,omitempty"` // tickers whose trades failed to apply
}

// TriggerStatus reports whether drift warrants a rebalance.
type TriggerStatus struct {
	Triggered bool               `json:"triggered"`
	Threshold float64            `json:"threshold"`
	MaxDrift  float64            `json:"max_drift"`
	Drift     map[string]float64 `json:"drift"`
}

// Service computes and executes rebalances against stored holdings.
type Service struct {
	store    HoldingStore
	prices   PriceSource
	settings Settings
	log      zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(store HoldingStore, prices PriceSource, settings Settings, log zerolog.Logger) *Service {
	if settings.TaxRates == (taxlots.TaxRates{}) {
		settings.TaxRates = taxlots.DefaultTaxRates()
	}
	return &Service{
		store:    store,
		prices:   prices,
		settings: settings,
		log:      log.With().Str("service", "rebalancing").Logger(),
	}
}

func (s *Service) config(asOf time.Time) taxlots.RebalanceConfig {
	return taxlots.RebalanceConfig{
		TaxRates:     s.settings.TaxRates,
		Selector:     taxlots.SelectorByName(s.settings.LotSelection),
		AsOf:         asOf,
		MinTradeSize: s.settings.MinTradeSize,
	}
}

func (s *Service) snapshot() ([]taxlots.Holding, map[string]float64, error) {
	holdings, err := s.store.Holdings()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	tickers := make([]string, len(holdings))
	for i, h := range holdings {
		tickers[i] = h.Ticker
	}

	prices, err := s.prices.LatestPrices(tickers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load prices: %w", err)
	}

	return holdings, prices, nil
}

// DriftReport returns current weights and drift without proposing trades.
func (s *Service) DriftReport() (*TriggerStatus, error) {
	holdings, prices, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.triggerStatus(holdings, prices), nil
}

func (s *Service) triggerStatus(holdings []taxlots.Holding, prices map[string]float64) *TriggerStatus {
	drift := taxlots.Drift(holdings, prices)

	maxDrift := 0.0
	for _, d := range drift {
		if abs := math.Abs(d); abs > maxDrift {
			maxDrift = abs
		}
	}

	return &TriggerStatus{
		Triggered: s.settings.DriftThreshold > 0 && maxDrift > s.settings.DriftThreshold,
		Threshold: s.settings.DriftThreshold,
		MaxDrift:  maxDrift,
		Drift:     drift,
	}
}

// PreviewRebalance computes the trades a rebalance would place right now,
// without touching stored state.
func (s *Service) PreviewRebalance() (*Preview, error) {
	holdings, prices, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.preview(holdings, prices, time.Now()), nil
}

func (s *Service) preview(holdings []taxlots.Holding, prices map[string]float64, asOf time.Time) *Preview {
	cfg := s.config(asOf)
	trades := taxlots.Rebalance(holdings, prices, cfg)

	return &Preview{
		AsOf:           asOf,
		PortfolioValue: taxlots.PortfolioValue(holdings, prices),
		Weights:        taxlots.CurrentWeights(holdings, prices),
		Drift:          taxlots.Drift(holdings, prices),
		DriftCost:      taxlots.DriftCost(holdings, prices),
		Trades:         trades,
		TotalTaxCost:   taxlots.TotalTaxCost(trades),
	}
}

// ExecuteRebalance computes and applies a rebalance. Each trade is applied
// independently; one failing trade is logged and skipped rather than
// aborting the rest.
func (s *Service) ExecuteRebalance() (*ExecutionResult, error) {
	holdings, prices, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	asOf := time.Now()
	preview := s.preview(holdings, prices, asOf)
	selector := taxlots.SelectorByName(s.settings.LotSelection)

	result := &ExecutionResult{Preview: *preview}
	for _, trade := range preview.Trades {
		price, ok := prices[trade.Ticker]
		if !ok {
			continue
		}
		if err := s.store.ApplyTrade(trade, price, selector, asOf); err != nil {
			s.log.Error().Err(err).Str("ticker", trade.Ticker).Msg("Failed to apply trade")
			result.Skipped = append(result.Skipped, trade.Ticker)
			continue
		}
		result.Applied++
	}

	s.log.Info().
		Int("proposed", len(preview.Trades)).
		Int("applied", result.Applied).
		Float64("total_tax_cost", preview.TotalTaxCost).
		Msg("Rebalance executed")

	return result, nil
}
