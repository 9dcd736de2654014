package taxlots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ResolvesDefaultsEagerly(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg.Selector)
	assert.Equal(t, DefaultTaxRates(), cfg.TaxRates)
	assert.False(t, cfg.AsOf.IsZero())
	assert.Equal(t, 0.0, cfg.MinTradeSize)

	// The resolved selector is inspectable and behaves like FIFO.
	lots := []TaxLot{
		{Shares: 1, CostBasis: 10, PurchaseDate: day(5)},
		{Shares: 2, CostBasis: 30, PurchaseDate: day(1)},
	}
	assert.Equal(t, FIFO(lots), cfg.Selector(lots))
}

func TestRebalance_ZeroValuePortfolioReturnsNoTrades(t *testing.T) {
	holdings := []Holding{
		{Ticker: "AAPL", TargetWeight: 1.0, Lots: []TaxLot{{Shares: 100, CostBasis: 50, PurchaseDate: day(0)}}},
	}

	trades := Rebalance(holdings, map[string]float64{}, NewConfig())
	assert.Empty(t, trades)

	trades = Rebalance(holdings, map[string]float64{"AAPL": 0}, NewConfig())
	assert.Empty(t, trades)
}

func TestRebalance_DeadBandSuppressesSmallTrades(t *testing.T) {
	holdings := []Holding{
		{Ticker: "AAPL", TargetWeight: 0.52, Lots: []TaxLot{{Shares: 50, CostBasis: 50, PurchaseDate: day(0)}}},
		{Ticker: "BONDS", TargetWeight: 0.48, Lots: []TaxLot{{Shares: 50, CostBasis: 50, PurchaseDate: day(0)}}},
	}
	prices := map[string]float64{"AAPL": 100, "BONDS": 100}

	cfg := NewConfig()
	cfg.MinTradeSize = 1000

	// Total 10000, AAPL diff = 5200-5000 = 200 < 1000: suppressed.
	trades := Rebalance(holdings, prices, cfg)
	assert.Empty(t, trades)

	cfg.MinTradeSize = 100
	trades = Rebalance(holdings, prices, cfg)
	assert.Len(t, trades, 2)
}

func TestRebalance_SkipsUnpricedHoldings(t *testing.T) {
	holdings := []Holding{
		{Ticker: "AAPL", TargetWeight: 0.5, Lots: []TaxLot{{Shares: 100, CostBasis: 50, PurchaseDate: day(0)}}},
		{Ticker: "DARK", TargetWeight: 0.5, Lots: []TaxLot{{Shares: 100, CostBasis: 50, PurchaseDate: day(0)}}},
	}
	prices := map[string]float64{"AAPL": 100}

	trades := Rebalance(holdings, prices, NewConfig())

	// DARK cannot be sized; AAPL is sold down toward its 50% target.
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0].Ticker)
	assert.Less(t, trades[0].Shares, 0.0)
}

func TestRebalance_EndToEndScenario(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	holdings := []Holding{
		{
			Ticker:       "AAPL",
			TargetWeight: 0.5,
			Lots: []TaxLot{
				{Shares: 100, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -400)},
				{Shares: 50, CostBasis: 80, PurchaseDate: asOf.AddDate(0, 0, -30)},
			},
		},
		{
			Ticker:       "BONDS",
			TargetWeight: 0.5,
			Lots: []TaxLot{
				{Shares: 200, CostBasis: 100, PurchaseDate: asOf.AddDate(0, 0, -400)},
			},
		},
	}
	prices := map[string]float64{"AAPL": 100, "BONDS": 100}

	cfg := NewConfig()
	cfg.AsOf = asOf

	trades := Rebalance(holdings, prices, cfg)

	// Total 35000, target 17500 each. AAPL at 15000 buys 2500; BONDS at
	// 20000 sells 2500 from a lot with zero unrealized gain.
	require.Len(t, trades, 2)

	assert.Equal(t, "AAPL", trades[0].Ticker)
	assert.InDelta(t, 25.0, trades[0].Shares, 1e-9)
	assert.InDelta(t, 2500.0, trades[0].Amount, 1e-9)
	assert.Equal(t, 0.0, trades[0].TaxCost)

	assert.Equal(t, "BONDS", trades[1].Ticker)
	assert.InDelta(t, -25.0, trades[1].Shares, 1e-9)
	assert.InDelta(t, -2500.0, trades[1].Amount, 1e-9)
	assert.InDelta(t, 0.0, trades[1].TaxCost, 1e-9)
}

func TestRebalance_SellTaxSpansMultipleLots(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	holdings := []Holding{
		{
			Ticker:       "AAPL",
			TargetWeight: 0.25,
			Lots: []TaxLot{
				{Shares: 10, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -400)}, // long-term
				{Shares: 90, CostBasis: 80, PurchaseDate: asOf.AddDate(0, 0, -30)},  // short-term
			},
		},
		{Ticker: "CASHX", TargetWeight: 0.75, Lots: []TaxLot{{Shares: 60, CostBasis: 100, PurchaseDate: asOf.AddDate(0, 0, -400)}}},
	}
	prices := map[string]float64{"AAPL": 100, "CASHX": 100}

	cfg := NewConfig()
	cfg.AsOf = asOf

	trades := Rebalance(holdings, prices, cfg)
	require.Len(t, trades, 2)

	// Total 16000, AAPL target 4000, current 10000: sell 60 shares.
	sell := trades[0]
	require.Equal(t, "AAPL", sell.Ticker)
	assert.InDelta(t, -60.0, sell.Shares, 1e-9)

	// FIFO: 10 long-term shares at 50 gain each, then 50 short-term at 20.
	wantTax := 10*50*0.15 + 50*20*0.35
	assert.InDelta(t, wantTax, sell.TaxCost, 1e-9)
}

func TestRebalance_OverSellExhaustsLotsSilently(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	h := Holding{
		Ticker:       "AAPL",
		TargetWeight: 0,
		Lots:         []TaxLot{{Shares: 5, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -400)}},
	}

	cfg := NewConfig()
	cfg.AsOf = asOf

	// Request far more shares than the holding carries: the estimate
	// covers the 5 available shares only, with no error.
	got := sellTaxCost(h, 100, 1000, cfg)
	assert.InDelta(t, 5*50*0.15, got, 1e-9)
}

func TestRebalance_HighestCostFirstReducesTaxCost(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	holdings := []Holding{
		{
			Ticker:       "AAPL",
			TargetWeight: 0.25,
			Lots: []TaxLot{
				// FIFO sells the old low-basis lot first.
				{Shares: 50, CostBasis: 20, PurchaseDate: asOf.AddDate(0, 0, -800)},
				{Shares: 50, CostBasis: 90, PurchaseDate: asOf.AddDate(0, 0, -400)},
			},
		},
		{Ticker: "CASHX", TargetWeight: 0.75, Lots: []TaxLot{{Shares: 100, CostBasis: 100, PurchaseDate: asOf.AddDate(0, 0, -400)}}},
	}
	prices := map[string]float64{"AAPL": 100, "CASHX": 100}

	fifoCfg := NewConfig()
	fifoCfg.AsOf = asOf

	hcfCfg := NewConfig()
	hcfCfg.AsOf = asOf
	hcfCfg.Selector = HighestCostFirst

	fifoTax := Rebalance(holdings, prices, fifoCfg)[0].TaxCost
	hcfTax := Rebalance(holdings, prices, hcfCfg)[0].TaxCost

	assert.Less(t, hcfTax, fifoTax)
}

func TestRebalance_DoesNotMutateHoldings(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	holdings := []Holding{
		{Ticker: "AAPL", TargetWeight: 0.2, Lots: []TaxLot{
			{Shares: 100, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -400)},
		}},
		{Ticker: "BONDS", TargetWeight: 0.8, Lots: []TaxLot{
			{Shares: 100, CostBasis: 90, PurchaseDate: asOf.AddDate(0, 0, -30)},
		}},
	}
	prices := map[string]float64{"AAPL": 100, "BONDS": 100}

	cfg := NewConfig()
	cfg.AsOf = asOf
	_ = Rebalance(holdings, prices, cfg)

	assert.Equal(t, 100.0, holdings[0].Lots[0].Shares)
	assert.Equal(t, 100.0, holdings[1].Lots[0].Shares)
}

func TestTotalTaxCost(t *testing.T) {
	trades := []Trade{
		{Ticker: "A", Shares: 10, Amount: 1000, TaxCost: 0},
		{Ticker: "B", Shares: -5, Amount: -500, TaxCost: 42.5},
		{Ticker: "C", Shares: -5, Amount: -500, TaxCost: -10},
	}

	assert.InDelta(t, 32.5, TotalTaxCost(trades), 1e-9)
	assert.Equal(t, 0.0, TotalTaxCost(nil))
}
