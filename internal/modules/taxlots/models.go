// Package taxlots implements tax-lot-aware portfolio valuation and
// rebalancing. Every function here is pure over its arguments: nothing
// mutates holdings, prices, or configuration, so concurrent callers can
// share the same snapshot without coordination. Trade execution against a
// live portfolio belongs to the portfolio module, not here.
package taxlots

import "time"

// TaxLot is a single purchase record within a holding: quantity, per-share
// cost and purchase timestamp. Lots are never mutated in place; a sell is
// reflected by the caller replacing the lot collection.
type TaxLot struct {
	Shares       float64   `json:"shares"`
	CostBasis    float64   `json:"cost_basis"` // per share
	PurchaseDate time.Time `json:"purchase_date"`
}

// Value returns the market value of the lot at the given price.
func (l TaxLot) Value(price float64) float64 {
	return l.Shares * price
}

// TotalCost returns the total cost basis of the lot.
func (l TaxLot) TotalCost() float64 {
	return l.Shares * l.CostBasis
}

// Holding is a ticker position with a target weight and its tax lots.
// Lot order is irrelevant; selectors re-sort before use.
type Holding struct {
	Ticker       string   `json:"ticker"`
	TargetWeight float64  `json:"target_weight"`
	Lots         []TaxLot `json:"lots"`
}

// TaxRates holds capital gains tax rates as fractions.
type TaxRates struct {
	ShortTerm float64 `json:"short_term"`
	LongTerm  float64 `json:"long_term"`
}

// DefaultTaxRates returns the standard 35% short-term / 15% long-term rates.
func DefaultTaxRates() TaxRates {
	return TaxRates{ShortTerm: 0.35, LongTerm: 0.15}
}

// Trade is a proposed buy or sell. Shares and Amount share a sign
// convention: positive = buy, negative = sell. TaxCost is the estimated tax
// impact of a sell (zero for buys, negative when selling at a loss).
type Trade struct {
	Ticker  string  `json:"ticker"`
	Shares  float64 `json:"shares"`
	Amount  float64 `json:"amount"`
	TaxCost float64 `json:"tax_cost"`
}

// RebalanceConfig controls rebalancing behavior. Construct via NewConfig so
// defaults are resolved eagerly; a config built by hand must carry a
// non-nil Selector itself.
type RebalanceConfig struct {
	TaxRates     TaxRates
	Selector     LotSelector
	AsOf         time.Time
	MinTradeSize float64
}

// NewConfig returns a config with all defaults resolved: FIFO lot
// selection, default tax rates, AsOf = now, no minimum trade size.
func NewConfig() RebalanceConfig {
	return RebalanceConfig{
		TaxRates: DefaultTaxRates(),
		Selector: FIFO,
		AsOf:     time.Now(),
	}
}
