package taxlots

import "math"

// Rebalance computes the trades that move holdings toward their target
// weights at current prices. Trades come back in holding order. Behavior
// for degenerate inputs is silent by contract: a zero-value portfolio
// returns no trades, unpriced holdings are skipped, and diffs inside the
// MinTradeSize dead-band are suppressed.
func Rebalance(holdings []Holding, prices map[string]float64, cfg RebalanceConfig) []Trade {
	total := PortfolioValue(holdings, prices)
	if total == 0 {
		return []Trade{}
	}

	trades := []Trade{}
	for _, h := range holdings {
		price, ok := prices[h.Ticker]
		if !ok {
			continue
		}

		currentVal := HoldingValue(h, price)
		targetVal := total * h.TargetWeight
		diff := targetVal - currentVal

		if math.Abs(diff) < cfg.MinTradeSize {
			continue
		}

		if diff > 0 {
			trades = append(trades, Trade{
				Ticker: h.Ticker,
				Shares: diff / price,
				Amount: diff,
			})
		} else {
			sellShares := -diff / price
			trades = append(trades, Trade{
				Ticker:  h.Ticker,
				Shares:  -sellShares,
				Amount:  diff,
				TaxCost: sellTaxCost(h, price, sellShares, cfg),
			})
		}
	}

	return trades
}

// sellTaxCost estimates the tax impact of selling sellShares from a
// holding, consuming lots in the order established by the configured
// selector. If the holding carries fewer shares than requested the walk
// simply exhausts the lots and the excess goes unaccounted; surfacing
// that shortfall is a caller concern.
func sellTaxCost(h Holding, price, sellShares float64, cfg RebalanceConfig) float64 {
	totalTax := 0.0
	remaining := sellShares

	for _, lot := range cfg.Selector(h.Lots) {
		if remaining <= 0 {
			break
		}
		sellFromLot := math.Min(lot.Shares, remaining)
		partial := TaxLot{
			Shares:       sellFromLot,
			CostBasis:    lot.CostBasis,
			PurchaseDate: lot.PurchaseDate,
		}
		totalTax += EstimateTaxCost(partial, price, cfg.AsOf, cfg.TaxRates)
		remaining -= sellFromLot
	}

	return totalTax
}

// TotalTaxCost sums the estimated tax cost across a trade list.
func TotalTaxCost(trades []Trade) float64 {
	total := 0.0
	for _, t := range trades {
		total += t.TaxCost
	}
	return total
}
