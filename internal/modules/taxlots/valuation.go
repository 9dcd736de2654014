package taxlots

// HoldingValue returns the market value of a holding: the sum of its lot
// values at the given price.
func HoldingValue(h Holding, price float64) float64 {
	total := 0.0
	for _, lot := range h.Lots {
		total += lot.Value(price)
	}
	return total
}

// PortfolioValue returns the total value across holdings. Holdings whose
// ticker has no price entry are excluded from the total, not an error.
func PortfolioValue(holdings []Holding, prices map[string]float64) float64 {
	total := 0.0
	for _, h := range holdings {
		if price, ok := prices[h.Ticker]; ok {
			total += HoldingValue(h, price)
		}
	}
	return total
}

// CurrentWeights returns each priced ticker's fraction of total portfolio
// value. A zero-value portfolio yields an empty map.
func CurrentWeights(holdings []Holding, prices map[string]float64) map[string]float64 {
	total := PortfolioValue(holdings, prices)
	weights := make(map[string]float64)
	if total == 0 {
		return weights
	}
	for _, h := range holdings {
		if price, ok := prices[h.Ticker]; ok {
			weights[h.Ticker] = HoldingValue(h, price) / total
		}
	}
	return weights
}

// Drift returns current weight minus target weight for every holding.
// Unpriced tickers contribute a current weight of zero, so their drift is
// -target_weight.
func Drift(holdings []Holding, prices map[string]float64) map[string]float64 {
	weights := CurrentWeights(holdings, prices)
	drift := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		drift[h.Ticker] = weights[h.Ticker] - h.TargetWeight
	}
	return drift
}

// DriftCost returns the sum of squared drifts, a scalar distance-from-
// target metric. Zero only when every holding sits exactly at target.
func DriftCost(holdings []Holding, prices map[string]float64) float64 {
	cost := 0.0
	for _, d := range Drift(holdings, prices) {
		cost += d * d
	}
	return cost
}
