package taxlots

import "time"

// longTermHolding is the fixed holding-period window used to classify a
// lot as long-term. Real capital-gains rules use calendar-year-plus-a-day
// semantics; this is a deliberate simplification, not a bug.
const longTermHolding = 365 * 24 * time.Hour

// UnrealizedGain returns the gain (positive) or loss (negative) for a lot
// at the given price.
func UnrealizedGain(lot TaxLot, price float64) float64 {
	return lot.Value(price) - lot.TotalCost()
}

// IsLongTerm reports whether the lot has been held for more than 365 days
// as of the reference date. The inequality is strict: a lot purchased
// exactly 365 days before asOf is still short-term.
func IsLongTerm(lot TaxLot, asOf time.Time) bool {
	return asOf.Sub(lot.PurchaseDate) > longTermHolding
}

// EstimateTaxCost returns the estimated tax impact of selling the whole
// lot at price. A lot held at a loss yields a negative result (a tax
// benefit); callers must not clamp it to zero. Lots are estimated
// independently; gains are not netted against losses across lots.
func EstimateTaxCost(lot TaxLot, price float64, asOf time.Time, rates TaxRates) float64 {
	gain := UnrealizedGain(lot, price)
	if IsLongTerm(lot, asOf) {
		return gain * rates.LongTerm
	}
	return gain * rates.ShortTerm
}
