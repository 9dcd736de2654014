package taxlots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLongTerm_BoundaryIsStrict(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		heldDays int
		want     bool
	}{
		{"364 days is short-term", 364, false},
		{"exactly 365 days is still short-term", 365, false},
		{"366 days is long-term", 366, true},
		{"400 days is long-term", 400, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lot := TaxLot{Shares: 10, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -tt.heldDays)}
			assert.Equal(t, tt.want, IsLongTerm(lot, asOf))
		})
	}
}

func TestUnrealizedGain(t *testing.T) {
	lot := TaxLot{Shares: 100, CostBasis: 50, PurchaseDate: day(0)}

	assert.InDelta(t, 5000.0, UnrealizedGain(lot, 100), 1e-9)
	assert.InDelta(t, -2000.0, UnrealizedGain(lot, 30), 1e-9)
	assert.InDelta(t, 0.0, UnrealizedGain(lot, 50), 1e-9)
}

func TestEstimateTaxCost_AppliesRateByHoldingPeriod(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rates := TaxRates{ShortTerm: 0.35, LongTerm: 0.15}

	shortLot := TaxLot{Shares: 100, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -30)}
	longLot := TaxLot{Shares: 100, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -400)}

	// Gain of 5000 in both cases, taxed at the applicable rate.
	assert.InDelta(t, 5000*0.35, EstimateTaxCost(shortLot, 100, asOf, rates), 1e-9)
	assert.InDelta(t, 5000*0.15, EstimateTaxCost(longLot, 100, asOf, rates), 1e-9)
}

func TestEstimateTaxCost_SignFollowsGain(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rates := DefaultTaxRates()
	lot := TaxLot{Shares: 100, CostBasis: 50, PurchaseDate: asOf.AddDate(0, 0, -400)}

	// Loss produces a negative tax cost (a benefit), never clamped.
	assert.Less(t, EstimateTaxCost(lot, 30, asOf, rates), 0.0)
	// Zero gain produces zero tax regardless of rate.
	assert.InDelta(t, 0.0, EstimateTaxCost(lot, 50, asOf, rates), 1e-9)
}
