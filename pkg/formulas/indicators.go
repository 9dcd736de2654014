package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateRSI calculates the Relative Strength Index over the given
// period (typically 14) and returns the current value, or nil when there
// is insufficient data.
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// CalculateSMA calculates the simple moving average over the given
// period and returns the current value, or nil when there is
// insufficient data.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

func isNaN(f float64) bool {
	return f != f
}
