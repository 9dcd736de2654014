// Package formulas provides shared financial math used across modules.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CalculateReturns converts prices to simple periodic returns.
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// as the daily standard deviation scaled by sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(252)
}

// CalculateSharpeRatio calculates the annualized Sharpe ratio from
// periodic returns. Returns nil when there is insufficient data or no
// volatility to divide by.
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev
	annualized := sharpe * math.Sqrt(float64(periodsPerYear))

	return &annualized
}
