// Package risk builds covariance and expected-return estimates from stored
// price history. The output is advisory: it annotates holdings with risk
// context and never feeds back into trade generation.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// TradingDaysPerYear annualizes daily statistics.
	TradingDaysPerYear = 252

	// DefaultLookbackDays is one year of trading days.
	DefaultLookbackDays = 252

	// HighCorrelationThreshold flags pairs moving nearly in lockstep.
	HighCorrelationThreshold = 0.80

	// minObservations is the fewest daily returns a ticker needs to be
	// included in the model.
	minObservations = 30
)

// PriceHistory supplies close series per ticker, ascending by date.
type PriceHistory interface {
	CloseSeries(ticker string, limit int) ([]float64, error)
}

// CorrelationPair flags two tickers whose returns are highly correlated.
type CorrelationPair struct {
	Ticker1     string  `json:"ticker1"`
	Ticker2     string  `json:"ticker2"`
	Correlation float64 `json:"correlation"`
}

// Model is an annualized risk model over a set of tickers.
type Model struct {
	Tickers          []string           `json:"tickers"`
	ExpectedReturns  map[string]float64 `json:"expected_returns"` // annualized mean historical
	Volatility       map[string]float64 `json:"volatility"`       // annualized stddev of returns
	Covariance       [][]float64        `json:"covariance"`       // annualized, ticker order
	HighCorrelations []CorrelationPair  `json:"high_correlations"`
	Observations     int                `json:"observations"`
}

// Service builds risk models from stored prices.
type Service struct {
	history PriceHistory
	log     zerolog.Logger
}

// NewService creates a new risk service
func NewService(history PriceHistory, log zerolog.Logger) *Service {
	return &Service{
		history: history,
		log:     log.With().Str("service", "risk").Logger(),
	}
}

// BuildModel estimates an annualized risk model for the given tickers.
// Tickers with too little history are dropped from the model rather than
// failing it; a model needs at least one usable ticker.
func (s *Service) BuildModel(tickers []string, lookbackDays int) (*Model, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	returns := make(map[string][]float64)
	kept := make([]string, 0, len(tickers))
	minLen := 0

	for _, ticker := range tickers {
		closes, err := s.history.CloseSeries(ticker, lookbackDays+1)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices for %s: %w", ticker, err)
		}
		r := dailyReturns(closes)
		if len(r) < minObservations {
			s.log.Warn().Str("ticker", ticker).Int("observations", len(r)).
				Msg("Insufficient history, dropping ticker from risk model")
			continue
		}
		returns[ticker] = r
		kept = append(kept, ticker)
		if minLen == 0 || len(r) < minLen {
			minLen = len(r)
		}
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("no tickers with sufficient price history")
	}

	// Align series to a common length, keeping the most recent observations.
	for ticker, r := range returns {
		if len(r) > minLen {
			returns[ticker] = r[len(r)-minLen:]
		}
	}

	sample := sampleCovariance(returns, kept)
	shrunk := shrinkCovariance(sample)

	model := &Model{
		Tickers:         kept,
		ExpectedReturns: make(map[string]float64, len(kept)),
		Volatility:      make(map[string]float64, len(kept)),
		Covariance:      annualize(shrunk),
		Observations:    minLen,
	}

	for i, ticker := range kept {
		model.ExpectedReturns[ticker] = stat.Mean(returns[ticker], nil) * TradingDaysPerYear
		model.Volatility[ticker] = math.Sqrt(model.Covariance[i][i])
	}

	model.HighCorrelations = highCorrelations(model.Covariance, kept, HighCorrelationThreshold)

	s.log.Info().
		Int("tickers", len(kept)).
		Int("observations", minLen).
		Int("high_correlations", len(model.HighCorrelations)).
		Msg("Built risk model")

	return model, nil
}

// PortfolioVolatility returns the annualized volatility of a weighted
// portfolio under the model: sqrt(w' Σ w). Weights for tickers outside
// the model are ignored.
func (m *Model) PortfolioVolatility(weights map[string]float64) float64 {
	n := len(m.Tickers)
	w := mat.NewVecDense(n, nil)
	for i, ticker := range m.Tickers {
		w.SetVec(i, weights[ticker])
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, m.Covariance[i][j])
		}
	}

	var tmp mat.VecDense
	tmp.MulVec(cov, w)
	variance := mat.Dot(w, &tmp)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// dailyReturns converts a close series into simple daily returns. A
// non-positive previous close yields a zero return for that step.
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 {
			returns[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	return returns
}

// sampleCovariance computes the sample covariance matrix over aligned
// return series, in ticker order.
func sampleCovariance(returns map[string][]float64, tickers []string) [][]float64 {
	n := len(tickers)
	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(returns[tickers[i]], returns[tickers[j]], nil)
			cov[i][j] = c
			cov[j][i] = c
		}
	}

	return cov
}

// shrinkCovariance shrinks the sample matrix toward a constant-correlation
// target. Shrinkage is capped at 0.5 so the sample structure always
// dominates.
func shrinkCovariance(sample [][]float64) [][]float64 {
	n := len(sample)
	if n < 2 {
		return sample
	}

	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sample[i][i]
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sample[i][j]
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))

	target := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				target.Set(i, j, avgVar)
			} else {
				target.Set(i, j, avgCov)
			}
		}
	}

	shrinkage := estimateShrinkage(sample, target)

	shrunk := make([][]float64, n)
	for i := 0; i < n; i++ {
		shrunk[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			shrunk[i][j] = (1-shrinkage)*sample[i][j] + shrinkage*target.At(i, j)
		}
	}

	return shrunk
}

func estimateShrinkage(sample [][]float64, target *mat.Dense) float64 {
	n := len(sample)

	var sumSqDiff, sumSq, sum float64
	count := float64(n * n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			diff := sample[i][j] - target.At(i, j)
			sumSqDiff += diff * diff
			sum += sample[i][j]
			sumSq += sample[i][j] * sample[i][j]
		}
	}

	meanSqDiff := sumSqDiff / count
	mean := sum / count
	variance := sumSq/count - mean*mean

	if variance <= 0 || meanSqDiff <= 0 {
		return 0.2
	}
	return math.Min(0.5, math.Max(0.0, variance/(variance+meanSqDiff)))
}

func annualize(cov [][]float64) [][]float64 {
	out := make([][]float64, len(cov))
	for i := range cov {
		out[i] = make([]float64, len(cov[i]))
		for j := range cov[i] {
			out[i][j] = cov[i][j] * TradingDaysPerYear
		}
	}
	return out
}

// highCorrelations extracts pairs whose correlation exceeds the threshold.
func highCorrelations(cov [][]float64, tickers []string, threshold float64) []CorrelationPair {
	pairs := []CorrelationPair{}

	for i := 0; i < len(cov); i++ {
		for j := i + 1; j < len(cov); j++ {
			vi, vj := cov[i][i], cov[j][j]
			if vi <= 0 || vj <= 0 {
				continue
			}
			corr := cov[i][j] / math.Sqrt(vi*vj)
			if math.Abs(corr) >= threshold {
				pairs = append(pairs, CorrelationPair{
					Ticker1:     tickers[i],
					Ticker2:     tickers[j],
					Correlation: corr,
				})
			}
		}
	}

	return pairs
}
