package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Service orchestrates price acquisition and lookups.
type Service struct {
	provider BarProvider // nil when no API key is configured
	repo     *PriceRepository
	cache    *QuoteCache
	lookback time.Duration
	log      zerolog.Logger
}

// NewService creates a new market data service. provider may be nil, in
// which case sync is disabled and only stored prices are served.
func NewService(provider BarProvider, repo *PriceRepository, cache *QuoteCache, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		repo:     repo,
		cache:    cache,
		lookback: 2 * 365 * 24 * time.Hour,
		log:      log.With().Str("service", "marketdata").Logger(),
	}
}

// Sync fetches and stores price history for the given tickers.
func (s *Service) Sync(ctx context.Context, tickers []string) error {
	if s.provider == nil {
		s.log.Warn().Msg("No market data provider configured, skipping sync")
		return nil
	}

	to := time.Now()
	from := to.Add(-s.lookback)

	synced := 0
	for _, ticker := range tickers {
		bars, err := s.provider.GetEOD(ctx, ticker, from, to)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to sync prices")
			continue
		}
		if err := s.repo.UpsertBars(ticker, bars); err != nil {
			return fmt.Errorf("failed to store bars for %s: %w", ticker, err)
		}
		synced++
	}

	s.log.Info().Int("requested", len(tickers)).Int("synced", synced).Msg("Price sync complete")
	return nil
}

// LatestPrices returns the most recent close per ticker, serving from
// the snapshot cache when a fresh entry exists.
func (s *Service) LatestPrices(tickers []string) (map[string]float64, error) {
	key := snapshotKey(tickers)

	if s.cache != nil {
		snap, err := s.cache.Get(key)
		if err != nil {
			s.log.Warn().Err(err).Msg("Quote cache lookup failed, reading repository")
		} else if snap != nil {
			return snap.Prices, nil
		}
	}

	prices, err := s.repo.LatestCloses(tickers)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		snap := QuoteSnapshot{Prices: prices, AsOf: time.Now(), Tickers: tickers}
		if err := s.cache.Set(key, snap); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache quote snapshot")
		}
	}

	return prices, nil
}

// History returns stored daily prices for a ticker, ascending by date.
func (s *Service) History(ticker string, limit int) ([]DailyPrice, error) {
	return s.repo.GetDailyCloses(ticker, limit)
}

// CloseSeries returns the close column for a ticker, ascending by date.
func (s *Service) CloseSeries(ticker string, limit int) ([]float64, error) {
	prices, err := s.repo.GetDailyCloses(ticker, limit)
	if err != nil {
		return nil, err
	}
	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}
	return closes, nil
}

func snapshotKey(tickers []string) string {
	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)
	return "latest:" + strings.Join(sorted, ",")
}
