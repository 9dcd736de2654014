package marketdata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcutrell/dumbfi/internal/database"
	"github.com/bcutrell/dumbfi/pkg/logger"
)

type fakeProvider struct {
	bars  map[string][]Bar
	calls int
}

func (f *fakeProvider) GetEOD(_ context.Context, ticker string, _, _ time.Time) ([]Bar, error) {
	f.calls++
	return f.bars[ticker], nil
}

func newMarketDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "market.db"),
		Profile: database.ProfileCache,
		Name:    "market",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestPriceRepository_UpsertAndQuery(t *testing.T) {
	db := newMarketDB(t)
	log := logger.New(logger.Config{Level: "error"})
	repo := NewPriceRepository(db.Conn(), log)

	bars := []Bar{
		{Date: "2024-01-02", Open: 100, High: 105, Low: 99, Close: 104, Volume: 1000},
		{Date: "2024-01-03", Open: 104, High: 110, Low: 103, Close: 108, Volume: 1200},
	}
	require.NoError(t, repo.UpsertBars("AAPL", bars))

	// Re-upserting the same date replaces the row instead of duplicating it.
	require.NoError(t, repo.UpsertBars("AAPL", []Bar{
		{Date: "2024-01-03", Open: 104, High: 111, Low: 103, Close: 109, Volume: 1300},
	}))

	prices, err := repo.GetDailyCloses("AAPL", 0)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2024-01-02", prices[0].Date)
	assert.Equal(t, 104.0, prices[0].Close)
	assert.Equal(t, 109.0, prices[1].Close)
}

func TestPriceRepository_LatestCloses(t *testing.T) {
	db := newMarketDB(t)
	log := logger.New(logger.Config{Level: "error"})
	repo := NewPriceRepository(db.Conn(), log)

	require.NoError(t, repo.UpsertBars("AAPL", []Bar{
		{Date: "2024-01-02", Close: 104},
		{Date: "2024-01-03", Close: 108},
	}))
	require.NoError(t, repo.UpsertBars("BONDS", []Bar{
		{Date: "2024-01-03", Close: 100},
	}))

	prices, err := repo.LatestCloses([]string{"AAPL", "BONDS", "GHOST"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 108, "BONDS": 100}, prices)
}

func TestQuoteCache_RoundTripAndExpiry(t *testing.T) {
	db := newMarketDB(t)
	log := logger.New(logger.Config{Level: "error"})

	cache := NewQuoteCache(db.Conn(), time.Hour, log)
	snap := QuoteSnapshot{
		Prices:  map[string]float64{"AAPL": 150},
		AsOf:    time.Now().UTC().Truncate(time.Second),
		Tickers: []string{"AAPL"},
	}
	require.NoError(t, cache.Set("latest:AAPL", snap))

	got, err := cache.Get("latest:AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Prices, got.Prices)
	assert.Equal(t, snap.Tickers, got.Tickers)

	missing, err := cache.Get("latest:GHOST")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// An expired entry reads as a miss.
	expired := NewQuoteCache(db.Conn(), -time.Minute, log)
	require.NoError(t, expired.Set("latest:OLD", snap))
	got, err = expired.Get("latest:OLD")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, expired.Purge())
}

func TestService_SyncStoresBars(t *testing.T) {
	db := newMarketDB(t)
	log := logger.New(logger.Config{Level: "error"})
	repo := NewPriceRepository(db.Conn(), log)

	provider := &fakeProvider{bars: map[string][]Bar{
		"AAPL": {{Date: "2024-01-02", Close: 104}},
	}}
	svc := NewService(provider, repo, nil, log)

	require.NoError(t, svc.Sync(context.Background(), []string{"AAPL", "GHOST"}))
	assert.Equal(t, 2, provider.calls)

	closes, err := svc.CloseSeries("AAPL", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{104}, closes)
}

func TestService_SyncWithoutProviderIsNoOp(t *testing.T) {
	db := newMarketDB(t)
	log := logger.New(logger.Config{Level: "error"})
	svc := NewService(nil, NewPriceRepository(db.Conn(), log), nil, log)

	require.NoError(t, svc.Sync(context.Background(), []string{"AAPL"}))
}

func TestService_LatestPricesUsesCache(t *testing.T) {
	db := newMarketDB(t)
	log := logger.New(logger.Config{Level: "error"})
	repo := NewPriceRepository(db.Conn(), log)
	cache := NewQuoteCache(db.Conn(), time.Hour, log)
	svc := NewService(nil, repo, cache, log)

	require.NoError(t, repo.UpsertBars("AAPL", []Bar{{Date: "2024-01-02", Close: 104}}))

	prices, err := svc.LatestPrices([]string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 104}, prices)

	// A newer close appears only after the cached snapshot expires; the
	// second read still serves the cached value.
	require.NoError(t, repo.UpsertBars("AAPL", []Bar{{Date: "2024-01-03", Close: 200}}))
	prices, err = svc.LatestPrices([]string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 104}, prices)
}
