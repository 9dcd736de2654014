package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcutrell/dumbfi/internal/database"
	"github.com/bcutrell/dumbfi/internal/modules/taxlots"
	"github.com/bcutrell/dumbfi/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "portfolio.db"),
		Name: "portfolio",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error"})
	return NewService(NewHoldingRepository(db.Conn(), log), log)
}

func purchase(daysAgo int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -daysAgo).Truncate(time.Second)
}

func TestService_SetTargetAndHoldings(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.SetTarget("AAPL", 0.6))
	require.NoError(t, svc.SetTarget("BONDS", 0.4))
	// Upsert overwrites.
	require.NoError(t, svc.SetTarget("AAPL", 0.5))

	holdings, err := svc.Holdings()
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "AAPL", holdings[0].Ticker)
	assert.Equal(t, 0.5, holdings[0].TargetWeight)
	assert.Equal(t, "BONDS", holdings[1].Ticker)
}

func TestService_AddLotRoundTrips(t *testing.T) {
	svc := newTestService(t)

	lot := taxlots.TaxLot{Shares: 100, CostBasis: 50, PurchaseDate: purchase(400)}
	require.NoError(t, svc.AddLot("AAPL", lot))

	holdings, err := svc.Holdings()
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	require.Len(t, holdings[0].Lots, 1)

	got := holdings[0].Lots[0]
	assert.Equal(t, lot.Shares, got.Shares)
	assert.Equal(t, lot.CostBasis, got.CostBasis)
	assert.True(t, lot.PurchaseDate.Equal(got.PurchaseDate))
	// Holding created implicitly carries a zero target weight.
	assert.Equal(t, 0.0, holdings[0].TargetWeight)
}

func TestService_AddLotRejectsInvalid(t *testing.T) {
	svc := newTestService(t)

	assert.Error(t, svc.AddLot("AAPL", taxlots.TaxLot{Shares: 0, CostBasis: 50, PurchaseDate: purchase(1)}))
	assert.Error(t, svc.AddLot("AAPL", taxlots.TaxLot{Shares: -5, CostBasis: 50, PurchaseDate: purchase(1)}))
	assert.Error(t, svc.AddLot("AAPL", taxlots.TaxLot{Shares: 5, CostBasis: -1, PurchaseDate: purchase(1)}))
}

func TestService_ApplyTrade_BuyAppendsLot(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.SetTarget("AAPL", 0.5))

	executedAt := purchase(0)
	trade := taxlots.Trade{Ticker: "AAPL", Shares: 25, Amount: 2500}
	require.NoError(t, svc.ApplyTrade(trade, 100, taxlots.FIFO, executedAt))

	holdings, err := svc.Holdings()
	require.NoError(t, err)
	require.Len(t, holdings[0].Lots, 1)
	assert.Equal(t, 25.0, holdings[0].Lots[0].Shares)
	assert.Equal(t, 100.0, holdings[0].Lots[0].CostBasis)

	trades, err := svc.Trades(10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0].Trade.Ticker)
}

func TestService_ApplyTrade_SellConsumesLotsInSelectorOrder(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.AddLot("AAPL", taxlots.TaxLot{Shares: 10, CostBasis: 50, PurchaseDate: purchase(400)}))
	require.NoError(t, svc.AddLot("AAPL", taxlots.TaxLot{Shares: 20, CostBasis: 80, PurchaseDate: purchase(30)}))

	// Sell 15 shares FIFO: the old 10-share lot goes entirely, the newer
	// lot is trimmed to 15 shares.
	trade := taxlots.Trade{Ticker: "AAPL", Shares: -15, Amount: -1500, TaxCost: 42}
	require.NoError(t, svc.ApplyTrade(trade, 100, taxlots.FIFO, purchase(0)))

	holdings, err := svc.Holdings()
	require.NoError(t, err)
	require.Len(t, holdings[0].Lots, 1)
	assert.Equal(t, 15.0, holdings[0].Lots[0].Shares)
	assert.Equal(t, 80.0, holdings[0].Lots[0].CostBasis)
}

func TestService_ApplyTrade_SellEverythingRemovesAllLots(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.AddLot("AAPL", taxlots.TaxLot{Shares: 10, CostBasis: 50, PurchaseDate: purchase(400)}))

	// Over-sell liquidates the position without error.
	trade := taxlots.Trade{Ticker: "AAPL", Shares: -50, Amount: -5000}
	require.NoError(t, svc.ApplyTrade(trade, 100, taxlots.FIFO, purchase(0)))

	holdings, err := svc.Holdings()
	require.NoError(t, err)
	assert.Empty(t, holdings[0].Lots)
}

func TestService_ApplyTrade_SellUnknownHoldingFails(t *testing.T) {
	svc := newTestService(t)

	trade := taxlots.Trade{Ticker: "GHOST", Shares: -5, Amount: -500}
	assert.Error(t, svc.ApplyTrade(trade, 100, taxlots.FIFO, purchase(0)))
}

func TestConsumeLots_PartialAndFull(t *testing.T) {
	lots := []taxlots.TaxLot{
		{Shares: 10, CostBasis: 50, PurchaseDate: purchase(400)},
		{Shares: 20, CostBasis: 80, PurchaseDate: purchase(30)},
	}

	kept := consumeLots(lots, 5)
	require.Len(t, kept, 2)
	assert.Equal(t, 5.0, kept[0].Shares)
	assert.Equal(t, 20.0, kept[1].Shares)

	kept = consumeLots(lots, 10)
	require.Len(t, kept, 1)
	assert.Equal(t, 20.0, kept[0].Shares)

	kept = consumeLots(lots, 30)
	assert.Empty(t, kept)
}
