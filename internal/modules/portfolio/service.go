package portfolio

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/bcutrell/dumbfi/internal/modules/taxlots"
)

// Service applies portfolio mutations. The taxlots engine proposes trades
// without touching state; this service is the collaborator that executes
// them against stored lots.
type Service struct {
	repo *HoldingRepository
	log  zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(repo *HoldingRepository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "portfolio").Logger(),
	}
}

// Holdings returns the current holdings with lots.
func (s *Service) Holdings() ([]taxlots.Holding, error) {
	return s.repo.GetAll()
}

// Tickers returns the tickers of all current holdings.
func (s *Service) Tickers() ([]string, error) {
	holdings, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	tickers := make([]string, len(holdings))
	for i, h := range holdings {
		tickers[i] = h.Ticker
	}
	return tickers, nil
}

// SetTarget creates or updates a holding's target weight.
func (s *Service) SetTarget(ticker string, targetWeight float64) error {
	if err := s.repo.Upsert(ticker, targetWeight); err != nil {
		return err
	}
	s.log.Info().Str("ticker", ticker).Float64("target_weight", targetWeight).Msg("Set target weight")
	return nil
}

// AddLot records a purchase lot against a holding, creating the holding
// with a zero target weight if it does not exist yet.
func (s *Service) AddLot(ticker string, lot taxlots.TaxLot) error {
	if lot.Shares <= 0 {
		return fmt.Errorf("lot shares must be positive, got %v", lot.Shares)
	}
	if lot.CostBasis < 0 {
		return fmt.Errorf("lot cost basis must be non-negative, got %v", lot.CostBasis)
	}

	existing, err := s.repo.Get(ticker)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := s.repo.Upsert(ticker, 0); err != nil {
			return err
		}
	}

	return s.repo.AddLot(ticker, lot)
}

// Remove deletes a holding and its lots.
func (s *Service) Remove(ticker string) error {
	return s.repo.Delete(ticker)
}

// Trades returns the executed-trade ledger, newest first.
func (s *Service) Trades(limit int) ([]ExecutedTrade, error) {
	return s.repo.ListTrades(limit)
}

// ApplyTrade executes a proposed trade against stored lots at the given
// price. Buys append a new lot at the trade price. Sells consume lots in
// selector order, dropping fully-sold lots and trimming the partially
// sold one, then persist the replacement collection. A sell larger than
// the position liquidates it entirely.
func (s *Service) ApplyTrade(t taxlots.Trade, price float64, selector taxlots.LotSelector, executedAt time.Time) error {
	if selector == nil {
		selector = taxlots.FIFO
	}

	if t.Shares > 0 {
		lot := taxlots.TaxLot{
			Shares:       t.Shares,
			CostBasis:    price,
			PurchaseDate: executedAt,
		}
		if err := s.AddLot(t.Ticker, lot); err != nil {
			return fmt.Errorf("failed to apply buy for %s: %w", t.Ticker, err)
		}
	} else {
		holding, err := s.repo.Get(t.Ticker)
		if err != nil {
			return err
		}
		if holding == nil {
			return fmt.Errorf("cannot sell %s: no such holding", t.Ticker)
		}

		remaining := consumeLots(selector(holding.Lots), -t.Shares)
		if err := s.repo.ReplaceLots(t.Ticker, remaining); err != nil {
			return fmt.Errorf("failed to apply sell for %s: %w", t.Ticker, err)
		}
	}

	if err := s.repo.RecordTrade(t, executedAt); err != nil {
		return err
	}

	s.log.Info().
		Str("ticker", t.Ticker).
		Float64("shares", t.Shares).
		Float64("amount", t.Amount).
		Float64("tax_cost", t.TaxCost).
		Msg("Applied trade")

	return nil
}

// consumeLots removes sellShares from the front of the ordered lot list
// and returns what survives. Fully consumed lots disappear; a partially
// consumed lot keeps its cost basis and purchase date.
func consumeLots(ordered []taxlots.TaxLot, sellShares float64) []taxlots.TaxLot {
	remaining := sellShares
	var kept []taxlots.TaxLot

	for _, lot := range ordered {
		if remaining <= 0 {
			kept = append(kept, lot)
			continue
		}
		take := math.Min(lot.Shares, remaining)
		remaining -= take
		if lot.Shares-take > 0 {
			lot.Shares -= take
			kept = append(kept, lot)
		}
	}

	return kept
}
