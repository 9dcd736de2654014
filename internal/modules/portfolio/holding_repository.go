// Package portfolio owns persisted portfolio state: holdings, their tax
// lots, and the executed-trade ledger. It is the accounting layer that
// applies trades the rebalancing engine proposes.
package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bcutrell/dumbfi/internal/database"
	"github.com/bcutrell/dumbfi/internal/modules/taxlots"
)

// HoldingRepository handles holding and lot database operations.
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "holding").Logger(),
	}
}

// GetAll returns all holdings with their lots, in ticker order.
func (r *HoldingRepository) GetAll() ([]taxlots.Holding, error) {
	rows, err := r.db.Query(`SELECT ticker, target_weight FROM holdings ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []taxlots.Holding
	for rows.Next() {
		var h taxlots.Holding
		if err := rows.Scan(&h.Ticker, &h.TargetWeight); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	for i := range holdings {
		lots, err := r.getLots(holdings[i].Ticker)
		if err != nil {
			return nil, err
		}
		holdings[i].Lots = lots
	}

	return holdings, nil
}

// Get returns a single holding with its lots.
func (r *HoldingRepository) Get(ticker string) (*taxlots.Holding, error) {
	var h taxlots.Holding
	err := r.db.QueryRow(`SELECT ticker, target_weight FROM holdings WHERE ticker = ?`, ticker).
		Scan(&h.Ticker, &h.TargetWeight)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query holding %s: %w", ticker, err)
	}

	lots, err := r.getLots(ticker)
	if err != nil {
		return nil, err
	}
	h.Lots = lots

	return &h, nil
}

func (r *HoldingRepository) getLots(ticker string) ([]taxlots.TaxLot, error) {
	rows, err := r.db.Query(
		`SELECT shares, cost_basis, purchase_date FROM lots WHERE ticker = ? ORDER BY id`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots for %s: %w", ticker, err)
	}
	defer rows.Close()

	var lots []taxlots.TaxLot
	for rows.Next() {
		var lot taxlots.TaxLot
		var purchased string
		if err := rows.Scan(&lot.Shares, &lot.CostBasis, &purchased); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lot.PurchaseDate, err = time.Parse(time.RFC3339, purchased)
		if err != nil {
			return nil, fmt.Errorf("failed to parse purchase date %q: %w", purchased, err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	return lots, nil
}

// Upsert creates or updates a holding's target weight.
func (r *HoldingRepository) Upsert(ticker string, targetWeight float64) error {
	_, err := r.db.Exec(`
		INSERT INTO holdings (ticker, target_weight) VALUES (?, ?)
		ON CONFLICT(ticker) DO UPDATE SET target_weight = excluded.target_weight`,
		ticker, targetWeight)
	if err != nil {
		return fmt.Errorf("failed to upsert holding %s: %w", ticker, err)
	}
	return nil
}

// Delete removes a holding and its lots.
func (r *HoldingRepository) Delete(ticker string) error {
	if _, err := r.db.Exec(`DELETE FROM holdings WHERE ticker = ?`, ticker); err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", ticker, err)
	}
	return nil
}

// AddLot appends a lot to a holding.
func (r *HoldingRepository) AddLot(ticker string, lot taxlots.TaxLot) error {
	_, err := r.db.Exec(
		`INSERT INTO lots (ticker, shares, cost_basis, purchase_date) VALUES (?, ?, ?, ?)`,
		ticker, lot.Shares, lot.CostBasis, lot.PurchaseDate.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert lot for %s: %w", ticker, err)
	}
	return nil
}

// ReplaceLots swaps a holding's lot collection atomically. This is the
// lot lifecycle step: after a sell is executed, the caller supplies the
// reduced collection with fully-sold lots removed.
func (r *HoldingRepository) ReplaceLots(ticker string, lots []taxlots.TaxLot) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM lots WHERE ticker = ?`, ticker); err != nil {
			return fmt.Errorf("failed to clear lots for %s: %w", ticker, err)
		}
		for _, lot := range lots {
			if lot.Shares <= 0 {
				continue
			}
			_, err := tx.Exec(
				`INSERT INTO lots (ticker, shares, cost_basis, purchase_date) VALUES (?, ?, ?, ?)`,
				ticker, lot.Shares, lot.CostBasis, lot.PurchaseDate.UTC().Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("failed to insert lot for %s: %w", ticker, err)
			}
		}
		return nil
	})
}

// RecordTrade appends an executed trade to the ledger.
func (r *HoldingRepository) RecordTrade(t taxlots.Trade, executedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO executed_trades (ticker, shares, amount, tax_cost, executed_at) VALUES (?, ?, ?, ?, ?)`,
		t.Ticker, t.Shares, t.Amount, t.TaxCost, executedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record trade for %s: %w", t.Ticker, err)
	}
	return nil
}

// ExecutedTrade is a ledger row.
type ExecutedTrade struct {
	ID         int64         `json:"id"`
	Trade      taxlots.Trade `json:"trade"`
	ExecutedAt time.Time     `json:"executed_at"`
}

// ListTrades returns the most recent executed trades, newest first.
func (r *HoldingRepository) ListTrades(limit int) ([]ExecutedTrade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(`
		SELECT id, ticker, shares, amount, tax_cost, executed_at
		FROM executed_trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executed trades: %w", err)
	}
	defer rows.Close()

	var trades []ExecutedTrade
	for rows.Next() {
		var et ExecutedTrade
		var executed string
		if err := rows.Scan(&et.ID, &et.Trade.Ticker, &et.Trade.Shares, &et.Trade.Amount, &et.Trade.TaxCost, &executed); err != nil {
			return nil, fmt.Errorf("failed to scan executed trade: %w", err)
		}
		et.ExecutedAt, err = time.Parse(time.RFC3339, executed)
		if err != nil {
			return nil, fmt.Errorf("failed to parse execution time %q: %w", executed, err)
		}
		trades = append(trades, et)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executed trades: %w", err)
	}

	return trades, nil
}
